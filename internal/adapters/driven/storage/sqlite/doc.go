// Package sqlite provides the persistent document store backed by SQLite.
//
// The store is the metadata half of the knowledge base: the vector index
// holds embeddings keyed by chunk ID, and this store holds the documents
// and chunk texts those IDs resolve to. Rebuilds replace the contents
// wholesale in a single transaction.
//
// The database uses WAL mode for concurrency and embedded SQL migrations
// applied at startup.
package sqlite
