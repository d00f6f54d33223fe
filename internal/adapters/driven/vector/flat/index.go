// Package flat provides an exact inner-product vector index with blob
// persistence. Every search scans all vectors, so results are exact and
// deterministic: scores descend and ties keep insertion order. Vectors
// are expected to be unit length, making inner product equal cosine
// similarity.
package flat

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/samtett/IEP-Goal-Generator/internal/core/domain"
	"github.com/samtett/IEP-Goal-Generator/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// BlobFileName is the conventional file name for the persisted index
// blob inside the data directory.
const BlobFileName = "vectors.bin"

// Blob format: magic, version, dimension, count, then count entries of
// (id length, id bytes, dimension float32s). All integers and floats
// are little-endian.
const (
	blobMagic   = "FVI1"
	blobVersion = uint32(1)

	// maxIDLen guards against reading a corrupt length prefix.
	maxIDLen = 1 << 16
)

// Index is an exact flat inner-product index.
type Index struct {
	mu     sync.RWMutex
	dim    int
	ids    []string
	vecs   []float32 // row-major, len(ids)*dim
	closed bool
}

// New creates an empty index for vectors of the given dimensionality.
func New(dimension int) (*Index, error) {
	if dimension <= 0 {
		return nil, errors.New("flat: dimension must be positive")
	}
	return &Index{dim: dimension}, nil
}

// Build replaces the index contents with the given vectors.
// ids[i] labels vectors[i]; insertion order is preserved and breaks
// score ties at search time. The swap is atomic: on any validation
// error the previous contents survive untouched.
func (idx *Index) Build(_ context.Context, ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("flat: %d ids for %d vectors: %w", len(ids), len(vectors), domain.ErrDimensionMismatch)
	}

	vecs := make([]float32, 0, len(vectors)*idx.dim)
	for i, v := range vectors {
		if len(v) != idx.dim {
			return fmt.Errorf("flat: vector %d has dimension %d, index has %d: %w", i, len(v), idx.dim, domain.ErrDimensionMismatch)
		}
		vecs = append(vecs, v...)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return errors.New("flat: index is closed")
	}

	idx.ids = append([]string(nil), ids...)
	idx.vecs = vecs
	return nil
}

// Search finds the k highest inner-product matches to the query, best
// first.
func (idx *Index) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.closed {
		return nil, errors.New("flat: index is closed")
	}
	if len(idx.ids) == 0 {
		return nil, fmt.Errorf("flat: %w", domain.ErrIndexNotBuilt)
	}
	if len(query) != idx.dim {
		return nil, fmt.Errorf("flat: query has dimension %d, index has %d: %w", len(query), idx.dim, domain.ErrDimensionMismatch)
	}
	if k <= 0 {
		return nil, nil
	}

	hits := make([]driven.VectorHit, len(idx.ids))
	for i, id := range idx.ids {
		row := idx.vecs[i*idx.dim : (i+1)*idx.dim]
		var score float64
		for j, q := range query {
			score += float64(q) * float64(row[j])
		}
		hits[i] = driven.VectorHit{ChunkID: id, Score: score}
	}

	// Stable sort keeps insertion order for equal scores.
	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Score > hits[b].Score
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Save writes the index to a binary blob at path. The blob is written
// to a temporary file and renamed into place, so readers never observe
// a partial index.
func (idx *Index) Save(path string) error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.closed {
		return errors.New("flat: index is closed")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".vectors-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp blob: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	if err := idx.writeBlob(w); err != nil {
		tmp.Close()
		return fmt.Errorf("writing blob: %w", err)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("flushing blob: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing blob: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing blob: %w", err)
	}
	return nil
}

func (idx *Index) writeBlob(w io.Writer) error {
	if _, err := w.Write([]byte(blobMagic)); err != nil {
		return err
	}
	header := []uint32{blobVersion, uint32(idx.dim), uint32(len(idx.ids))}
	for _, h := range header {
		if err := binary.Write(w, binary.LittleEndian, h); err != nil {
			return err
		}
	}

	buf := make([]byte, idx.dim*4)
	for i, id := range idx.ids {
		if err := binary.Write(w, binary.LittleEndian, uint32(len(id))); err != nil {
			return err
		}
		if _, err := w.Write([]byte(id)); err != nil {
			return err
		}
		row := idx.vecs[i*idx.dim : (i+1)*idx.dim]
		for j, f := range row {
			binary.LittleEndian.PutUint32(buf[j*4:], math.Float32bits(f))
		}
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

// Load reads an index blob from path, replacing current contents.
// A missing blob is reported as domain.ErrIndexNotBuilt; a blob built
// for a different dimensionality as domain.ErrDimensionMismatch.
func (idx *Index) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("flat: no index blob at %s: %w", path, domain.ErrIndexNotBuilt)
		}
		return fmt.Errorf("opening blob: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)

	magic := make([]byte, len(blobMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return fmt.Errorf("reading blob magic: %w", err)
	}
	if string(magic) != blobMagic {
		return fmt.Errorf("flat: %s is not an index blob", path)
	}

	var version, dim, count uint32
	for _, p := range []*uint32{&version, &dim, &count} {
		if err := binary.Read(r, binary.LittleEndian, p); err != nil {
			return fmt.Errorf("reading blob header: %w", err)
		}
	}
	if version != blobVersion {
		return fmt.Errorf("flat: unsupported blob version %d", version)
	}
	if int(dim) != idx.dim {
		return fmt.Errorf("flat: blob has dimension %d, index has %d: %w", dim, idx.dim, domain.ErrDimensionMismatch)
	}

	ids := make([]string, 0, count)
	vecs := make([]float32, 0, int(count)*idx.dim)
	row := make([]byte, idx.dim*4)

	for i := uint32(0); i < count; i++ {
		var idLen uint32
		if err := binary.Read(r, binary.LittleEndian, &idLen); err != nil {
			return fmt.Errorf("reading id length: %w", err)
		}
		if idLen == 0 || idLen > maxIDLen {
			return fmt.Errorf("flat: corrupt blob: id length %d", idLen)
		}
		id := make([]byte, idLen)
		if _, err := io.ReadFull(r, id); err != nil {
			return fmt.Errorf("reading id: %w", err)
		}
		if _, err := io.ReadFull(r, row); err != nil {
			return fmt.Errorf("reading vector: %w", err)
		}
		ids = append(ids, string(id))
		for j := 0; j < idx.dim; j++ {
			vecs = append(vecs, math.Float32frombits(binary.LittleEndian.Uint32(row[j*4:])))
		}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return errors.New("flat: index is closed")
	}

	idx.ids = ids
	idx.vecs = vecs
	return nil
}

// IDs returns the indexed chunk IDs in insertion order.
// Used to verify agreement with the document store.
func (idx *Index) IDs() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return append([]string(nil), idx.ids...)
}

// Size returns the number of indexed vectors.
func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.ids)
}

// Dimensions returns the vector dimensionality.
func (idx *Index) Dimensions() int {
	return idx.dim
}

// Close releases resources.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.ids = nil
	idx.vecs = nil
	idx.closed = true
	return nil
}
