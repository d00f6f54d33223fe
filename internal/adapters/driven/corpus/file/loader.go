// Package file provides a corpus loader that reads source records from
// JSON files in a directory.
//
// Each file holds the records of one source collection:
//
//	{
//	  "tag": "BLS OOH",
//	  "category": "occupation",
//	  "records": [
//	    {"title": "Retail Sales Workers", "section": "What They Do", "text": "..."}
//	  ]
//	}
//
// Files are read in lexical filename order, so record order (and with it
// document positions) is stable across loads.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/samtett/IEP-Goal-Generator/internal/core/domain"
	"github.com/samtett/IEP-Goal-Generator/internal/core/ports/driven"
	"github.com/samtett/IEP-Goal-Generator/internal/logger"
)

// DefaultDebounce is how long Watch waits after a filesystem event before
// invoking the change callback, coalescing bursts of writes.
const DefaultDebounce = 500 * time.Millisecond

// sourceFile is the on-disk JSON shape of one corpus file.
type sourceFile struct {
	Tag      string `json:"tag"`
	Category string `json:"category"`
	Records  []struct {
		Title   string `json:"title"`
		Section string `json:"section"`
		Text    string `json:"text"`
	} `json:"records"`
}

// Loader reads corpus records from JSON files in a directory.
type Loader struct {
	dir      string
	debounce time.Duration
}

var _ driven.CorpusLoader = (*Loader)(nil)

// Option configures a Loader.
type Option func(*Loader)

// WithDebounce sets the delay used to coalesce filesystem events in Watch.
func WithDebounce(d time.Duration) Option {
	return func(l *Loader) {
		if d > 0 {
			l.debounce = d
		}
	}
}

// New creates a loader for the given corpus directory.
func New(dir string, opts ...Option) *Loader {
	l := &Loader{
		dir:      dir,
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Dir returns the corpus directory this loader reads from.
func (l *Loader) Dir() string {
	return l.dir
}

// Load reads every corpus file and returns its records in file order.
// Records whose text is empty after whitespace normalisation are skipped
// with a warning.
func (l *Loader) Load(ctx context.Context) ([]domain.SourceRecord, error) {
	// os.ReadDir returns entries sorted by filename.
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("reading corpus directory: %w", err)
	}

	var records []domain.SourceRecord
	for _, entry := range entries {
		if !isCorpusFile(entry.Name()) || entry.IsDir() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fileRecords, err := l.loadFile(filepath.Join(l.dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("corpus file %s: %w", entry.Name(), err)
		}
		records = append(records, fileRecords...)
	}

	return records, nil
}

// loadFile parses one corpus file into source records.
func (l *Loader) loadFile(path string) ([]domain.SourceRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sf sourceFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}

	category := domain.SourceCategory(sf.Category)
	if !category.IsValid() {
		return nil, fmt.Errorf("unknown category %q: %w", sf.Category, domain.ErrInvalidInput)
	}

	records := make([]domain.SourceRecord, 0, len(sf.Records))
	for i, rec := range sf.Records {
		text := normalizeWhitespace(rec.Text)
		if text == "" {
			logger.Warn("skipping empty record %d (%q) in %s", i, rec.Title, filepath.Base(path))
			continue
		}
		records = append(records, domain.SourceRecord{
			Category: category,
			Provenance: domain.Provenance{
				Tag:     sf.Tag,
				Title:   rec.Title,
				Section: rec.Section,
			},
			Text: text,
		})
	}

	return records, nil
}

// Watch invokes onChange whenever a corpus file is created, written,
// removed or renamed. Bursts of events within the debounce window coalesce
// into a single callback. Watch blocks until ctx is cancelled.
func (l *Loader) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(l.dir); err != nil {
		return fmt.Errorf("watching %s: %w", l.dir, err)
	}

	timer := time.NewTimer(l.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isCorpusEvent(event) {
				continue
			}
			logger.Debug("corpus change: %s %s", event.Op, filepath.Base(event.Name))
			timer.Reset(l.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("corpus watcher error: %v", err)

		case <-timer.C:
			onChange()
		}
	}
}

// isCorpusEvent reports whether a filesystem event concerns a corpus file.
// Chmod-only events and hidden or non-JSON files are ignored.
func isCorpusEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return isCorpusFile(filepath.Base(event.Name))
}

// isCorpusFile reports whether name looks like a corpus file.
func isCorpusFile(name string) bool {
	return strings.HasSuffix(name, ".json") && !strings.HasPrefix(name, ".")
}

// normalizeWhitespace collapses all whitespace runs to single spaces and
// trims the ends, matching how the corpus text was cleaned upstream.
func normalizeWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
