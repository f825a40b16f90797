// Package storage provides JSON-based persistence for the church
// dataset. The dataset is an ordered list of records keyed by source
// URL, stored in a single file. The store owns the in-memory dataset:
// the updater appends through it, the search engine reads snapshots
// from it, and all mutation is serialized under one mutex. Saves are
// atomic (write to a temp file, then rename) so a failed save never
// leaves the persisted dataset truncated or malformed.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/vietmass/churchfinder/internal/church"
)

// Store holds the dataset and its backing file. The dirty flag tracks
// whether the in-memory dataset has records the file doesn't; it is
// raised by Append and cleared only by a successful Save or Load, so a
// failed save leaves it set and the next cycle retries.
type Store struct {
	path string

	mu      sync.Mutex
	records []*church.Record
	known   map[string]bool // by URL
	dirty   bool
}

// New creates a Store backed by the given file path. A leading ~/ is
// expanded to the user's home directory and parent directories are
// created. The file itself is not touched until Load or Save.
func New(path string) (*Store, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Store{
		path:  path,
		known: make(map[string]bool),
	}, nil
}

// Load reads the dataset from disk, replacing the in-memory state.
// A missing file yields an empty dataset, not an error.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.records = nil
			s.known = make(map[string]bool)
			s.dirty = false
			return nil
		}
		return fmt.Errorf("reading dataset: %w", err)
	}

	var records []*church.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("parsing dataset: %w", err)
	}

	s.records = records
	s.known = make(map[string]bool, len(records))
	for _, rec := range records {
		s.known[rec.URL] = true
	}
	s.dirty = false
	return nil
}

// Save persists the full in-memory dataset. The write goes to a temp
// file in the same directory and is renamed into place, so readers of
// the file never observe a partial write.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding dataset: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing dataset: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing dataset: %w", err)
	}
	s.dirty = false
	return nil
}

// Contains reports whether a record with the given URL is present.
func (s *Store) Contains(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.known[url]
}

// Append adds a record to the in-memory dataset. Records already
// present (by URL) are ignored; the store never edits or deletes
// existing entries. Call Save to persist.
func (s *Store) Append(rec *church.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.known[rec.URL] {
		return
	}
	s.records = append(s.records, rec)
	s.known[rec.URL] = true
	s.dirty = true
}

// Dirty reports whether the in-memory dataset has records not yet
// persisted to disk.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Path returns the resolved path of the backing file.
func (s *Store) Path() string {
	return s.path
}

// Snapshot returns a copy of the record list for read-only use.
// Records are treated as immutable once appended, so the elements
// themselves are shared.
func (s *Store) Snapshot() []*church.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*church.Record, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of records in the dataset.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
