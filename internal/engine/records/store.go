// Package records persists the ordered Record sequence as a flat block document.
package records

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/anatolykoptev/go_captions/internal/engine/refs"
)

var (
	// ErrStoreNotFound is returned by Require when the store file is absent.
	ErrStoreNotFound = errors.New("records: store not found")
	// ErrStoreLocked is returned by Lock when another process holds the store.
	ErrStoreLocked = errors.New("records: store is locked by another run")
)

// ExportDirName is the directory Export writes the hand-off copy into.
const ExportDirName = "youtubeRag"

// Store owns the on-disk representation between runs.
type Store struct {
	path string
}

// NewStore returns a store backed by the file at path. The file need not exist.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Require reports ErrStoreNotFound when the backing file does not exist.
func (s *Store) Require() error {
	if _, err := os.Stat(s.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrStoreNotFound, s.path)
		}
		return fmt.Errorf("stat store: %w", err)
	}
	return nil
}

// Load parses the backing file. A missing file yields an empty sequence.
// Only I/O failures are returned as errors.
func (s *Store) Load() ([]Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read store: %w", err)
	}
	return Decode(data), nil
}

// Save replaces the backing file with the serialized sequence.
// The document is written to a sibling temp file and renamed into place.
func (s *Store) Save(recs []Record) error {
	return s.writeAtomic(Encode(recs))
}

// Clear replaces the backing file with an empty collection.
func (s *Store) Clear() error {
	return s.writeAtomic(nil)
}

// Ingest merges incoming into the stored sequence and saves it.
// Returns the number of newly added records.
func (s *Store) Ingest(incoming []Record) (int, error) {
	existing, err := s.Load()
	if err != nil {
		return 0, err
	}
	merged := Merge(existing, incoming)
	if err := s.Save(merged); err != nil {
		return 0, err
	}
	return len(merged) - len(existing), nil
}

// Document returns the serialized store as an opaque payload.
func (s *Store) Document() ([]byte, error) {
	recs, err := s.Load()
	if err != nil {
		return nil, err
	}
	return Encode(recs), nil
}

// Export writes the serialized store to <dir>/youtubeRag/<store file name>
// and returns the written path.
func (s *Store) Export(dir string) (string, error) {
	doc, err := s.Document()
	if err != nil {
		return "", err
	}
	outDir := filepath.Join(dir, ExportDirName)
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return "", fmt.Errorf("export: mkdir %s: %w", outDir, err)
	}
	target := filepath.Join(outDir, filepath.Base(s.path))
	if err := NewStore(target).writeAtomic(doc); err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	return target, nil
}

// Lock takes a non-blocking inter-process lock on <path>.lock.
func (s *Store) Lock() (func() error, error) {
	lock := flock.New(s.path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire store lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStoreLocked, s.path)
	}
	return lock.Unlock, nil
}

func (s *Store) writeAtomic(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("write store: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	return nil
}

// Merge appends each incoming record whose reference is not already present.
// Existing records keep their order and fields (first write wins); new records
// are appended in incoming order. References are compared by refs.DedupKey.
func Merge(existing, incoming []Record) []Record {
	out := make([]Record, len(existing), len(existing)+len(incoming))
	copy(out, existing)

	seen := make(map[string]struct{}, len(out)+len(incoming))
	for _, r := range out {
		seen[refs.DedupKey(r.URL)] = struct{}{}
	}
	for _, r := range incoming {
		key := refs.DedupKey(r.URL)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}
