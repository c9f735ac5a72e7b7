package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// JSONFile stores both collections in a single JSON document on disk,
// the same layout the jar has always persisted:
//
//	{"cookies": [...], "projects": [...]}
//
// Writes replace the whole document via a temp file and rename. A flock
// sidecar is held for the lifetime of the store so a second daemon
// pointed at the same file fails fast instead of trading lost updates.
type JSONFile struct {
	path string
	lock *flock.Flock
}

// OpenJSONFile opens (or creates) the document at path and acquires its
// lock file.
func OpenJSONFile(path string) (*JSONFile, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create data directory: %v", ErrIO, err)
		}
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("%w: acquire lock: %v", ErrIO, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s is locked by another process", ErrIO, path)
	}

	s := &JSONFile{path: path, lock: lock}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := s.writeDocument(map[string][]json.RawMessage{}); err != nil {
			lock.Unlock()
			return nil, err
		}
	}
	return s, nil
}

func (s *JSONFile) Get(ctx context.Context, collection string) ([]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := s.readDocument()
	if err != nil {
		return nil, err
	}
	records := doc[collection]
	if records == nil {
		records = []json.RawMessage{}
	}
	return records, nil
}

func (s *JSONFile) Set(ctx context.Context, collection string, records []json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc, err := s.readDocument()
	if err != nil {
		return err
	}
	if records == nil {
		records = []json.RawMessage{}
	}
	doc[collection] = records
	return s.writeDocument(doc)
}

func (s *JSONFile) Close() error {
	if s.lock != nil {
		return s.lock.Unlock()
	}
	return nil
}

func (s *JSONFile) readDocument() (map[string][]json.RawMessage, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string][]json.RawMessage{}, nil
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrIO, s.path, err)
	}
	doc := map[string][]json.RawMessage{}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrIO, s.path, err)
	}
	return doc, nil
}

func (s *JSONFile) writeDocument(doc map[string][]json.RawMessage) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode document: %v", ErrIO, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".cookiejar-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", ErrIO, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: write temp file: %v", ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: close temp file: %v", ErrIO, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: replace %s: %v", ErrIO, s.path, err)
	}
	return nil
}
