package kv

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists all records in a single JSON object on disk, one
// member per key. Compact JSON values are kept inline, anything else as
// base64.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a JSON-file-backed store. The file and its parent
// directories are created on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

type fileRecord struct {
	JSON  json.RawMessage `json:"json,omitempty"`
	Bytes []byte          `json:"bytes,omitempty"`
}

func encodeRecord(value []byte) fileRecord {
	var compact bytes.Buffer
	if json.Compact(&compact, value) == nil && bytes.Equal(compact.Bytes(), value) {
		return fileRecord{JSON: value}
	}
	return fileRecord{Bytes: value}
}

func (r fileRecord) value() []byte {
	if len(r.JSON) > 0 {
		return r.JSON
	}
	if r.Bytes == nil {
		return []byte{}
	}
	return r.Bytes
}

func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return nil, err
	}
	r, ok := records[key]
	if !ok {
		return nil, ErrNotFound
	}
	return r.value(), nil
}

func (s *FileStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}
	records[key] = encodeRecord(value)
	return s.save(records)
}

func (s *FileStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := records[key]; !ok {
		return nil
	}
	delete(records, key)
	return s.save(records)
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) load() (map[string]fileRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]fileRecord{}, nil
		}
		return nil, fmt.Errorf("read store: %w", err)
	}

	records := map[string]fileRecord{}
	if len(data) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode store %s: %w", s.path, err)
	}
	return records, nil
}

func (s *FileStore) save(records map[string]fileRecord) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	return os.Rename(tmp, s.path)
}
