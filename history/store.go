// Package history keeps the bounded, most-recent-first list of completed
// translations.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"node.town/vaani/kv"
)

const (
	// Limit is the maximum number of retained entries.
	Limit = 20
	// Key names the persisted record.
	Key = "vaaniHistory"
)

// Entry is one source/target text pair.
type Entry struct {
	Source string `json:"src"`
	Target string `json:"tgt"`
}

// Store is the in-memory history backed by a kv record. Every mutation
// rewrites the whole list.
type Store struct {
	kv     kv.Store
	logger *log.Logger

	mu      sync.RWMutex
	entries []Entry
}

// Open loads any persisted history. An unreadable record is logged and
// treated as empty rather than failing startup.
func Open(ctx context.Context, store kv.Store, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Store{kv: store, logger: logger}

	data, err := store.Get(ctx, Key)
	if errors.Is(err, kv.ErrNotFound) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		logger.Warn("history record unreadable, starting empty", "error", err)
		return s, nil
	}
	if len(entries) > Limit {
		entries = entries[:Limit]
	}
	s.entries = entries
	return s, nil
}

// Append inserts a pair at the front, evicting the oldest beyond Limit.
func (s *Store) Append(ctx context.Context, source, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]Entry, 0, min(len(s.entries)+1, Limit))
	entries = append(entries, Entry{Source: source, Target: target})
	entries = append(entries, s.entries...)
	if len(entries) > Limit {
		entries = entries[:Limit]
	}

	if err := s.persist(ctx, entries); err != nil {
		return err
	}
	s.entries = entries
	s.logger.Debug("history", "size", len(entries))
	return nil
}

// All returns a copy of the entries, most recent first. It is never nil.
func (s *Store) All() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Entry{}, s.entries...)
}

// Len reports the number of stored entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Clear empties the history and deletes the persisted record.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Remove(ctx, Key); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	s.entries = nil
	return nil
}

func (s *Store) persist(ctx context.Context, entries []Entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := s.kv.Set(ctx, Key, data); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}
