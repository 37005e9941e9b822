// Package kv provides the small key-value persistence layer used for the
// translation history and user preferences.
package kv

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
)

// ErrNotFound is returned by Get when no record exists for the key.
var ErrNotFound = errors.New("kv: key not found")

// Store is a get/set/remove-by-key collaborator. Values are opaque bytes.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// Options selects and configures a Store implementation.
type Options struct {
	Driver      string // memory, file, sqlite or postgres
	Path        string
	DatabaseURL string
}

// Open builds the store named by opts.Driver.
func Open(ctx context.Context, opts Options, logger *log.Logger) (Store, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	logger.Debug("store", "driver", opts.Driver, "path", opts.Path)
	switch opts.Driver {
	case "", "file":
		return NewFileStore(opts.Path), nil
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return OpenSQLite(ctx, opts.Path)
	case "postgres":
		return OpenPostgres(ctx, opts.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}
