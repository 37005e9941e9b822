package kv

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
)

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*FileStore)(nil)
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
	}

	if err := s.Set(ctx, "vaaniHistory", []byte(`[{"src":"a","tgt":"b"}]`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "vaaniHistory", []byte(`[{"src":"c","tgt":"d"}]`)); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}

	got, err := s.Get(ctx, "vaaniHistory")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `[{"src":"c","tgt":"d"}]` {
		t.Fatalf("Get = %s", got)
	}

	for _, value := range [][]byte{
		{0x00, 0xff, 0xfe, 0x80},
		[]byte("{not-json"),
		[]byte("{ \"spaced\": true }\n"),
	} {
		if err := s.Set(ctx, "opaque", value); err != nil {
			t.Fatalf("Set(%q): %v", value, err)
		}
		got, err := s.Get(ctx, "opaque")
		if err != nil {
			t.Fatalf("Get(opaque): %v", err)
		}
		if !bytes.Equal(got, value) {
			t.Fatalf("Get(opaque) = %q, want %q", got, value)
		}
	}
	if err := s.Remove(ctx, "opaque"); err != nil {
		t.Fatalf("Remove(opaque): %v", err)
	}

	if err := s.Remove(ctx, "vaaniHistory"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := s.Get(ctx, "vaaniHistory"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after Remove error = %v, want ErrNotFound", err)
	}
	if err := s.Remove(ctx, "vaaniHistory"); err != nil {
		t.Fatalf("Remove of absent key: %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	exerciseStore(t, NewFileStore(filepath.Join(t.TempDir(), "nested", "store.json")))
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.json")

	if err := NewFileStore(path).Set(ctx, "k", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := NewFileStore(path).Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `{"a":1}` {
		t.Fatalf("Get = %s", got)
	}
}

func TestFileStoreKeepsJSONReadable(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.json")
	s := NewFileStore(path)

	if err := s.Set(ctx, "vaaniLanguages", []byte(`{"source":"en","target":"hi"}`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Contains(data, []byte(`"source":"en"`)) {
		t.Errorf("expected JSON value inline, got %s", data)
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := NewFileStore(path).Get(context.Background(), "k"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "vaani.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("VAANI_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("VAANI_TEST_DATABASE_URL not set")
	}
	s, err := OpenPostgres(context.Background(), url)
	if err != nil {
		t.Fatalf("OpenPostgres: %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestOpenWithoutLogger(t *testing.T) {
	s, err := Open(context.Background(), Options{Driver: "memory"}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	exerciseStore(t, s)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: "etcd"}, log.New(os.Stderr))
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
