package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"budgetbuddy/internal/storage"
)

func TestMemoryStoreSetGetDelete(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, found, err := s.Get(ctx, "transactions"); err != nil || found {
		t.Fatalf("expected missing key, found=%v err=%v", found, err)
	}

	value := []byte(`[1]`)
	if err := s.Set(ctx, "transactions", value); err != nil {
		t.Fatalf("set: %v", err)
	}
	value[0] = 'x' // caller buffer must not leak into the store

	got, found, err := s.Get(ctx, "transactions")
	if err != nil || !found || string(got) != "[1]" {
		t.Fatalf("unexpected get: %q found=%v err=%v", got, found, err)
	}
	got[0] = 'y'
	again, _, _ := s.Get(ctx, "transactions")
	if string(again) != "[1]" {
		t.Fatalf("returned buffer aliases the store: %q", again)
	}

	if err := s.Delete(ctx, "transactions"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, "transactions"); err != nil {
		t.Fatalf("second delete should be a no-op: %v", err)
	}
	if len(s.Keys()) != 0 {
		t.Fatalf("expected no keys, got %v", s.Keys())
	}
}

func TestMemoryStoreClosed(t *testing.T) {
	s := New()
	_ = s.Close()
	if _, _, err := s.Get(context.Background(), "k"); !errors.Is(err, storage.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if err := s.Set(context.Background(), "k", nil); !errors.Is(err, storage.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestMemoryStoreCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := New().Set(ctx, "k", []byte("v")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()

	// Missing file -> empty store
	s, err := NewFromFile(filepath.Join(dir, "missing.json"))
	if err != nil || len(s.Keys()) != 0 {
		t.Fatalf("expected empty store, keys=%v err=%v", s.Keys(), err)
	}

	path := filepath.Join(dir, "seed.json")
	if err := os.WriteFile(path, []byte(`{"transactions": [{"id": "1"}]}`), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s, err = NewFromFile(path)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	got, found, _ := s.Get(context.Background(), "transactions")
	if !found || string(got) != `[{"id": "1"}]` {
		t.Fatalf("unexpected seeded value %q", got)
	}

	if err := os.WriteFile(path, []byte(`not json`), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	if _, err := NewFromFile(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
