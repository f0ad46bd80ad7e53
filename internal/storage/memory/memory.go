package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"budgetbuddy/internal/storage"
)

// Store keeps values in process memory. Values are copied on the way in
// and out so callers never share a buffer with the store.
type Store struct {
	mu     sync.RWMutex
	items  map[string][]byte
	closed bool
}

func New() *Store {
	return &Store{items: make(map[string][]byte)}
}

// NewFromFile seeds the store from a JSON object mapping keys to
// JSON values, for example {"transactions": [...]}. A missing file yields
// an empty store.
func NewFromFile(path string) (*Store, error) {
	s := New()
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed map[string]json.RawMessage
	if err := json.Unmarshal(b, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	for k, v := range seed {
		s.items[k] = append([]byte(nil), v...)
	}
	return s, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, false, storage.ErrUnavailable
	}
	v, ok := s.items[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrUnavailable
	}
	s.items[key] = append([]byte(nil), value...)
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrUnavailable
	}
	delete(s.items, key)
	return nil
}

// Keys returns the stored keys in no particular order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	return keys
}

// Close makes every later call fail with storage.ErrUnavailable.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

var _ storage.KeyValueStore = (*Store)(nil)
