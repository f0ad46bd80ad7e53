// Package ledger owns the persisted transaction sequence.
//
// The whole ledger lives under one storage key as a single JSON array, so
// every mutation is a read-modify-write of the full blob. Store runs all
// operations on one goroutine to keep those sequences from interleaving.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"budgetbuddy/internal/core"
	"budgetbuddy/internal/log"
	"budgetbuddy/internal/storage"
)

// DefaultKey is the storage key the ledger is persisted under.
const DefaultKey = "transactions"

var (
	ErrLoadFailed  = errors.New("ledger load failed")
	ErrDuplicateID = errors.New("duplicate transaction id")
	ErrClosed      = errors.New("ledger store closed")
)

type Option func(*Store)

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger.WithComponent(log.ComponentLedger)
		}
	}
}

type operation struct {
	ctx    context.Context
	run    func(ctx context.Context) error
	result chan error
}

// Store is the single source of truth for the persisted ledger. It keeps
// an owned in-memory copy that is refreshed by every load and mutation.
type Store struct {
	kv     storage.KeyValueStore
	key    string
	logger *log.Logger

	ops       chan operation
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	mu    sync.RWMutex
	cache []core.Transaction
	fresh bool
}

func New(kv storage.KeyValueStore, opts ...Option) *Store {
	s := &Store{
		kv:     kv,
		key:    DefaultKey,
		logger: log.New(log.DefaultConfig()).WithComponent(log.ComponentLedger),
		ops:    make(chan operation),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.loop()
	return s
}

// Key returns the storage key in use.
func (s *Store) Key() string {
	return s.key
}

func (s *Store) loop() {
	defer close(s.done)
	for {
		select {
		case op := <-s.ops:
			// A dequeued operation finishes even if its caller gives up
			op.result <- op.run(context.WithoutCancel(op.ctx))
		case <-s.quit:
			return
		}
	}
}

// do queues fn behind every earlier operation. Once fn has been picked up
// it runs to completion and do waits for it.
func (s *Store) do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	op := operation{ctx: ctx, run: fn, result: make(chan error, 1)}
	select {
	case s.ops <- op:
	case <-s.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-op.result
}

// Load returns the persisted ledger in insertion order, or an empty slice
// when nothing has been stored yet. Read and decode failures wrap
// ErrLoadFailed and are never reported as an empty ledger.
func (s *Store) Load(ctx context.Context) ([]core.Transaction, error) {
	var txs []core.Transaction
	err := s.do(ctx, func(ctx context.Context) error {
		current, err := s.read(ctx)
		if err != nil {
			s.invalidate()
			s.logger.ErrorContext(ctx, "Failed to load ledger",
				log.NewFields().WithOperation(log.OpLoad).WithKey(s.key).WithError(err, errorType(err)).ToSlice()...)
			return err
		}
		s.setCache(current)
		txs = slices.Clone(current)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "Ledger loaded", log.FieldKey, s.key, log.FieldCount, len(txs))
	return txs, nil
}

// Append adds tx at the end of the persisted ledger. The sequence is
// re-read from storage first; if that fails nothing is written.
func (s *Store) Append(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return fmt.Errorf("append transaction: %w", err)
	}

	// Stored dates keep millisecond precision
	tx.Date = tx.Date.UTC().Truncate(time.Millisecond)

	return s.do(ctx, func(ctx context.Context) error {
		current, err := s.read(ctx)
		if err != nil {
			s.invalidate()
			s.logger.ErrorContext(ctx, "Failed to read ledger before append",
				log.NewFields().WithOperation(log.OpAppend).WithKey(s.key).WithError(err, errorType(err)).ToSlice()...)
			return err
		}
		if slices.ContainsFunc(current, func(t core.Transaction) bool { return t.ID == tx.ID }) {
			s.setCache(current)
			return fmt.Errorf("%w: %s", ErrDuplicateID, tx.ID)
		}

		next := append(slices.Clip(current), tx)
		if err := s.write(ctx, next); err != nil {
			s.invalidate()
			s.logger.ErrorContext(ctx, "Failed to write ledger",
				log.NewFields().WithOperation(log.OpAppend).WithKey(s.key).WithError(err, log.ErrorTypeStorage).ToSlice()...)
			return err
		}
		s.setCache(next)

		s.logger.InfoContext(ctx, "Transaction appended",
			log.NewFields().
				WithOperation(log.OpAppend).
				WithTransaction(tx.ID, tx.Name, core.FormatAmount(tx.Amount), tx.Type.String(), tx.Category).
				WithCount(len(next)).
				ToSlice()...)
		return nil
	})
}

// Remove deletes the transaction with the given id. An unknown id is a
// no-op and reports false.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	removed := false
	err := s.do(ctx, func(ctx context.Context) error {
		current, err := s.read(ctx)
		if err != nil {
			s.invalidate()
			s.logger.ErrorContext(ctx, "Failed to read ledger before remove",
				log.NewFields().WithOperation(log.OpRemove).WithKey(s.key).WithError(err, errorType(err)).ToSlice()...)
			return err
		}

		next := slices.DeleteFunc(slices.Clone(current), func(t core.Transaction) bool { return t.ID == id })
		if len(next) == len(current) {
			s.setCache(current)
			s.logger.DebugContext(ctx, "Remove of unknown transaction ignored", log.FieldTransactionID, id)
			return nil
		}

		if err := s.write(ctx, next); err != nil {
			s.invalidate()
			s.logger.ErrorContext(ctx, "Failed to write ledger",
				log.NewFields().WithOperation(log.OpRemove).WithKey(s.key).WithError(err, log.ErrorTypeStorage).ToSlice()...)
			return err
		}
		s.setCache(next)
		removed = true

		s.logger.InfoContext(ctx, "Transaction removed",
			log.FieldOperation, log.OpRemove,
			log.FieldTransactionID, id,
			log.FieldCount, len(next))
		return nil
	})
	return removed, err
}

// Snapshot returns a copy of the in-memory ledger and whether it reflects
// the last successful load or mutation.
func (s *Store) Snapshot() ([]core.Transaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.fresh {
		return nil, false
	}
	return slices.Clone(s.cache), true
}

// Close stops the operation queue. Later calls return ErrClosed.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		close(s.quit)
		<-s.done
	})
	return nil
}

func (s *Store) read(ctx context.Context) ([]core.Transaction, error) {
	b, found, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrLoadFailed, s.key, err)
	}
	if !found {
		return []core.Transaction{}, nil
	}
	txs, err := Decode(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	return txs, nil
}

func (s *Store) write(ctx context.Context, txs []core.Transaction) error {
	b, err := Encode(txs)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, s.key, b); err != nil {
		return fmt.Errorf("write %s: %w", s.key, err)
	}
	return nil
}

func (s *Store) setCache(txs []core.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = slices.Clone(txs)
	s.fresh = true
}

func (s *Store) invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = nil
	s.fresh = false
}

func errorType(err error) string {
	if errors.Is(err, ErrCorrupt) || errors.Is(err, ErrUnsupportedVersion) {
		return log.ErrorTypeCorrupt
	}
	return log.ErrorTypeStorage
}
