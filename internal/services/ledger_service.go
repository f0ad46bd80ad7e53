package services

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"budgetbuddy/internal/amqp"
	"budgetbuddy/internal/core"
	"budgetbuddy/internal/ledger"
	"budgetbuddy/internal/log"
)

// Publisher announces ledger changes to other processes.
type Publisher interface {
	PublishLedgerChange(ctx context.Context, msg *amqp.LedgerChangeMessage) error
	Close() error
}

// HomeState tags the outcome of loading the home screen.
type HomeState int

const (
	HomeReady HomeState = iota
	HomeEmpty
	HomeLoadFailed
)

func (s HomeState) String() string {
	switch s {
	case HomeReady:
		return "ready"
	case HomeEmpty:
		return "empty"
	case HomeLoadFailed:
		return "load_failed"
	default:
		return fmt.Sprintf("HomeState(%d)", int(s))
	}
}

// HomeView is everything the home screen renders. Transactions are newest
// first, which is the reverse of insertion order.
type HomeView struct {
	State        HomeState
	Totals       core.Totals
	Transactions []core.Transaction
	Err          error
}

// LedgerService orchestrates ledger operations and change notifications.
type LedgerService struct {
	store     *ledger.Store
	publisher Publisher
	logger    *log.Logger
}

type ServiceOption func(*LedgerService)

func WithServiceLogger(logger *log.Logger) ServiceOption {
	return func(s *LedgerService) {
		if logger != nil {
			s.logger = logger.WithComponent(log.ComponentService)
		}
	}
}

// NewLedgerService wraps store. publisher may be nil, in which case no
// change notifications are sent.
func NewLedgerService(store *ledger.Store, publisher Publisher, opts ...ServiceOption) *LedgerService {
	s := &LedgerService{
		store:     store,
		publisher: publisher,
		logger:    log.New(log.DefaultConfig()).WithComponent(log.ComponentService),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Home loads the ledger for display. A failed load is reported through
// the view's State, never as an empty ledger.
func (s *LedgerService) Home(ctx context.Context) HomeView {
	txs, err := s.store.Load(ctx)
	if err != nil {
		return HomeView{State: HomeLoadFailed, Err: err}
	}

	view := HomeView{
		State:        HomeReady,
		Totals:       core.Summarize(txs),
		Transactions: slices.Clone(txs),
	}
	slices.Reverse(view.Transactions)
	if len(txs) == 0 {
		view.State = HomeEmpty
	}
	return view
}

// AddTransaction validates the draft, appends it and announces the change.
// A *core.ValidationError is returned for incomplete input and nothing is
// written.
func (s *LedgerService) AddTransaction(ctx context.Context, d core.Draft) (core.Transaction, error) {
	tx, err := d.Build(core.NewID)
	if err != nil {
		s.logger.DebugContext(ctx, "Rejected transaction draft",
			log.NewFields().WithOperation(log.OpValidate).WithError(err, log.ErrorTypeValidation).ToSlice()...)
		return core.Transaction{}, err
	}

	if err := s.store.Append(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("add transaction: %w", err)
	}

	s.publish(ctx, amqp.OpTransactionAdded, tx.ID)
	return tx, nil
}

// DeleteTransaction removes the transaction with id. Deleting an unknown id
// succeeds without announcing anything.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id string) error {
	removed, err := s.store.Remove(ctx, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if removed {
		s.publish(ctx, amqp.OpTransactionRemoved, id)
	}
	return nil
}

// Totals reloads the ledger and aggregates it.
func (s *LedgerService) Totals(ctx context.Context) (core.Totals, error) {
	txs, err := s.store.Load(ctx)
	if err != nil {
		return core.Totals{}, err
	}
	return core.Summarize(txs), nil
}

func (s *LedgerService) publish(ctx context.Context, op, id string) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP publisher not configured, skipping change message", log.FieldOperation, op)
		return
	}

	count := 0
	if txs, ok := s.store.Snapshot(); ok {
		count = len(txs)
	}

	// The ledger is already persisted; a lost notification is not an error
	if err := s.publisher.PublishLedgerChange(ctx, amqp.NewLedgerChangeMessage(op, id, count)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish ledger change",
			log.NewFields().WithOperation(log.OpPublish).WithError(err, log.ErrorTypeNetwork).ToSlice()...)
	}
}

// Close closes both the store and the publisher
func (s *LedgerService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %w", errors.Join(errs...))
	}

	return nil
}
