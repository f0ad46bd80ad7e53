package worker

import (
	"context"
	"time"

	"budgetbuddy/internal/amqp"
	"budgetbuddy/internal/core"
	"budgetbuddy/internal/log"
)

// TotalsSource reloads and aggregates the ledger.
type TotalsSource interface {
	Totals(ctx context.Context) (core.Totals, error)
}

// ChangeFunc receives the refreshed totals after a change message; err is
// set when the ledger could not be reloaded. msg is nil for the initial
// refresh.
type ChangeFunc func(msg *amqp.LedgerChangeMessage, totals core.Totals, err error)

// ChangeWorker reacts to ledger change notifications by reloading totals
type ChangeWorker struct {
	source   TotalsSource
	onChange ChangeFunc
	timeout  time.Duration
	logger   *log.Logger
}

func NewChangeWorker(source TotalsSource, onChange ChangeFunc, timeout time.Duration, logger *log.Logger) *ChangeWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if onChange == nil {
		onChange = func(*amqp.LedgerChangeMessage, core.Totals, error) {}
	}
	return &ChangeWorker{
		source:   source,
		onChange: onChange,
		timeout:  timeout,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// Refresh reloads totals and reports them without a triggering message.
func (w *ChangeWorker) Refresh(ctx context.Context) error {
	totals, err := w.load(ctx)
	w.onChange(nil, totals, err)
	return err
}

// HandleChangeMessage processes a single ledger change message from AMQP.
// Reload failures are reported to the callback and logged but never
// returned, so the message is acknowledged rather than requeued.
func (w *ChangeWorker) HandleChangeMessage(ctx context.Context, msg *amqp.LedgerChangeMessage) error {
	w.logger.InfoContext(ctx, "Processing ledger change message",
		log.FieldOperation, msg.Op,
		log.FieldTransactionID, msg.TransactionID,
		log.FieldCount, msg.Count)

	switch msg.Op {
	case amqp.OpTransactionAdded, amqp.OpTransactionRemoved:
	default:
		w.logger.WarnContext(ctx, "Unknown ledger change operation, refreshing anyway", log.FieldOperation, msg.Op)
	}

	totals, err := w.load(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to refresh totals",
			log.NewFields().WithOperation(log.OpLoad).WithError(err, log.ErrorTypeStorage).ToSlice()...)
	}
	w.onChange(msg, totals, err)
	return nil
}

func (w *ChangeWorker) load(ctx context.Context) (core.Totals, error) {
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}
	return w.source.Totals(ctx)
}
