package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetbuddy/internal/amqp"
	"budgetbuddy/internal/core"
	"budgetbuddy/internal/log"
)

type fakeSource struct {
	totals      core.Totals
	err         error
	calls       int
	hadDeadline bool
}

func (f *fakeSource) Totals(ctx context.Context) (core.Totals, error) {
	f.calls++
	_, f.hadDeadline = ctx.Deadline()
	return f.totals, f.err
}

type change struct {
	msg    *amqp.LedgerChangeMessage
	totals core.Totals
	err    error
}

func newWorker(src TotalsSource, timeout time.Duration) (*ChangeWorker, *[]change) {
	var seen []change
	w := NewChangeWorker(src, func(msg *amqp.LedgerChangeMessage, totals core.Totals, err error) {
		seen = append(seen, change{msg: msg, totals: totals, err: err})
	}, timeout, log.Discard())
	return w, &seen
}

func TestChangeWorker_HandleChangeMessage(t *testing.T) {
	src := &fakeSource{totals: core.Totals{Balance: decimal.RequireFromString("10"), Count: 2}}
	w, seen := newWorker(src, time.Second)

	msg := amqp.NewLedgerChangeMessage(amqp.OpTransactionAdded, "abc", 2)
	require.NoError(t, w.HandleChangeMessage(context.Background(), msg))

	require.Len(t, *seen, 1)
	got := (*seen)[0]
	assert.Same(t, msg, got.msg)
	assert.NoError(t, got.err)
	assert.Equal(t, 2, got.totals.Count)
	assert.True(t, src.hadDeadline, "reload runs under the worker timeout")
}

func TestChangeWorker_ReloadFailureIsAcked(t *testing.T) {
	loadErr := errors.New("ledger unreadable")
	w, seen := newWorker(&fakeSource{err: loadErr}, 0)

	err := w.HandleChangeMessage(context.Background(), amqp.NewLedgerChangeMessage(amqp.OpTransactionRemoved, "abc", 0))

	assert.NoError(t, err)
	require.Len(t, *seen, 1)
	assert.ErrorIs(t, (*seen)[0].err, loadErr)
}

func TestChangeWorker_UnknownOpStillRefreshes(t *testing.T) {
	src := &fakeSource{}
	w, seen := newWorker(src, 0)

	require.NoError(t, w.HandleChangeMessage(context.Background(), &amqp.LedgerChangeMessage{Op: "renamed"}))

	assert.Equal(t, 1, src.calls)
	assert.Len(t, *seen, 1)
	assert.False(t, src.hadDeadline)
}

func TestChangeWorker_Refresh(t *testing.T) {
	src := &fakeSource{totals: core.Totals{Count: 3}}
	w, seen := newWorker(src, time.Second)

	require.NoError(t, w.Refresh(context.Background()))
	require.Len(t, *seen, 1)
	assert.Nil(t, (*seen)[0].msg)
	assert.Equal(t, 3, (*seen)[0].totals.Count)

	src.err = errors.New("boom")
	assert.Error(t, w.Refresh(context.Background()))
}

func TestNewChangeWorker_NilCallback(t *testing.T) {
	w := NewChangeWorker(&fakeSource{}, nil, 0, nil)
	assert.NoError(t, w.HandleChangeMessage(context.Background(), &amqp.LedgerChangeMessage{Op: amqp.OpTransactionAdded}))
}
