package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"budgetbuddy/internal/core"
)

// DateLayout matches JavaScript's Date.toISOString output. Dates with
// sub-millisecond precision are written as RFC 3339 with nanoseconds instead.
const DateLayout = "2006-01-02T15:04:05.000Z07:00"

var (
	ErrCorrupt            = errors.New("corrupt ledger data")
	ErrUnsupportedVersion = errors.New("unsupported ledger format version")
)

// record is the persisted shape of one transaction. Version 1 of the
// format is a bare JSON array of records; any later version must be an
// object envelope so Decode can tell the two apart.
type record struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Amount   json.Number `json:"amount"`
	Category string      `json:"category"`
	Type     string      `json:"type"`
	Icon     string      `json:"icon,omitempty"`
	Date     string      `json:"date"`
}

type envelope struct {
	Version int `json:"version"`
}

// Encode serializes the whole ledger as a JSON array.
func Encode(txs []core.Transaction) ([]byte, error) {
	records := make([]record, len(txs))
	for i, tx := range txs {
		records[i] = record{
			ID:       tx.ID,
			Name:     tx.Name,
			Amount:   json.Number(tx.Amount.String()),
			Category: tx.Category,
			Type:     tx.Type.String(),
			Icon:     tx.Icon,
			Date:     formatDate(tx.Date),
		}
	}
	b, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encode ledger: %w", err)
	}
	return b, nil
}

// Decode parses a persisted ledger. An empty blob or JSON null is an
// empty ledger.
func Decode(b []byte) ([]core.Transaction, error) {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []core.Transaction{}, nil
	}

	if trimmed[0] == '{' {
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, env.Version)
	}

	var records []record
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	txs := make([]core.Transaction, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for i, r := range records {
		tx, err := r.transaction()
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrCorrupt, i, err)
		}
		if _, dup := seen[tx.ID]; dup {
			return nil, fmt.Errorf("%w: entry %d: duplicate id %q", ErrCorrupt, i, tx.ID)
		}
		seen[tx.ID] = struct{}{}
		txs = append(txs, tx)
	}
	return txs, nil
}

func (r record) transaction() (core.Transaction, error) {
	if r.ID == "" {
		return core.Transaction{}, core.ErrEmptyID
	}
	amount, err := decimal.NewFromString(r.Amount.String())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("amount %q: %w", r.Amount, err)
	}
	if !amount.IsPositive() {
		return core.Transaction{}, fmt.Errorf("amount %s: %w", amount, core.ErrInvalidAmount)
	}
	typ := core.TransactionType(r.Type)
	if !typ.IsValid() {
		return core.Transaction{}, fmt.Errorf("type %q: %w", r.Type, core.ErrInvalidType)
	}
	if r.Date == "" {
		return core.Transaction{}, core.ErrInvalidDate
	}
	date, err := time.Parse(time.RFC3339Nano, r.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("date %q: %w", r.Date, err)
	}
	// Category is not checked against the type's category set.
	return core.Transaction{
		ID:       r.ID,
		Name:     r.Name,
		Amount:   amount,
		Category: r.Category,
		Type:     typ,
		Icon:     r.Icon,
		Date:     date.UTC(),
	}, nil
}

func formatDate(t time.Time) string {
	t = t.UTC()
	if t.Nanosecond()%int(time.Millisecond) != 0 {
		return t.Format(time.RFC3339Nano)
	}
	return t.Format(DateLayout)
}
