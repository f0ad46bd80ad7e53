package amqp

import (
	"encoding/json"
	"time"
)

// Ledger change operations
const (
	OpTransactionAdded   = "transaction_added"
	OpTransactionRemoved = "transaction_removed"
)

// LedgerChangeMessage tells listeners that the ledger was rewritten.
// It carries no ledger contents; listeners reload from storage.
type LedgerChangeMessage struct {
	Op            string    `json:"op"`
	TransactionID string    `json:"transaction_id"`
	Count         int       `json:"count"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewLedgerChangeMessage creates a change message stamped with the current time
func NewLedgerChangeMessage(op, transactionID string, count int) *LedgerChangeMessage {
	return &LedgerChangeMessage{
		Op:            op,
		TransactionID: transactionID,
		Count:         count,
		Timestamp:     time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangeMessageFromJSON creates a message from JSON bytes
func LedgerChangeMessageFromJSON(data []byte) (*LedgerChangeMessage, error) {
	var msg LedgerChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
