package amqp

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestClient_PublishWithoutConnection(t *testing.T) {
	client := &Client{exchangeName: "test_exchange", queueName: "test_queue"}

	err := client.PublishLedgerChange(context.Background(), NewLedgerChangeMessage(OpTransactionAdded, "a", 1))
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}

	err = client.ConsumeLedgerChanges(context.Background(), func(context.Context, *LedgerChangeMessage) error { return nil })
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected from consume, got %v", err)
	}
}

func TestClient_PublishRespectsContextCancellation(t *testing.T) {
	client := &Client{exchangeName: "test_exchange", queueName: "test_queue"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.PublishLedgerChange(ctx, NewLedgerChangeMessage(OpTransactionRemoved, "a", 0))
	if err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestClient_CloseWithoutConnection(t *testing.T) {
	if err := (&Client{}).Close(); err != nil {
		t.Errorf("Close on unconnected client should not fail: %v", err)
	}
}

func TestNewLedgerChangeMessage(t *testing.T) {
	msg := NewLedgerChangeMessage(OpTransactionAdded, "abc", 3)

	if msg.Op != OpTransactionAdded || msg.TransactionID != "abc" || msg.Count != 3 {
		t.Errorf("unexpected message %+v", msg)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("Timestamp should be recent")
	}
}

func TestLedgerChangeMessage_JSON(t *testing.T) {
	msg := &LedgerChangeMessage{
		Op:            OpTransactionRemoved,
		TransactionID: "abc",
		Count:         7,
		Timestamp:     time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := LedgerChangeMessageFromJSON(body)
	if err != nil {
		t.Fatalf("LedgerChangeMessageFromJSON() error = %v", err)
	}
	if parsed.Op != msg.Op || parsed.TransactionID != msg.TransactionID || parsed.Count != msg.Count {
		t.Errorf("parsed = %+v, want %+v", parsed, msg)
	}
	if !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("parsed Timestamp = %v, want %v", parsed.Timestamp, msg.Timestamp)
	}
}

func TestLedgerChangeMessage_InvalidJSON(t *testing.T) {
	if _, err := LedgerChangeMessageFromJSON([]byte(`{"count": "many"}`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
