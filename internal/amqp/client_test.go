package amqp

import (
	"testing"
	"time"
)

func TestNewExpenseRecordedMessage(t *testing.T) {
	msg := NewExpenseRecordedMessage(12345)

	if msg.ID != 12345 {
		t.Errorf("ID = %v, want 12345", msg.ID)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("Timestamp should be recent")
	}
}

func TestExpenseRecordedMessage_JSON(t *testing.T) {
	msg := &ExpenseRecordedMessage{
		ID:        12345,
		Timestamp: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := ExpenseRecordedMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("ExpenseRecordedMessageFromJSON() error = %v", err)
	}

	if parsed.ID != msg.ID {
		t.Errorf("Parsed ID = %v, want %v", parsed.ID, msg.ID)
	}
	if !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Parsed Timestamp = %v, want %v", parsed.Timestamp, msg.Timestamp)
	}
}

func TestExpenseRecordedMessage_InvalidJSON(t *testing.T) {
	_, err := ExpenseRecordedMessageFromJSON([]byte(`{"id": "not_a_number"}`))
	if err == nil {
		t.Error("ExpenseRecordedMessageFromJSON() should fail with invalid JSON")
	}
}
