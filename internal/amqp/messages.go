package amqp

import (
	"encoding/json"
	"time"
)

// ExpenseRecordedMessage tells the export worker that a new expense row
// exists. It carries only the row ID; the worker reads the full expense
// from the database so the sheet always reflects the stored value.
type ExpenseRecordedMessage struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseRecordedMessage(id int64) *ExpenseRecordedMessage {
	return &ExpenseRecordedMessage{
		ID:        id,
		Timestamp: time.Now(),
	}
}

func (m *ExpenseRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseRecordedMessageFromJSON(data []byte) (*ExpenseRecordedMessage, error) {
	var msg ExpenseRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
