package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"chitieu/internal/core"
	"chitieu/internal/notify"
)

// TransactionCreatedMessage announces a stored transaction. It carries only
// the ID and type; consumers fetch the record themselves.
type TransactionCreatedMessage struct {
	Kind          string               `json:"kind"`
	TransactionID string               `json:"transaction_id"`
	Type          core.TransactionType `json:"type"`
	Timestamp     time.Time            `json:"timestamp"`
}

var ErrInvalidMessage = errors.New("invalid transaction-created message")

func NewTransactionCreatedMessage(e notify.Event) *TransactionCreatedMessage {
	at := e.At
	if at.IsZero() {
		at = time.Now()
	}
	return &TransactionCreatedMessage{
		Kind:          notify.KindTransactionCreated,
		TransactionID: e.TransactionID,
		Type:          e.Type,
		Timestamp:     at,
	}
}

func (m *TransactionCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionCreatedMessageFromJSON decodes and validates a message body.
func TransactionCreatedMessageFromJSON(data []byte) (*TransactionCreatedMessage, error) {
	var msg TransactionCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.TransactionID == "" {
		return nil, fmt.Errorf("%w: missing transaction id", ErrInvalidMessage)
	}
	if !msg.Type.Valid() {
		return nil, fmt.Errorf("%w: type %q", ErrInvalidMessage, msg.Type)
	}
	return &msg, nil
}

// Event converts the message back into an in-process notification.
func (m *TransactionCreatedMessage) Event() notify.Event {
	return notify.TransactionCreated(m.TransactionID, m.Type, m.Timestamp)
}
