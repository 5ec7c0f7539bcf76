package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// LedgerSavedMessage announces that a user's ledger was replaced. The
// worker reloads the full ledger from the database, so only the owner
// and a record count travel on the wire.
type LedgerSavedMessage struct {
	UserID      string    `json:"userId"`
	RecordCount int       `json:"recordCount"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewLedgerSavedMessage(userID string, recordCount int) *LedgerSavedMessage {
	return &LedgerSavedMessage{
		UserID:      userID,
		RecordCount: recordCount,
		Timestamp:   time.Now().UTC(),
	}
}

func (m *LedgerSavedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerSavedMessageFromJSON decodes a message and rejects ones without an owner.
func LedgerSavedMessageFromJSON(data []byte) (*LedgerSavedMessage, error) {
	var msg LedgerSavedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.UserID == "" {
		return nil, errors.New("message has no user id")
	}
	return &msg, nil
}
