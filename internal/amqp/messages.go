package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EntryPostedMessage announces that a ledger entry was committed.
// It carries only the entry id; the worker fetches the full entry from
// the store, so a stale message can never mirror stale data.
type EntryPostedMessage struct {
	EntryID   int64     `json:"entry_id"`
	MessageID string    `json:"message_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEntryPostedMessage(entryID int64) *EntryPostedMessage {
	return &EntryPostedMessage{
		EntryID:   entryID,
		MessageID: uuid.NewString(),
		Timestamp: time.Now().UTC(),
	}
}

func (m *EntryPostedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func EntryPostedMessageFromJSON(data []byte) (*EntryPostedMessage, error) {
	var msg EntryPostedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
