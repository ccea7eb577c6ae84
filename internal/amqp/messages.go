package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ItemEventMessage is a lightweight change notification. It carries only
// identifiers; the backup worker fetches the full item from the store so
// the queue never holds stale payloads.
type ItemEventMessage struct {
	ItemID    uuid.UUID `json:"item_id"`
	OwnerID   string    `json:"owner_id"`
	Action    string    `json:"action"`
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
}

// NewItemEventMessage creates a message for the given change.
func NewItemEventMessage(itemID uuid.UUID, ownerID, action, kind string) *ItemEventMessage {
	return &ItemEventMessage{
		ItemID:    itemID,
		OwnerID:   ownerID,
		Action:    action,
		Kind:      kind,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *ItemEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ItemEventMessageFromJSON creates a message from JSON bytes.
func ItemEventMessageFromJSON(data []byte) (*ItemEventMessage, error) {
	var msg ItemEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
