package amqp

import (
	"encoding/json"
	"time"
)

// Routing keys on the subscription exchange. Sync carries upserts, delete
// carries removals; the worker dispatches on the delivery's routing key.
const (
	RoutingKeySync   = "sync"
	RoutingKeyDelete = "delete"
)

// SubscriptionSyncMessage tells the backup worker that a subscription was
// created or updated. It carries only the id and version; the worker
// fetches the full record from storage.
type SubscriptionSyncMessage struct {
	ID        string    `json:"id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func NewSubscriptionSyncMessage(id string, version int64) *SubscriptionSyncMessage {
	return &SubscriptionSyncMessage{
		ID:        id,
		Version:   version,
		Timestamp: time.Now(),
	}
}

func (m *SubscriptionSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SubscriptionSyncMessageFromJSON(data []byte) (*SubscriptionSyncMessage, error) {
	var msg SubscriptionSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// SubscriptionDeleteMessage tells the backup worker to remove a
// subscription's row from the backup sheet.
type SubscriptionDeleteMessage struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewSubscriptionDeleteMessage(id string) *SubscriptionDeleteMessage {
	return &SubscriptionDeleteMessage{
		ID:        id,
		Timestamp: time.Now(),
	}
}

func (m *SubscriptionDeleteMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SubscriptionDeleteMessageFromJSON(data []byte) (*SubscriptionDeleteMessage, error) {
	var msg SubscriptionDeleteMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
