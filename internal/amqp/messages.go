package amqp

import (
	"encoding/json"
	"time"
)

// Event types published by the services.
const (
	TransactionCreated = "transaction.created"
	TransactionDeleted = "transaction.deleted"
	TransactionsPurged = "transactions.purged"
	BudgetSaved        = "budget.saved"
)

// Event is a lightweight notification. It carries identifiers only; consumers
// read the current record from the store.
type Event struct {
	Type      string    `json:"type"`
	UserID    string    `json:"user_id"`
	EntityID  string    `json:"entity_id,omitempty"`
	Count     int       `json:"count,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEvent(eventType, userID, entityID string) *Event {
	return &Event{
		Type:      eventType,
		UserID:    userID,
		EntityID:  entityID,
		Timestamp: time.Now().UTC(),
	}
}

func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func EventFromJSON(data []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
