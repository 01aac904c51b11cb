package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AdviceEvent records that a request was answered. It carries no user text or
// amounts, only what is needed to observe query mix and fallback rates.
type AdviceEvent struct {
	ID               string    `json:"id"`
	Endpoint         string    `json:"endpoint"`
	QueryType        string    `json:"query_type"`
	Strategy         string    `json:"strategy"`
	TransactionCount int       `json:"transaction_count"`
	Timestamp        time.Time `json:"timestamp"`
}

// NewAdviceEvent creates an event with a fresh id and the current time
func NewAdviceEvent(endpoint, queryType, strategy string, transactions int) *AdviceEvent {
	return &AdviceEvent{
		ID:               uuid.NewString(),
		Endpoint:         endpoint,
		QueryType:        queryType,
		Strategy:         strategy,
		TransactionCount: transactions,
		Timestamp:        time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *AdviceEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}
