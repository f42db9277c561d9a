package store

import (
	"time"
)

// Store is the persistence interface for the message history.
// Defined at the consumer side per Go conventions.
type Store interface {
	AddMessage(m *MessageRecord) error
	ListMessages(f MessageFilter) ([]MessageRecord, error)

	// Cleanup deletes messages created before the given time and returns
	// how many were removed.
	Cleanup(before time.Time) (int64, error)
	Close() error
}

// MessageRecord is one message that went out to a peer and its listeners.
type MessageRecord struct {
	ID         string    `json:"id"`
	Device     string    `json:"device"`
	Body       string    `json:"message"`
	DistanceCM *int      `json:"distance,omitempty"` // nil when the body carried no distance
	Zone       string    `json:"zone,omitempty"`     // empty when the body carried no zone
	CreatedAt  time.Time `json:"created_at"`
}

// MessageFilter specifies criteria for listing messages.
type MessageFilter struct {
	Device string
	Zone   string
	Since  time.Time
	Limit  int
}
