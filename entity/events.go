package entity

import (
	"time"

	"github.com/google/uuid"
)

type EventHeader struct {
	ID            string    `json:"id"`
	PublishedAt   time.Time `json:"published_at"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

func NewEventHeader() EventHeader {
	return EventHeader{
		ID:          uuid.NewString(),
		PublishedAt: time.Now().UTC(),
	}
}

func NewEventHeaderWithCorrelationID(correlationID string) EventHeader {
	header := NewEventHeader()
	header.CorrelationID = correlationID
	return header
}

type TicketIssued_v1 struct {
	Header EventHeader `json:"header"`
	Ticket Ticket      `json:"ticket"`
}

// TicketOwnerChanged_v1 is published when an admin reassigns the ticket to
// another owner email. Changes holds every field changed by the same edit.
type TicketOwnerChanged_v1 struct {
	Header  EventHeader    `json:"header"`
	Ticket  Ticket         `json:"ticket"`
	Changes map[string]any `json:"changes"`
}
