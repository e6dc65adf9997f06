package entity

import (
	"encoding/json"
	"time"
)

type HistoryAction string

// Action tags are persisted, keep them stable.
const (
	ActionCreated HistoryAction = "created"
	ActionUpdated HistoryAction = "updated"
	ActionScanned HistoryAction = "scanned"
	ActionDeleted HistoryAction = "deleted"
)

func (a HistoryAction) Valid() bool {
	switch a {
	case ActionCreated, ActionUpdated, ActionScanned, ActionDeleted:
		return true
	}
	return false
}

// HistoryEntry is an immutable audit record of one ticket mutation.
type HistoryEntry struct {
	ID           int64           `json:"id"`
	TicketNumber string          `json:"ticket_number"`
	Action       HistoryAction   `json:"action"`
	OldValue     json.RawMessage `json:"old_value,omitempty"`
	NewValue     json.RawMessage `json:"new_value,omitempty"`
	ChangedBy    string          `json:"changed_by"`
	ChangedAt    time.Time       `json:"changed_at"`
}
