// Package history is the append-only audit trail of ticket mutations. There is
// no way to change or remove an entry once it is recorded.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/Hrei2/ticket-system/entity"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

type Repository interface {
	Append(ctx context.Context, entry entity.HistoryEntry) (entity.HistoryEntry, error)
	ListByTicket(ctx context.Context, ticketNumber string) ([]entity.HistoryEntry, error)
	ListAll(ctx context.Context, limit int) ([]entity.HistoryEntry, error)
}

type Ledger struct {
	repo  Repository
	clock clockwork.Clock
}

func NewLedger(repo Repository, clock clockwork.Clock) *Ledger {
	if repo == nil {
		panic("missing history repository")
	}
	if clock == nil {
		panic("missing clock")
	}

	return &Ledger{repo: repo, clock: clock}
}

// Record appends an entry. Snapshots are marshalled to JSON, a nil snapshot is
// stored as NULL.
func (l *Ledger) Record(
	ctx context.Context,
	ticketNumber string,
	action entity.HistoryAction,
	oldValue any,
	newValue any,
	actor entity.Actor,
) (entity.HistoryEntry, error) {
	if !action.Valid() {
		return entity.HistoryEntry{}, entity.NewValidationError("action", fmt.Sprintf("unknown history action %q", action))
	}
	if ticketNumber == "" {
		return entity.HistoryEntry{}, entity.NewValidationError("ticket_number", "must not be empty")
	}

	oldJSON, err := snapshot(oldValue)
	if err != nil {
		return entity.HistoryEntry{}, fmt.Errorf("could not marshal old value: %w", err)
	}
	newJSON, err := snapshot(newValue)
	if err != nil {
		return entity.HistoryEntry{}, fmt.Errorf("could not marshal new value: %w", err)
	}

	entry, err := l.repo.Append(ctx, entity.HistoryEntry{
		TicketNumber: ticketNumber,
		Action:       action,
		OldValue:     oldJSON,
		NewValue:     newJSON,
		ChangedBy:    actor.ID,
		ChangedAt:    l.clock.Now().UTC().Truncate(time.Microsecond),
	})
	if err != nil {
		return entity.HistoryEntry{}, fmt.Errorf("could not append %s entry for %s: %w", action, ticketNumber, err)
	}

	log.FromContext(ctx).WithFields(logrus.Fields{
		"ticket_number": ticketNumber,
		"action":        action,
		"actor":         actor.ID,
	}).Debug("History entry recorded")

	return entry, nil
}

// List returns the entries of one ticket, newest first.
func (l *Ledger) List(ctx context.Context, ticketNumber string) ([]entity.HistoryEntry, error) {
	entries, err := l.repo.ListByTicket(ctx, ticketNumber)
	if err != nil {
		return nil, fmt.Errorf("could not list history of %s: %w", ticketNumber, err)
	}
	return entries, nil
}

// ListAll returns the latest entries across all tickets, newest first. A
// non-positive limit means DefaultListLimit.
func (l *Ledger) ListAll(ctx context.Context, limit int) ([]entity.HistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	entries, err := l.repo.ListAll(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("could not list history: %w", err)
	}
	return entries, nil
}

func snapshot(value any) (json.RawMessage, error) {
	if value == nil {
		return nil, nil
	}
	if raw, ok := value.(json.RawMessage); ok {
		return raw, nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return data, nil
}
