package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/Hrei2/ticket-system/entity"
)

type HistoryRepository struct {
	mock sync.Mutex

	entries []entity.HistoryEntry
	nextID  int64

	Err error
}

func NewHistoryRepository() *HistoryRepository {
	return &HistoryRepository{}
}

func (r *HistoryRepository) Append(ctx context.Context, entry entity.HistoryEntry) (entity.HistoryEntry, error) {
	r.mock.Lock()
	defer r.mock.Unlock()

	if r.Err != nil {
		return entity.HistoryEntry{}, r.Err
	}

	r.nextID++
	entry.ID = r.nextID
	r.entries = append(r.entries, entry)

	return entry, nil
}

func (r *HistoryRepository) ListByTicket(ctx context.Context, ticketNumber string) ([]entity.HistoryEntry, error) {
	r.mock.Lock()
	defer r.mock.Unlock()

	if r.Err != nil {
		return nil, r.Err
	}

	var entries []entity.HistoryEntry
	for _, e := range r.entries {
		if e.TicketNumber == ticketNumber {
			entries = append(entries, e)
		}
	}
	sortNewestFirst(entries)

	return entries, nil
}

func (r *HistoryRepository) ListAll(ctx context.Context, limit int) ([]entity.HistoryEntry, error) {
	r.mock.Lock()
	defer r.mock.Unlock()

	if r.Err != nil {
		return nil, r.Err
	}

	entries := make([]entity.HistoryEntry, len(r.entries))
	copy(entries, r.entries)
	sortNewestFirst(entries)

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Entries returns every appended entry in insertion order.
func (r *HistoryRepository) Entries() []entity.HistoryEntry {
	r.mock.Lock()
	defer r.mock.Unlock()

	entries := make([]entity.HistoryEntry, len(r.entries))
	copy(entries, r.entries)
	return entries
}

func (r *HistoryRepository) remove(id int64) {
	r.mock.Lock()
	defer r.mock.Unlock()

	for i, e := range r.entries {
		if e.ID == id {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return
		}
	}
}

func sortNewestFirst(entries []entity.HistoryEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].ChangedAt.Equal(entries[j].ChangedAt) {
			return entries[i].ID > entries[j].ID
		}
		return entries[i].ChangedAt.After(entries[j].ChangedAt)
	})
}
