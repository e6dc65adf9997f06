package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/Hrei2/ticket-system/entity"
	"github.com/Hrei2/ticket-system/lifecycle"
)

// Transactor runs transactions over the in-memory store and history. Writes
// made through the tx are undone when fn fails, like a rolled back
// transaction. Transactions are not isolated from each other.
type Transactor struct {
	tickets  *TicketStore
	history  *HistoryRepository
	recorder lifecycle.HistoryRecorder

	mock sync.Mutex

	Commits   int
	Rollbacks int
}

// NewTransactor takes the recorder that appends to history, usually a ledger
// built on the same HistoryRepository.
func NewTransactor(tickets *TicketStore, history *HistoryRepository, recorder lifecycle.HistoryRecorder) *Transactor {
	return &Transactor{tickets: tickets, history: history, recorder: recorder}
}

func (t *Transactor) InTx(ctx context.Context, fn func(ctx context.Context, tx lifecycle.Tx) error) error {
	var undo undoLog

	err := fn(ctx, lifecycle.Tx{
		Tickets: txTicketStore{TicketStore: t.tickets, undo: &undo},
		History: txRecorder{recorder: t.recorder, history: t.history, undo: &undo},
	})
	if err == nil {
		err = ctx.Err()
	}

	t.mock.Lock()
	defer t.mock.Unlock()

	if err != nil {
		undo.rollback()
		t.Rollbacks++
		return err
	}

	t.Commits++
	return nil
}

type undoLog struct {
	mu    sync.Mutex
	steps []func()
}

func (u *undoLog) add(step func()) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.steps = append(u.steps, step)
}

func (u *undoLog) rollback() {
	u.mu.Lock()
	defer u.mu.Unlock()

	for i := len(u.steps) - 1; i >= 0; i-- {
		u.steps[i]()
	}
	u.steps = nil
}

type txTicketStore struct {
	*TicketStore
	undo *undoLog
}

func (s txTicketStore) Insert(ctx context.Context, ticket entity.Ticket) error {
	if err := s.TicketStore.Insert(ctx, ticket); err != nil {
		return err
	}
	s.undo.add(func() { s.restore(ticket.TicketNumber, entity.Ticket{}, false) })
	return nil
}

func (s txTicketStore) MarkScanned(ctx context.Context, ticketNumber, scannedBy string, scannedAt time.Time) (bool, error) {
	prev, existed := s.lookup(ticketNumber)

	won, err := s.TicketStore.MarkScanned(ctx, ticketNumber, scannedBy, scannedAt)
	if err != nil || !won {
		return won, err
	}

	s.undo.add(func() { s.restore(ticketNumber, prev, existed) })
	return true, nil
}

func (s txTicketStore) Update(ctx context.Context, ticketNumber string, changes entity.TicketChanges) (entity.Ticket, error) {
	prev, existed := s.lookup(ticketNumber)

	updated, err := s.TicketStore.Update(ctx, ticketNumber, changes)
	if err != nil {
		return entity.Ticket{}, err
	}
	s.undo.add(func() { s.restore(ticketNumber, prev, existed) })
	return updated, nil
}

func (s txTicketStore) Delete(ctx context.Context, ticketNumber string) error {
	prev, existed := s.lookup(ticketNumber)

	if err := s.TicketStore.Delete(ctx, ticketNumber); err != nil {
		return err
	}
	s.undo.add(func() { s.restore(ticketNumber, prev, existed) })
	return nil
}

type txRecorder struct {
	recorder lifecycle.HistoryRecorder
	history  *HistoryRepository
	undo     *undoLog
}

func (r txRecorder) Record(
	ctx context.Context,
	ticketNumber string,
	action entity.HistoryAction,
	oldValue any,
	newValue any,
	actor entity.Actor,
) (entity.HistoryEntry, error) {
	entry, err := r.recorder.Record(ctx, ticketNumber, action, oldValue, newValue, actor)
	if err != nil {
		return entity.HistoryEntry{}, err
	}
	r.undo.add(func() { r.history.remove(entry.ID) })
	return entry, nil
}
