package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Hrei2/ticket-system/entity"
)

// TicketStore is an in-memory ticket store. MarkScanned is a compare-and-swap
// under the mutex, so it behaves like the conditional UPDATE of the Postgres
// store.
type TicketStore struct {
	mock sync.Mutex

	tickets map[string]entity.Ticket

	// Err, when set, is returned by every call.
	Err error
	// DeleteErr, when set, is returned by Delete only.
	DeleteErr error
	// BeforeMarkScanned runs before the compare-and-swap, outside the lock.
	BeforeMarkScanned func(ticketNumber string)

	MarkScannedCalls int
	UpdateCalls      int
}

func NewTicketStore() *TicketStore {
	return &TicketStore{tickets: make(map[string]entity.Ticket)}
}

func (s *TicketStore) GetByNumber(ctx context.Context, ticketNumber string) (entity.Ticket, error) {
	s.mock.Lock()
	defer s.mock.Unlock()

	if s.Err != nil {
		return entity.Ticket{}, s.Err
	}

	t, ok := s.tickets[ticketNumber]
	if !ok {
		return entity.Ticket{}, entity.ErrNotFound
	}
	return t, nil
}

func (s *TicketStore) Insert(ctx context.Context, ticket entity.Ticket) error {
	s.mock.Lock()
	defer s.mock.Unlock()

	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.tickets[ticket.TicketNumber]; ok {
		return entity.ErrConflict
	}

	s.tickets[ticket.TicketNumber] = ticket
	return nil
}

func (s *TicketStore) MarkScanned(ctx context.Context, ticketNumber, scannedBy string, scannedAt time.Time) (bool, error) {
	if s.BeforeMarkScanned != nil {
		s.BeforeMarkScanned(ticketNumber)
	}

	s.mock.Lock()
	defer s.mock.Unlock()

	s.MarkScannedCalls++

	if s.Err != nil {
		return false, s.Err
	}

	t, ok := s.tickets[ticketNumber]
	if !ok || t.Scanned {
		return false, nil
	}

	t.Scanned = true
	t.ScannedAt = &scannedAt
	t.ScannedBy = &scannedBy
	s.tickets[ticketNumber] = t

	return true, nil
}

func (s *TicketStore) Update(ctx context.Context, ticketNumber string, changes entity.TicketChanges) (entity.Ticket, error) {
	s.mock.Lock()
	defer s.mock.Unlock()

	s.UpdateCalls++

	if s.Err != nil {
		return entity.Ticket{}, s.Err
	}

	t, ok := s.tickets[ticketNumber]
	if !ok {
		return entity.Ticket{}, entity.ErrNotFound
	}

	t = changes.Apply(t)
	s.tickets[ticketNumber] = t
	return t, nil
}

func (s *TicketStore) Delete(ctx context.Context, ticketNumber string) error {
	s.mock.Lock()
	defer s.mock.Unlock()

	if s.Err != nil {
		return s.Err
	}
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	if _, ok := s.tickets[ticketNumber]; !ok {
		return entity.ErrNotFound
	}

	delete(s.tickets, ticketNumber)
	return nil
}

func (s *TicketStore) List(ctx context.Context, filter entity.TicketFilter) ([]entity.Ticket, error) {
	s.mock.Lock()
	defer s.mock.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}

	search := strings.ToLower(filter.Search)

	var tickets []entity.Ticket
	for _, t := range s.tickets {
		if filter.Scanned != nil && t.Scanned != *filter.Scanned {
			continue
		}
		if filter.Class != "" && t.Class != filter.Class {
			continue
		}
		if search != "" && !matchesSearch(t, search) {
			continue
		}
		tickets = append(tickets, t)
	}

	sort.Slice(tickets, func(i, j int) bool {
		if tickets[i].CreatedAt.Equal(tickets[j].CreatedAt) {
			return tickets[i].TicketNumber > tickets[j].TicketNumber
		}
		return tickets[i].CreatedAt.After(tickets[j].CreatedAt)
	})

	return tickets, nil
}

func (s *TicketStore) Statistics(ctx context.Context) (entity.TicketStatistics, error) {
	s.mock.Lock()
	defer s.mock.Unlock()

	if s.Err != nil {
		return entity.TicketStatistics{}, s.Err
	}

	stats := entity.TicketStatistics{Total: len(s.tickets)}
	classes := make(map[string]struct{})
	for _, t := range s.tickets {
		if t.Scanned {
			stats.Scanned++
		} else {
			stats.Pending++
		}
		classes[t.Class] = struct{}{}
	}
	stats.TotalClasses = len(classes)

	return stats, nil
}

// Put stores a ticket as is, bypassing the lifecycle.
func (s *TicketStore) Put(ticket entity.Ticket) {
	s.mock.Lock()
	defer s.mock.Unlock()

	s.tickets[ticket.TicketNumber] = ticket
}

func (s *TicketStore) lookup(ticketNumber string) (entity.Ticket, bool) {
	s.mock.Lock()
	defer s.mock.Unlock()

	t, ok := s.tickets[ticketNumber]
	return t, ok
}

// restore puts back the state captured by lookup.
func (s *TicketStore) restore(ticketNumber string, t entity.Ticket, existed bool) {
	s.mock.Lock()
	defer s.mock.Unlock()

	if existed {
		s.tickets[ticketNumber] = t
	} else {
		delete(s.tickets, ticketNumber)
	}
}

func matchesSearch(t entity.Ticket, search string) bool {
	for _, field := range []string{t.Name, t.Surname, t.Email, t.TicketNumber} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}
