package mocks

import (
	"context"
	"sync"

	"github.com/Hrei2/ticket-system/entity"
)

type Notifier struct {
	mock sync.Mutex

	Created []entity.Ticket
	Updated []NotifiedUpdate

	Err error
}

type NotifiedUpdate struct {
	Ticket  entity.Ticket
	Changes map[string]any
}

func (n *Notifier) NotifyCreated(ctx context.Context, ticket entity.Ticket) error {
	n.mock.Lock()
	defer n.mock.Unlock()

	n.Created = append(n.Created, ticket)
	return n.Err
}

func (n *Notifier) NotifyUpdated(ctx context.Context, ticket entity.Ticket, changes map[string]any) error {
	n.mock.Lock()
	defer n.mock.Unlock()

	n.Updated = append(n.Updated, NotifiedUpdate{Ticket: ticket, Changes: changes})
	return n.Err
}

func (n *Notifier) CreatedCount() int {
	n.mock.Lock()
	defer n.mock.Unlock()

	return len(n.Created)
}

func (n *Notifier) UpdatedCount() int {
	n.mock.Lock()
	defer n.mock.Unlock()

	return len(n.Updated)
}
