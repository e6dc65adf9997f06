package pubsub

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"

	"github.com/Hrei2/ticket-system/entity"
)

// Notifier publishes ticket events. Delivery happens in the event handlers,
// the lifecycle only waits for the publish.
type Notifier struct {
	eventBus *cqrs.EventBus
}

func NewNotifier(eventBus *cqrs.EventBus) *Notifier {
	if eventBus == nil {
		panic("missing eventBus")
	}

	return &Notifier{eventBus: eventBus}
}

func (n *Notifier) NotifyCreated(ctx context.Context, ticket entity.Ticket) error {
	err := n.eventBus.Publish(ctx, entity.TicketIssued_v1{
		Header: entity.NewEventHeaderWithCorrelationID(log.CorrelationIDFromContext(ctx)),
		Ticket: ticket,
	})
	if err != nil {
		return fmt.Errorf("could not publish TicketIssued_v1 for %s: %w", ticket.TicketNumber, err)
	}
	return nil
}

func (n *Notifier) NotifyUpdated(ctx context.Context, ticket entity.Ticket, changes map[string]any) error {
	err := n.eventBus.Publish(ctx, entity.TicketOwnerChanged_v1{
		Header:  entity.NewEventHeaderWithCorrelationID(log.CorrelationIDFromContext(ctx)),
		Ticket:  ticket,
		Changes: changes,
	})
	if err != nil {
		return fmt.Errorf("could not publish TicketOwnerChanged_v1 for %s: %w", ticket.TicketNumber, err)
	}
	return nil
}
