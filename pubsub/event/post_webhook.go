package event

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/components/cqrs"

	"github.com/Hrei2/ticket-system/entity"
)

const (
	WebhookTicketIssued       = "ticket.issued"
	WebhookTicketOwnerChanged = "ticket.owner_changed"
)

func (h Handler) PostTicketIssuedWebhookHandler() cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"PostTicketIssuedWebhookHandler",
		func(ctx context.Context, event *entity.TicketIssued_v1) error {
			return h.webhook.Post(ctx, WebhookTicketIssued, event.Ticket)
		},
	)
}

func (h Handler) PostOwnerChangedWebhookHandler() cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"PostOwnerChangedWebhookHandler",
		func(ctx context.Context, event *entity.TicketOwnerChanged_v1) error {
			return h.webhook.Post(ctx, WebhookTicketOwnerChanged, map[string]any{
				"ticket":  event.Ticket,
				"changes": event.Changes,
			})
		},
	)
}
