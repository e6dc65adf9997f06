package event

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"

	"github.com/Hrei2/ticket-system/entity"
)

func (h Handler) SendIssuedTicketHandler() cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"SendIssuedTicketHandler",
		func(ctx context.Context, event *entity.TicketIssued_v1) error {
			log.FromContext(ctx).WithField("ticket_number", event.Ticket.TicketNumber).Info("Sending ticket to owner")

			err := h.mailer.SendTicket(ctx, event.Ticket.OwnerEmail, event.Ticket)
			if err != nil {
				return fmt.Errorf("failed to send ticket %s: %w", event.Ticket.TicketNumber, err)
			}

			return nil
		},
	)
}

func (h Handler) SendTicketToNewOwnerHandler() cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"SendTicketToNewOwnerHandler",
		func(ctx context.Context, event *entity.TicketOwnerChanged_v1) error {
			log.FromContext(ctx).WithField("ticket_number", event.Ticket.TicketNumber).Info("Sending ticket to new owner")

			err := h.mailer.SendTicket(ctx, event.Ticket.OwnerEmail, event.Ticket)
			if err != nil {
				return fmt.Errorf("failed to send ticket %s to new owner: %w", event.Ticket.TicketNumber, err)
			}

			return nil
		},
	)
}
