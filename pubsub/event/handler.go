package event

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/components/cqrs"

	"github.com/Hrei2/ticket-system/entity"
)

type Mailer interface {
	SendTicket(ctx context.Context, recipient string, ticket entity.Ticket) error
}

type Webhook interface {
	Post(ctx context.Context, event string, data any) error
}

type Handler struct {
	mailer  Mailer
	webhook Webhook
}

// NewHandler panics without a mailer. The webhook is optional.
func NewHandler(mailer Mailer, webhook Webhook) Handler {
	if mailer == nil {
		panic("missing mailer")
	}

	return Handler{
		mailer:  mailer,
		webhook: webhook,
	}
}

func (h Handler) EventHandlers() []cqrs.EventHandler {
	handlers := []cqrs.EventHandler{
		h.SendIssuedTicketHandler(),
		h.SendTicketToNewOwnerHandler(),
	}

	if h.webhook != nil {
		handlers = append(
			handlers,
			h.PostTicketIssuedWebhookHandler(),
			h.PostOwnerChangedWebhookHandler(),
		)
	}

	return handlers
}
