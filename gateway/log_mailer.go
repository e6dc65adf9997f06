package gateway

import (
	"context"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/sirupsen/logrus"

	"github.com/Hrei2/ticket-system/entity"
)

// LogMailer is used when no SMTP server is configured. It only logs.
type LogMailer struct{}

func (LogMailer) SendTicket(ctx context.Context, recipient string, ticket entity.Ticket) error {
	log.FromContext(ctx).WithFields(logrus.Fields{
		"ticket_number": ticket.TicketNumber,
		"recipient":     recipient,
	}).Warn("SMTP is not configured, ticket email skipped")
	return nil
}
