package lifecycle

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Hrei2/ticket-system/entity"
	"github.com/Hrei2/ticket-system/metrics"
)

// Delete records the full ticket in a deleted entry and removes it, both in
// one transaction.
func (s *Service) Delete(ctx context.Context, ticketNumber string, actor entity.Actor) (err error) {
	ctx, span := s.startSpan(
		ctx,
		"lifecycle.Delete",
		attribute.String("ticket_number", ticketNumber),
		attribute.String("actor", actor.ID),
	)
	defer func() { endSpan(span, err) }()

	var ticket entity.Ticket
	err = s.inTx(ctx, "delete", func(ctx context.Context, tx Tx) error {
		var err error
		ticket, err = tx.Tickets.GetByNumber(ctx, ticketNumber)
		if err != nil {
			return err
		}

		if _, err := tx.History.Record(ctx, ticketNumber, entity.ActionDeleted, ticket, nil, actor); err != nil {
			return err
		}

		return tx.Tickets.Delete(ctx, ticketNumber)
	})
	if err != nil {
		return fmt.Errorf("delete: could not delete ticket %s: %w", ticketNumber, err)
	}

	metrics.TicketsDeleted.Inc()

	log.FromContext(ctx).WithFields(logrus.Fields{
		"ticket_number": ticketNumber,
		"actor":         actor.ID,
		"was_scanned":   ticket.Scanned,
	}).Info("Ticket deleted")

	return nil
}
