package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Hrei2/ticket-system/eligibility"
	"github.com/Hrei2/ticket-system/entity"
	"github.com/Hrei2/ticket-system/metrics"
)

// Update applies admin edits. Only fields whose value actually changes are
// written and recorded; an edit that changes nothing leaves no history entry.
func (s *Service) Update(
	ctx context.Context,
	ticketNumber string,
	changes entity.TicketChanges,
	actor entity.Actor,
) (_ entity.Ticket, err error) {
	ctx, span := s.startSpan(
		ctx,
		"lifecycle.Update",
		attribute.String("ticket_number", ticketNumber),
		attribute.String("actor", actor.ID),
	)
	defer func() { endSpan(span, err) }()

	changes, err = normalizeChanges(changes)
	if err != nil {
		return entity.Ticket{}, fmt.Errorf("update: %w", err)
	}

	var (
		updated entity.Ticket
		diff    map[string]any
	)
	err = s.inTx(ctx, "update", func(ctx context.Context, tx Tx) error {
		current, err := tx.Tickets.GetByNumber(ctx, ticketNumber)
		if err != nil {
			return err
		}

		var changed entity.TicketChanges
		changed, diff = Diff(current, changes)
		if len(diff) == 0 {
			updated = current
			return nil
		}

		updated, err = tx.Tickets.Update(ctx, ticketNumber, changed)
		if err != nil {
			return err
		}

		_, err = tx.History.Record(ctx, ticketNumber, entity.ActionUpdated, current, diff, actor)
		return err
	})
	if err != nil {
		return entity.Ticket{}, fmt.Errorf("update: could not update ticket %s: %w", ticketNumber, err)
	}
	if len(diff) == 0 {
		return updated, nil
	}
	span.SetAttributes(attribute.StringSlice("changed_fields", lo.Keys(diff)))

	metrics.TicketsUpdated.Inc()

	logger := log.FromContext(ctx).WithFields(logrus.Fields{
		"ticket_number": ticketNumber,
		"actor":         actor.ID,
		"changes":       diff,
	})
	logger.Info("Ticket updated")

	if _, ok := diff[FieldOwnerEmail]; ok {
		if err := s.notifier.NotifyUpdated(ctx, updated, diff); err != nil {
			metrics.NotificationFailures.WithLabelValues("owner_changed").Inc()
			logger.WithError(err).Error("Could not send owner change notification")
		}
	}

	return updated, nil
}

// Field names used as keys of an update diff. They match the JSON and column
// names of the ticket.
const (
	FieldEmail      = "email"
	FieldName       = "name"
	FieldSurname    = "surname"
	FieldBirthdate  = "birthdate"
	FieldClass      = "class"
	FieldOwnerEmail = "owner_email"
)

// Diff keeps only the changes that differ from the current ticket. It returns
// them both as TicketChanges and as a field name to new value map.
func Diff(current entity.Ticket, changes entity.TicketChanges) (entity.TicketChanges, map[string]any) {
	var changed entity.TicketChanges
	diff := make(map[string]any)

	keep := func(field string, proposed *string, currentValue string, dst **string) {
		if proposed == nil || *proposed == currentValue {
			return
		}
		value := *proposed
		*dst = &value
		diff[field] = value
	}

	keep(FieldEmail, changes.Email, current.Email, &changed.Email)
	keep(FieldName, changes.Name, current.Name, &changed.Name)
	keep(FieldSurname, changes.Surname, current.Surname, &changed.Surname)
	keep(FieldBirthdate, changes.Birthdate, current.Birthdate, &changed.Birthdate)
	keep(FieldClass, changes.Class, current.Class, &changed.Class)
	keep(FieldOwnerEmail, changes.OwnerEmail, current.OwnerEmail, &changed.OwnerEmail)

	return changed, diff
}

func normalizeChanges(changes entity.TicketChanges) (entity.TicketChanges, error) {
	trim := func(v *string) *string {
		if v == nil {
			return nil
		}
		return lo.ToPtr(strings.TrimSpace(*v))
	}

	changes = entity.TicketChanges{
		Email:      trim(changes.Email),
		Name:       trim(changes.Name),
		Surname:    trim(changes.Surname),
		Birthdate:  trim(changes.Birthdate),
		Class:      trim(changes.Class),
		OwnerEmail: trim(changes.OwnerEmail),
	}

	if changes.Email != nil {
		if err := validateEmail(FieldEmail, *changes.Email); err != nil {
			return entity.TicketChanges{}, err
		}
	}
	if changes.OwnerEmail != nil {
		if err := validateEmail(FieldOwnerEmail, *changes.OwnerEmail); err != nil {
			return entity.TicketChanges{}, err
		}
	}
	for field, v := range map[string]*string{
		FieldName:    changes.Name,
		FieldSurname: changes.Surname,
		FieldClass:   changes.Class,
	} {
		if v != nil && *v == "" {
			return entity.TicketChanges{}, entity.NewValidationError(field, "must not be empty")
		}
	}
	if changes.Birthdate != nil {
		if _, err := eligibility.ParseBirthdate(*changes.Birthdate); err != nil {
			return entity.TicketChanges{}, err
		}
	}

	return changes, nil
}
