package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Hrei2/ticket-system/eligibility"
	"github.com/Hrei2/ticket-system/entity"
	"github.com/Hrei2/ticket-system/metrics"
)

// Create validates the seller input, allocates a number and stores the ticket.
// Nothing is allocated or persisted for invalid input.
func (s *Service) Create(ctx context.Context, data entity.NewTicket, actor entity.Actor) (_ entity.Ticket, err error) {
	ctx, span := s.startSpan(ctx, "lifecycle.Create", attribute.String("actor", actor.ID))
	defer func() { endSpan(span, err) }()

	data, err = normalizeNewTicket(data)
	if err != nil {
		return entity.Ticket{}, fmt.Errorf("create: %w", err)
	}

	if err := s.checkClassAllowed(ctx, data.Class); err != nil {
		return entity.Ticket{}, fmt.Errorf("create: %w", err)
	}

	now := s.now()

	var ticketNumber string
	err = s.withStore(ctx, "allocate", func(ctx context.Context) error {
		var err error
		ticketNumber, err = s.allocator.Allocate(ctx, now.Year())
		return err
	})
	if err != nil {
		return entity.Ticket{}, fmt.Errorf("create: %w", err)
	}
	span.SetAttributes(attribute.String("ticket_number", ticketNumber))

	ticket := entity.Ticket{
		TicketNumber: ticketNumber,
		Email:        data.Email,
		Name:         data.Name,
		Surname:      data.Surname,
		Birthdate:    data.Birthdate,
		Class:        data.Class,
		OwnerEmail:   data.Email,
		CreatedBy:    actor.ID,
		CreatedAt:    now,
	}

	err = s.inTx(ctx, "insert", func(ctx context.Context, tx Tx) error {
		if err := tx.Tickets.Insert(ctx, ticket); err != nil {
			return err
		}
		_, err := tx.History.Record(ctx, ticketNumber, entity.ActionCreated, nil, ticket, actor)
		return err
	})
	if errors.Is(err, entity.ErrConflict) {
		return entity.Ticket{}, fmt.Errorf("create: %w: number %s is already taken", entity.ErrAllocation, ticketNumber)
	}
	if err != nil {
		return entity.Ticket{}, fmt.Errorf("create: could not store ticket %s: %w", ticketNumber, err)
	}

	metrics.TicketsCreated.Inc()

	logger := log.FromContext(ctx).WithFields(logrus.Fields{
		"ticket_number": ticketNumber,
		"actor":         actor.ID,
		"class":         ticket.Class,
	})
	logger.Info("Ticket created")

	if err := s.notifier.NotifyCreated(ctx, ticket); err != nil {
		metrics.NotificationFailures.WithLabelValues("created").Inc()
		logger.WithError(err).Error("Could not send ticket notification")
	}

	return ticket, nil
}

// checkClassAllowed enforces the allowed classes of the active settings. With
// no settings or an empty list every class is allowed.
func (s *Service) checkClassAllowed(ctx context.Context, class string) error {
	settings, err := s.currentSettings(ctx)
	if errors.Is(err, entity.ErrSettingsMissing) {
		return nil
	}
	if err != nil {
		return err
	}

	if len(settings.AllowedClasses) > 0 && !lo.Contains(settings.AllowedClasses, class) {
		return entity.NewValidationError("class", fmt.Sprintf("must be one of %s", strings.Join(settings.AllowedClasses, ", ")))
	}
	return nil
}

func normalizeNewTicket(data entity.NewTicket) (entity.NewTicket, error) {
	data.Email = strings.TrimSpace(data.Email)
	data.Name = strings.TrimSpace(data.Name)
	data.Surname = strings.TrimSpace(data.Surname)
	data.Birthdate = strings.TrimSpace(data.Birthdate)
	data.Class = strings.TrimSpace(data.Class)

	if err := validateEmail("email", data.Email); err != nil {
		return entity.NewTicket{}, err
	}
	if data.Name == "" {
		return entity.NewTicket{}, entity.NewValidationError("name", "is required")
	}
	if data.Surname == "" {
		return entity.NewTicket{}, entity.NewValidationError("surname", "is required")
	}
	if data.Class == "" {
		return entity.NewTicket{}, entity.NewValidationError("class", "is required")
	}
	if _, err := eligibility.ParseBirthdate(data.Birthdate); err != nil {
		return entity.NewTicket{}, err
	}

	return data, nil
}

func validateEmail(field, value string) error {
	if value == "" {
		return entity.NewValidationError(field, "is required")
	}
	if _, err := mail.ParseAddress(value); err != nil {
		return entity.NewValidationError(field, "is not a valid email address")
	}
	return nil
}
