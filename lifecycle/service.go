// Package lifecycle orchestrates ticket creation, scanning, edits and deletion.
//
// The service keeps no in-process state. Every coordination between
// concurrent requests goes through atomic store operations, so any number of
// replicas may run side by side.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Hrei2/ticket-system/entity"
	"github.com/Hrei2/ticket-system/metrics"
)

const DefaultStoreTimeout = 5 * time.Second

// TicketStore is the durable ticket storage. MarkScanned is a compare-and-swap:
// it sets the scan fields only if the ticket exists and is still unscanned,
// and reports whether it did.
type TicketStore interface {
	GetByNumber(ctx context.Context, ticketNumber string) (entity.Ticket, error)
	Insert(ctx context.Context, ticket entity.Ticket) error
	MarkScanned(ctx context.Context, ticketNumber, scannedBy string, scannedAt time.Time) (bool, error)
	Update(ctx context.Context, ticketNumber string, changes entity.TicketChanges) (entity.Ticket, error)
	Delete(ctx context.Context, ticketNumber string) error
	List(ctx context.Context, filter entity.TicketFilter) ([]entity.Ticket, error)
	Statistics(ctx context.Context) (entity.TicketStatistics, error)
}

type Allocator interface {
	Allocate(ctx context.Context, year int) (string, error)
}

type HistoryRecorder interface {
	Record(
		ctx context.Context,
		ticketNumber string,
		action entity.HistoryAction,
		oldValue any,
		newValue any,
		actor entity.Actor,
	) (entity.HistoryEntry, error)
}

// Tx holds the ticket store and history recorder bound to one transaction.
type Tx struct {
	Tickets TicketStore
	History HistoryRecorder
}

// Transactor runs fn in a transaction. Everything written through tx commits
// when fn returns nil and is discarded otherwise, so a ticket mutation is never
// stored without its history entry.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type SettingsProvider interface {
	Get(ctx context.Context) (entity.EventSettings, error)
}

// Notifier is fire-and-forget. Its errors are logged and never returned to the
// caller of the lifecycle operation.
type Notifier interface {
	NotifyCreated(ctx context.Context, ticket entity.Ticket) error
	NotifyUpdated(ctx context.Context, ticket entity.Ticket, changes map[string]any) error
}

type Service struct {
	store      TicketStore
	allocator  Allocator
	transactor Transactor
	settings   SettingsProvider
	notifier  Notifier
	clock     clockwork.Clock

	storeTimeout time.Duration
	tracer       trace.Tracer
}

func NewService(
	store TicketStore,
	allocator Allocator,
	transactor Transactor,
	settings SettingsProvider,
	notifier Notifier,
	clock clockwork.Clock,
	storeTimeout time.Duration,
) *Service {
	if store == nil {
		panic("missing ticket store")
	}
	if allocator == nil {
		panic("missing allocator")
	}
	if transactor == nil {
		panic("missing transactor")
	}
	if settings == nil {
		panic("missing settings provider")
	}
	if notifier == nil {
		panic("missing notifier")
	}
	if clock == nil {
		panic("missing clock")
	}
	if storeTimeout <= 0 {
		storeTimeout = DefaultStoreTimeout
	}

	return &Service{
		store:        store,
		allocator:    allocator,
		transactor:   transactor,
		settings:     settings,
		notifier:     notifier,
		clock:        clock,
		storeTimeout: storeTimeout,
		tracer:       otel.Tracer("github.com/Hrei2/ticket-system/lifecycle"),
	}
}

// Get returns a single ticket without any side effect.
func (s *Service) Get(ctx context.Context, ticketNumber string) (entity.Ticket, error) {
	var ticket entity.Ticket
	err := s.withStore(ctx, "get", func(ctx context.Context) error {
		var err error
		ticket, err = s.store.GetByNumber(ctx, ticketNumber)
		return err
	})
	if err != nil {
		return entity.Ticket{}, fmt.Errorf("could not get ticket %s: %w", ticketNumber, err)
	}
	return ticket, nil
}

// List returns tickets matching the filter, newest first.
func (s *Service) List(ctx context.Context, filter entity.TicketFilter) ([]entity.Ticket, error) {
	var tickets []entity.Ticket
	err := s.withStore(ctx, "list", func(ctx context.Context) error {
		var err error
		tickets, err = s.store.List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("could not list tickets: %w", err)
	}
	return tickets, nil
}

func (s *Service) Statistics(ctx context.Context) (entity.TicketStatistics, error) {
	var stats entity.TicketStatistics
	err := s.withStore(ctx, "statistics", func(ctx context.Context) error {
		var err error
		stats, err = s.store.Statistics(ctx)
		return err
	})
	if err != nil {
		return entity.TicketStatistics{}, fmt.Errorf("could not get ticket statistics: %w", err)
	}
	return stats, nil
}

func (s *Service) currentSettings(ctx context.Context) (entity.EventSettings, error) {
	var settings entity.EventSettings
	err := s.withStore(ctx, "settings", func(ctx context.Context) error {
		var err error
		settings, err = s.settings.Get(ctx)
		return err
	})
	return settings, err
}

// inTx runs fn in one transaction bounded by the store timeout.
func (s *Service) inTx(ctx context.Context, operation string, fn func(ctx context.Context, tx Tx) error) error {
	return s.withStore(ctx, operation, func(ctx context.Context) error {
		return s.transactor.InTx(ctx, fn)
	})
}

// withStore bounds a single store call by the store timeout. A call that runs
// out of time is reported as ErrStoreUnavailable.
func (s *Service) withStore(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	metrics.StoreOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())

	if err != nil && errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, entity.ErrStoreUnavailable) {
		return fmt.Errorf("%w: %s timed out: %w", entity.ErrStoreUnavailable, operation, err)
	}
	return err
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// now is truncated to the precision of the store.
func (s *Service) now() time.Time {
	return s.clock.Now().UTC().Truncate(time.Microsecond)
}
