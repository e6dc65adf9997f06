package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Hrei2/ticket-system/eligibility"
	"github.com/Hrei2/ticket-system/entity"
	"github.com/Hrei2/ticket-system/metrics"
)

type scanSnapshot struct {
	Scanned   bool       `json:"is_scanned"`
	ScannedAt *time.Time `json:"scanned_at,omitempty"`
	ScannedBy *string    `json:"scanned_by,omitempty"`
}

// Scan marks the ticket as used. Of any number of concurrent scans of one
// ticket exactly one succeeds, the others get an *entity.AlreadyScannedError
// with the metadata of the winning scan.
func (s *Service) Scan(ctx context.Context, ticketNumber string, actor entity.Actor) (_ entity.ScanResult, err error) {
	ctx, span := s.startSpan(
		ctx,
		"lifecycle.Scan",
		attribute.String("ticket_number", ticketNumber),
		attribute.String("actor", actor.ID),
	)
	defer func() {
		endSpan(span, err)
		metrics.ScanAttempts.WithLabelValues(scanResultLabel(err)).Inc()
	}()

	logger := log.FromContext(ctx).WithFields(logrus.Fields{
		"ticket_number": ticketNumber,
		"actor":         actor.ID,
	})

	ticket, err := s.Get(ctx, ticketNumber)
	if err != nil {
		return entity.ScanResult{}, fmt.Errorf("scan: %w", err)
	}
	if ticket.Scanned {
		return entity.ScanResult{}, fmt.Errorf("scan: %w", entity.NewAlreadyScannedError(ticket))
	}

	// Settings are read before the compare-and-swap, so a scan without
	// settings leaves the ticket unscanned.
	settings, err := s.currentSettings(ctx)
	if err != nil {
		return entity.ScanResult{}, fmt.Errorf("scan: %w", err)
	}
	result, err := eligibility.Classify(ticket, settings)
	if err != nil {
		return entity.ScanResult{}, fmt.Errorf("scan: %w", err)
	}

	scannedAt := s.now()
	ticket.Scanned = true
	ticket.ScannedAt = &scannedAt
	ticket.ScannedBy = &actor.ID

	var won bool
	err = s.inTx(ctx, "mark_scanned", func(ctx context.Context, tx Tx) error {
		var err error
		won, err = tx.Tickets.MarkScanned(ctx, ticketNumber, actor.ID, scannedAt)
		if err != nil || !won {
			return err
		}

		_, err = tx.History.Record(
			ctx,
			ticketNumber,
			entity.ActionScanned,
			scanSnapshot{Scanned: false},
			scanSnapshot{Scanned: true, ScannedAt: ticket.ScannedAt, ScannedBy: ticket.ScannedBy},
			actor,
		)
		return err
	})
	if err != nil {
		return entity.ScanResult{}, fmt.Errorf("scan: could not mark %s as scanned: %w", ticketNumber, err)
	}

	if !won {
		err := s.lostScanRace(ctx, ticketNumber)
		logger.WithError(err).Info("Scan lost to a concurrent scan")
		return entity.ScanResult{}, fmt.Errorf("scan: %w", err)
	}

	result.Ticket = ticket

	logger.WithFields(logrus.Fields{
		"age":       result.Age,
		"age_color": result.AgeColor,
	}).Info("Ticket scanned")

	return result, nil
}

// lostScanRace reads the ticket again after a failed compare-and-swap and
// returns the error describing the state that won.
func (s *Service) lostScanRace(ctx context.Context, ticketNumber string) error {
	current, err := s.Get(ctx, ticketNumber)
	if err != nil {
		return err
	}
	if current.Scanned {
		return entity.NewAlreadyScannedError(current)
	}

	return fmt.Errorf("%w: scan of %s was not applied", entity.ErrStoreUnavailable, ticketNumber)
}

// Preview computes what a scan would show without changing anything.
func (s *Service) Preview(ctx context.Context, ticketNumber string) (_ entity.ScanResult, err error) {
	ctx, span := s.startSpan(ctx, "lifecycle.Preview", attribute.String("ticket_number", ticketNumber))
	defer func() { endSpan(span, err) }()

	ticket, err := s.Get(ctx, ticketNumber)
	if err != nil {
		return entity.ScanResult{}, fmt.Errorf("preview: %w", err)
	}

	settings, err := s.currentSettings(ctx)
	if err != nil {
		return entity.ScanResult{}, fmt.Errorf("preview: %w", err)
	}

	result, err := eligibility.Classify(ticket, settings)
	if err != nil {
		return entity.ScanResult{}, fmt.Errorf("preview: %w", err)
	}
	return result, nil
}

func scanResultLabel(err error) string {
	switch {
	case err == nil:
		return metrics.ScanResultScanned
	case errors.Is(err, entity.ErrAlreadyScanned):
		return metrics.ScanResultAlreadyScanned
	case errors.Is(err, entity.ErrNotFound):
		return metrics.ScanResultNotFound
	default:
		return metrics.ScanResultError
	}
}
