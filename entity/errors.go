package entity

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
	ErrAlreadyScanned   = errors.New("ticket already scanned")
	ErrAllocation       = errors.New("ticket number allocation failed")
	ErrSettingsMissing  = errors.New("event settings not configured")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrConflict         = errors.New("conflict")
)

type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// AlreadyScannedError carries the scan that won, so the door can show who
// scanned the ticket and when.
type AlreadyScannedError struct {
	TicketNumber string
	ScannedAt    time.Time
	ScannedBy    string
}

func (e *AlreadyScannedError) Error() string {
	return fmt.Sprintf(
		"ticket %s already scanned at %s by %s",
		e.TicketNumber,
		e.ScannedAt.Format(time.RFC3339),
		e.ScannedBy,
	)
}

func (e *AlreadyScannedError) Is(target error) bool {
	return target == ErrAlreadyScanned
}

func NewAlreadyScannedError(t Ticket) *AlreadyScannedError {
	err := &AlreadyScannedError{TicketNumber: t.TicketNumber}
	if t.ScannedAt != nil {
		err.ScannedAt = *t.ScannedAt
	}
	if t.ScannedBy != nil {
		err.ScannedBy = *t.ScannedBy
	}
	return err
}

// IsRetryable reports whether the caller may safely retry the operation.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrAllocation)
}
