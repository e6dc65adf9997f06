// Package numbering hands out ticket numbers in the TKT-YYYY-NNNNN format.
package numbering

import (
	"context"
	"fmt"
	"regexp"

	"github.com/Hrei2/ticket-system/entity"
)

var ticketNumberPattern = regexp.MustCompile(`^TKT-\d{4}-\d{5,}$`)

// Sequence is an atomically incrementing counter, one per year. Next must
// increment and read in a single operation.
type Sequence interface {
	Next(ctx context.Context, year int) (int64, error)
}

type Allocator struct {
	sequence Sequence
}

func NewAllocator(sequence Sequence) *Allocator {
	if sequence == nil {
		panic("missing sequence")
	}

	return &Allocator{sequence: sequence}
}

func (a *Allocator) Allocate(ctx context.Context, year int) (string, error) {
	value, err := a.sequence.Next(ctx, year)
	if err != nil {
		return "", fmt.Errorf("%w: %w", entity.ErrAllocation, err)
	}
	if value < 1 {
		return "", fmt.Errorf("%w: sequence returned %d", entity.ErrAllocation, value)
	}

	return Format(year, value), nil
}

func Format(year int, sequence int64) string {
	return fmt.Sprintf("TKT-%04d-%05d", year, sequence)
}

func IsTicketNumber(value string) bool {
	return ticketNumberPattern.MatchString(value)
}
