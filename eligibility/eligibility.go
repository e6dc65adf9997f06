// Package eligibility computes the attendee age at the event date and the
// color used to triage attendees at the door.
package eligibility

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Hrei2/ticket-system/entity"
)

const (
	DefaultColor = "#808080"

	// two-digit years up to this value belong to the 2000s, the rest to the 1900s
	centuryPivot = 25
)

type Birthdate struct {
	Day   int
	Month int
	Year  int
}

// ParseBirthdate decodes a DDMMYY string. Only day and month ranges are
// checked, so dates such as 31 February are accepted.
func ParseBirthdate(value string) (Birthdate, error) {
	if len(value) != 6 {
		return Birthdate{}, entity.NewValidationError("birthdate", "must be in DDMMYY format")
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return Birthdate{}, entity.NewValidationError("birthdate", "must be in DDMMYY format")
		}
	}

	day, _ := strconv.Atoi(value[0:2])
	month, _ := strconv.Atoi(value[2:4])
	yy, _ := strconv.Atoi(value[4:6])

	if day < 1 || day > 31 || month < 1 || month > 12 {
		return Birthdate{}, entity.NewValidationError("birthdate", "invalid day or month")
	}

	year := 1900 + yy
	if yy <= centuryPivot {
		year = 2000 + yy
	}

	return Birthdate{Day: day, Month: month, Year: year}, nil
}

// Format renders the birthdate as DD.MM.YYYY.
func (b Birthdate) Format() string {
	return fmt.Sprintf("%02d.%02d.%04d", b.Day, b.Month, b.Year)
}

// AgeAt returns the number of whole years between the birthdate and the given
// date.
func (b Birthdate) AgeAt(date time.Time) int {
	age := date.Year() - b.Year

	month := int(date.Month())
	if month < b.Month || (month == b.Month && date.Day() < b.Day) {
		age--
	}

	return age
}

func Age(birthdate string, eventDate time.Time) (int, error) {
	b, err := ParseBirthdate(birthdate)
	if err != nil {
		return 0, err
	}
	return b.AgeAt(eventDate), nil
}

// Color returns the color of the first range that contains age. Ranges are
// "min-max" (inclusive) or "min+". Malformed ranges never match.
func Color(age int, ranges entity.ColorRanges) string {
	for _, r := range ranges {
		if rangeContains(r.Range, age) {
			return r.Color
		}
	}
	return DefaultColor
}

func rangeContains(bound string, age int) bool {
	bound = strings.TrimSpace(bound)

	if minText, ok := strings.CutSuffix(bound, "+"); ok {
		minAge, err := strconv.Atoi(strings.TrimSpace(minText))
		if err != nil {
			return false
		}
		return age >= minAge
	}

	minText, maxText, ok := strings.Cut(bound, "-")
	if !ok {
		return false
	}
	minAge, err := strconv.Atoi(strings.TrimSpace(minText))
	if err != nil {
		return false
	}
	maxAge, err := strconv.Atoi(strings.TrimSpace(maxText))
	if err != nil {
		return false
	}

	return age >= minAge && age <= maxAge
}

// Classify computes the age at the event and its color for a ticket.
func Classify(ticket entity.Ticket, settings entity.EventSettings) (entity.ScanResult, error) {
	b, err := ParseBirthdate(ticket.Birthdate)
	if err != nil {
		return entity.ScanResult{}, fmt.Errorf("ticket %s: %w", ticket.TicketNumber, err)
	}

	age := b.AgeAt(settings.EventDate)

	return entity.ScanResult{
		Ticket:             ticket,
		Age:                age,
		AgeColor:           Color(age, settings.AgeColorRanges),
		FormattedBirthdate: b.Format(),
	}, nil
}
