package entity

import (
	"time"
)

type Ticket struct {
	TicketNumber string     `json:"ticket_number" db:"ticket_number"`
	Email        string     `json:"email" db:"email"`
	Name         string     `json:"name" db:"name"`
	Surname      string     `json:"surname" db:"surname"`
	Birthdate    string     `json:"birthdate" db:"birthdate"`
	Class        string     `json:"class" db:"class"`
	OwnerEmail   string     `json:"owner_email" db:"owner_email"`
	CreatedBy    string     `json:"created_by" db:"created_by"`
	Scanned      bool       `json:"is_scanned" db:"is_scanned"`
	ScannedAt    *time.Time `json:"scanned_at,omitempty" db:"scanned_at"`
	ScannedBy    *string    `json:"scanned_by,omitempty" db:"scanned_by"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// NewTicket is the data a seller enters when issuing a ticket.
type NewTicket struct {
	Email     string
	Name      string
	Surname   string
	Birthdate string
	Class     string
}

// TicketChanges holds admin edits. Nil fields are left untouched.
type TicketChanges struct {
	Email      *string
	Name       *string
	Surname    *string
	Birthdate  *string
	Class      *string
	OwnerEmail *string
}

func (c TicketChanges) IsEmpty() bool {
	return c.Email == nil &&
		c.Name == nil &&
		c.Surname == nil &&
		c.Birthdate == nil &&
		c.Class == nil &&
		c.OwnerEmail == nil
}

// ScanResult is what the door sees after a scan or a preview.
type ScanResult struct {
	Ticket             Ticket `json:"ticket"`
	Age                int    `json:"age"`
	AgeColor           string `json:"age_color"`
	FormattedBirthdate string `json:"formatted_birthdate"`
}

type TicketFilter struct {
	Scanned *bool
	Class   string
	Search  string
}

type TicketStatistics struct {
	Total        int `json:"total" db:"total"`
	Scanned      int `json:"scanned" db:"scanned"`
	Pending      int `json:"pending" db:"pending"`
	TotalClasses int `json:"total_classes" db:"total_classes"`
}

// Apply returns a copy of t with the non-nil changes applied.
func (c TicketChanges) Apply(t Ticket) Ticket {
	if c.Email != nil {
		t.Email = *c.Email
	}
	if c.Name != nil {
		t.Name = *c.Name
	}
	if c.Surname != nil {
		t.Surname = *c.Surname
	}
	if c.Birthdate != nil {
		t.Birthdate = *c.Birthdate
	}
	if c.Class != nil {
		t.Class = *c.Class
	}
	if c.OwnerEmail != nil {
		t.OwnerEmail = *c.OwnerEmail
	}
	return t
}
