package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"gopkg.in/gomail.v2"

	"github.com/Hrei2/ticket-system/entity"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends tickets by email with the QR code attached.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(config SMTPConfig) *SMTPMailer {
	if config.Host == "" {
		panic("missing SMTP host")
	}
	if config.From == "" {
		panic("missing SMTP sender address")
	}

	return &SMTPMailer{
		dialer: gomail.NewDialer(config.Host, config.Port, config.Username, config.Password),
		from:   config.From,
	}
}

func (m *SMTPMailer) SendTicket(ctx context.Context, recipient string, ticket entity.Ticket) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := newTicketMessage(m.from, recipient, ticket)
	if err != nil {
		return err
	}

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("could not send ticket %s to %s: %w", ticket.TicketNumber, recipient, err)
	}

	log.FromContext(ctx).WithField("ticket_number", ticket.TicketNumber).Info("Ticket email sent")

	return nil
}

func newTicketMessage(from, recipient string, ticket entity.Ticket) (*gomail.Message, error) {
	qr, err := TicketQRCode(ticket.TicketNumber, DefaultQRCodeSize)
	if err != nil {
		return nil, err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", recipient)
	m.SetHeader("Subject", "Your ticket "+ticket.TicketNumber)
	m.SetBody("text/plain", ticketEmailBody(ticket))

	filename := fmt.Sprintf("ticket-%s.png", ticket.TicketNumber)
	m.Attach(filename, gomail.Rename(filename), gomail.SetCopyFunc(func(w io.Writer) error {
		_, err := io.Copy(w, bytes.NewReader(qr))
		return err
	}))

	return m, nil
}

func ticketEmailBody(ticket entity.Ticket) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s %s,\n\n", ticket.Name, ticket.Surname)
	fmt.Fprintf(&b, "your ticket number is %s (class %s).\n", ticket.TicketNumber, ticket.Class)
	b.WriteString("Show the attached QR code at the entrance.\n")
	return b.String()
}
