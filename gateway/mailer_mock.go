package gateway

import (
	"context"
	"sync"

	"github.com/Hrei2/ticket-system/entity"
)

type SentTicket struct {
	Recipient string
	Ticket    entity.Ticket
}

type MailerMock struct {
	mock sync.Mutex

	Sent []SentTicket
}

func (m *MailerMock) SendTicket(ctx context.Context, recipient string, ticket entity.Ticket) error {
	m.mock.Lock()
	defer m.mock.Unlock()

	m.Sent = append(m.Sent, SentTicket{Recipient: recipient, Ticket: ticket})
	return nil
}

func (m *MailerMock) SentTo(recipient string) []entity.Ticket {
	m.mock.Lock()
	defer m.mock.Unlock()

	var tickets []entity.Ticket
	for _, s := range m.Sent {
		if s.Recipient == recipient {
			tickets = append(tickets, s.Ticket)
		}
	}
	return tickets
}
