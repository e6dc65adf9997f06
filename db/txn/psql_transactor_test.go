package txn

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	_ "github.com/lib/pq"
	"github.com/lithammer/shortuuid/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbutils "github.com/Hrei2/ticket-system/db"
	dbHistory "github.com/Hrei2/ticket-system/db/history"
	"github.com/Hrei2/ticket-system/db/tickets"
	"github.com/Hrei2/ticket-system/entity"
	"github.com/Hrei2/ticket-system/lifecycle"
)

func TestMain(m *testing.M) {
	os.Exit(dbutils.RunWithPostgres(m))
}

var seller = entity.Actor{ID: "seller-1", Role: entity.RoleSeller}

func newTicket() entity.Ticket {
	return entity.Ticket{
		TicketNumber: "TKT-2025-" + shortuuid.New()[:12],
		Email:        "jan@example.com",
		Name:         "Jan",
		Surname:      "Kowalski",
		Birthdate:    "040609",
		Class:        "VIP",
		OwnerEmail:   "jan@example.com",
		CreatedBy:    seller.ID,
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

func insertWithHistory(ctx context.Context, tx lifecycle.Tx, ticket entity.Ticket) error {
	if err := tx.Tickets.Insert(ctx, ticket); err != nil {
		return err
	}
	_, err := tx.History.Record(ctx, ticket.TicketNumber, entity.ActionCreated, nil, ticket, seller)
	return err
}

func TestPostgresTransactor_commits(t *testing.T) {
	ctx := context.Background()
	db := dbutils.GetDb(t)
	transactor := NewPostgresTransactor(db, clockwork.NewRealClock())

	ticket := newTicket()
	err := transactor.InTx(ctx, func(ctx context.Context, tx lifecycle.Tx) error {
		return insertWithHistory(ctx, tx, ticket)
	})
	require.NoError(t, err)

	stored, err := tickets.NewPostgresRepository(db).GetByNumber(ctx, ticket.TicketNumber)
	require.NoError(t, err)
	assert.Equal(t, ticket, stored)

	entries, err := dbHistory.NewPostgresRepository(db).ListByTicket(ctx, ticket.TicketNumber)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entity.ActionCreated, entries[0].Action)
}

func TestPostgresTransactor_rolls_back_ticket_and_history(t *testing.T) {
	ctx := context.Background()
	db := dbutils.GetDb(t)
	transactor := NewPostgresTransactor(db, clockwork.NewRealClock())

	ticket := newTicket()
	failure := errors.New("history write failed")

	err := transactor.InTx(ctx, func(ctx context.Context, tx lifecycle.Tx) error {
		if err := insertWithHistory(ctx, tx, ticket); err != nil {
			return err
		}
		return failure
	})
	require.ErrorIs(t, err, failure)

	_, err = tickets.NewPostgresRepository(db).GetByNumber(ctx, ticket.TicketNumber)
	assert.ErrorIs(t, err, entity.ErrNotFound)

	entries, err := dbHistory.NewPostgresRepository(db).ListByTicket(ctx, ticket.TicketNumber)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPostgresTransactor_delete_rolls_back_deleted_entry(t *testing.T) {
	ctx := context.Background()
	db := dbutils.GetDb(t)
	transactor := NewPostgresTransactor(db, clockwork.NewRealClock())

	ticket := newTicket()
	require.NoError(t, transactor.InTx(ctx, func(ctx context.Context, tx lifecycle.Tx) error {
		return insertWithHistory(ctx, tx, ticket)
	}))

	err := transactor.InTx(ctx, func(ctx context.Context, tx lifecycle.Tx) error {
		if _, err := tx.History.Record(ctx, ticket.TicketNumber, entity.ActionDeleted, ticket, nil, seller); err != nil {
			return err
		}
		// unknown number, the delete fails after the entry was written
		return tx.Tickets.Delete(ctx, "TKT-0000-00000")
	})
	require.ErrorIs(t, err, entity.ErrNotFound)

	_, err = tickets.NewPostgresRepository(db).GetByNumber(ctx, ticket.TicketNumber)
	require.NoError(t, err)

	entries, err := dbHistory.NewPostgresRepository(db).ListByTicket(ctx, ticket.TicketNumber)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entity.ActionCreated, entries[0].Action)
}
