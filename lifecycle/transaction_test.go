package lifecycle_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hrei2/ticket-system/entity"
)

var errHistoryDown = fmt.Errorf("%w: history insert failed", entity.ErrStoreUnavailable)

func TestService_Create_history_failure_persists_nothing(t *testing.T) {
	ctx := context.Background()
	svc, d := newService(t)

	d.history.Err = errHistoryDown

	_, err := svc.Create(ctx, validTicket(), seller)
	require.ErrorIs(t, err, entity.ErrStoreUnavailable)
	assert.True(t, entity.IsRetryable(err))

	stats, err := svc.Statistics(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
	assert.Empty(t, d.notifier.Created)
	assert.Equal(t, 1, d.transactor.Rollbacks)

	d.history.Err = nil

	ticket, err := svc.Create(ctx, validTicket(), seller)
	require.NoError(t, err)

	stats, err = svc.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)

	entries := d.history.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, ticket.TicketNumber, entries[0].TicketNumber)
	assert.Equal(t, entity.ActionCreated, entries[0].Action)
}

func TestService_Scan_history_failure_leaves_ticket_unscanned(t *testing.T) {
	ctx := context.Background()
	svc, d := newService(t)
	configureEvent(t, d)
	ticket := createTicket(t, svc)

	d.history.Err = errHistoryDown

	_, err := svc.Scan(ctx, ticket.TicketNumber, scanner)
	require.ErrorIs(t, err, entity.ErrStoreUnavailable)
	assert.True(t, entity.IsRetryable(err))

	stored, err := svc.Get(ctx, ticket.TicketNumber)
	require.NoError(t, err)
	assert.False(t, stored.Scanned)
	assert.Nil(t, stored.ScannedAt)
	assert.Nil(t, stored.ScannedBy)

	d.history.Err = nil

	result, err := svc.Scan(ctx, ticket.TicketNumber, scanner)
	require.NoError(t, err)
	assert.True(t, result.Ticket.Scanned)

	entries, err := d.history.ListByTicket(ctx, ticket.TicketNumber)
	require.NoError(t, err)
	assert.Equal(t, []entity.HistoryAction{entity.ActionScanned, entity.ActionCreated}, actions(entries))
}

func TestService_Update_history_failure_keeps_ticket(t *testing.T) {
	ctx := context.Background()
	svc, d := newService(t)
	ticket := createTicket(t, svc)

	d.history.Err = errHistoryDown

	_, err := svc.Update(ctx, ticket.TicketNumber, entity.TicketChanges{
		Name: lo.ToPtr("Anna"),
	}, admin)
	require.ErrorIs(t, err, entity.ErrStoreUnavailable)

	stored, err := svc.Get(ctx, ticket.TicketNumber)
	require.NoError(t, err)
	assert.Equal(t, ticket, stored)
	assert.Empty(t, d.notifier.Updated)

	d.history.Err = nil
	assert.Len(t, d.history.Entries(), 1)
}

func TestService_Delete_history_failure_keeps_ticket(t *testing.T) {
	ctx := context.Background()
	svc, d := newService(t)
	ticket := createTicket(t, svc)

	d.history.Err = errHistoryDown

	err := svc.Delete(ctx, ticket.TicketNumber, admin)
	require.ErrorIs(t, err, entity.ErrStoreUnavailable)

	_, err = svc.Get(ctx, ticket.TicketNumber)
	require.NoError(t, err)
}

func TestService_Delete_store_failure_discards_deleted_entry(t *testing.T) {
	ctx := context.Background()
	svc, d := newService(t)
	configureEvent(t, d)
	ticket := createTicket(t, svc)

	d.store.DeleteErr = fmt.Errorf("%w: connection reset", entity.ErrStoreUnavailable)

	err := svc.Delete(ctx, ticket.TicketNumber, admin)
	require.ErrorIs(t, err, entity.ErrStoreUnavailable)

	// the ticket is still live and has no deleted entry
	entries, err := d.history.ListByTicket(ctx, ticket.TicketNumber)
	require.NoError(t, err)
	assert.Equal(t, []entity.HistoryAction{entity.ActionCreated}, actions(entries))

	_, err = svc.Scan(ctx, ticket.TicketNumber, scanner)
	require.NoError(t, err)

	d.store.DeleteErr = nil

	require.NoError(t, svc.Delete(ctx, ticket.TicketNumber, admin))

	entries, err = d.history.ListByTicket(ctx, ticket.TicketNumber)
	require.NoError(t, err)
	assert.Equal(
		t,
		[]entity.HistoryAction{entity.ActionDeleted, entity.ActionScanned, entity.ActionCreated},
		actions(entries),
	)
}
