package history_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hrei2/ticket-system/entity"
	"github.com/Hrei2/ticket-system/history"
	"github.com/Hrei2/ticket-system/mocks"
)

var admin = entity.Actor{ID: "admin-1", Role: entity.RoleAdmin}

func TestLedger_Record(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	repo := mocks.NewHistoryRepository()
	ledger := history.NewLedger(repo, clock)

	entry, err := ledger.Record(
		ctx,
		"TKT-2025-00001",
		entity.ActionUpdated,
		map[string]any{"name": "Jan"},
		map[string]any{"name": "Janek"},
		admin,
	)
	require.NoError(t, err)

	assert.Equal(t, int64(1), entry.ID)
	assert.Equal(t, entity.ActionUpdated, entry.Action)
	assert.Equal(t, "admin-1", entry.ChangedBy)
	assert.Equal(t, clock.Now(), entry.ChangedAt)
	assert.JSONEq(t, `{"name":"Jan"}`, string(entry.OldValue))
	assert.JSONEq(t, `{"name":"Janek"}`, string(entry.NewValue))
}

func TestLedger_Record_truncates_to_microseconds(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 123456789, time.UTC))
	ledger := history.NewLedger(mocks.NewHistoryRepository(), clock)

	entry, err := ledger.Record(context.Background(), "TKT-2025-00001", entity.ActionCreated, nil, entity.Ticket{}, admin)
	require.NoError(t, err)

	// the stored entry must round-trip through a timestamptz column unchanged
	assert.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 123456000, time.UTC), entry.ChangedAt)
}

func TestLedger_Record_nil_snapshot(t *testing.T) {
	ledger := history.NewLedger(mocks.NewHistoryRepository(), clockwork.NewFakeClock())

	entry, err := ledger.Record(context.Background(), "TKT-2025-00001", entity.ActionDeleted, entity.Ticket{}, nil, admin)
	require.NoError(t, err)

	assert.NotEmpty(t, entry.OldValue)
	assert.Nil(t, entry.NewValue)
}

func TestLedger_Record_rejects_unknown_action(t *testing.T) {
	repo := mocks.NewHistoryRepository()
	ledger := history.NewLedger(repo, clockwork.NewFakeClock())

	_, err := ledger.Record(context.Background(), "TKT-2025-00001", entity.HistoryAction("renamed"), nil, nil, admin)

	assert.ErrorIs(t, err, entity.ErrValidation)
	assert.Empty(t, repo.Entries())
}

func TestLedger_List_newest_first_regardless_of_arrival(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	repo := mocks.NewHistoryRepository()
	ledger := history.NewLedger(repo, clock)

	base := clock.Now()

	// scanned arrives before updated although it happened later
	_, err := repo.Append(ctx, entity.HistoryEntry{TicketNumber: "TKT-2025-00001", Action: entity.ActionCreated, ChangedAt: base})
	require.NoError(t, err)
	_, err = repo.Append(ctx, entity.HistoryEntry{TicketNumber: "TKT-2025-00001", Action: entity.ActionScanned, ChangedAt: base.Add(2 * time.Minute)})
	require.NoError(t, err)
	_, err = repo.Append(ctx, entity.HistoryEntry{TicketNumber: "TKT-2025-00001", Action: entity.ActionUpdated, ChangedAt: base.Add(time.Minute)})
	require.NoError(t, err)
	_, err = repo.Append(ctx, entity.HistoryEntry{TicketNumber: "TKT-2025-00002", Action: entity.ActionCreated, ChangedAt: base})
	require.NoError(t, err)

	entries, err := ledger.List(ctx, "TKT-2025-00001")
	require.NoError(t, err)

	actions := make([]entity.HistoryAction, 0, len(entries))
	for _, e := range entries {
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []entity.HistoryAction{entity.ActionScanned, entity.ActionUpdated, entity.ActionCreated}, actions)
}

func TestLedger_ListAll_limit(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	ledger := history.NewLedger(mocks.NewHistoryRepository(), clock)

	for i := 0; i < 5; i++ {
		_, err := ledger.Record(ctx, "TKT-2025-00001", entity.ActionUpdated, nil, map[string]any{"i": i}, admin)
		require.NoError(t, err)
		clock.Advance(time.Second)
	}

	entries, err := ledger.ListAll(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.JSONEq(t, `{"i":4}`, string(entries[0].NewValue))

	entries, err = ledger.ListAll(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 5)
}

func TestLedger_repository_error(t *testing.T) {
	repo := mocks.NewHistoryRepository()
	repo.Err = entity.ErrStoreUnavailable
	ledger := history.NewLedger(repo, clockwork.NewFakeClock())

	_, err := ledger.Record(context.Background(), "TKT-2025-00001", entity.ActionCreated, nil, nil, admin)
	assert.True(t, errors.Is(err, entity.ErrStoreUnavailable))
}
