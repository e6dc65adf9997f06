package tickets

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/lithammer/shortuuid/v3"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbutils "github.com/Hrei2/ticket-system/db"
	"github.com/Hrei2/ticket-system/entity"
)

func TestMain(m *testing.M) {
	os.Exit(dbutils.RunWithPostgres(m))
}

func newTicket(class string) entity.Ticket {
	return entity.Ticket{
		TicketNumber: "TKT-2025-" + shortuuid.New()[:12],
		Email:        "jan@example.com",
		Name:         "Jan",
		Surname:      "Kowalski",
		Birthdate:    "040609",
		Class:        class,
		OwnerEmail:   "jan@example.com",
		CreatedBy:    "seller-1",
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestPostgresRepository_Insert_and_Get(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgresRepository(dbutils.GetDb(t))

	ticket := newTicket("VIP")
	require.NoError(t, repo.Insert(ctx, ticket))

	stored, err := repo.GetByNumber(ctx, ticket.TicketNumber)
	require.NoError(t, err)
	assert.Equal(t, ticket, stored)

	err = repo.Insert(ctx, ticket)
	assert.ErrorIs(t, err, entity.ErrConflict)

	_, err = repo.GetByNumber(ctx, "TKT-0000-00000")
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestPostgresRepository_MarkScanned(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgresRepository(dbutils.GetDb(t))

	ticket := newTicket("VIP")
	require.NoError(t, repo.Insert(ctx, ticket))

	scannedAt := time.Now().UTC().Truncate(time.Microsecond)

	won, err := repo.MarkScanned(ctx, ticket.TicketNumber, "scanner-1", scannedAt)
	require.NoError(t, err)
	assert.True(t, won)

	won, err = repo.MarkScanned(ctx, ticket.TicketNumber, "scanner-2", scannedAt.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, won)

	stored, err := repo.GetByNumber(ctx, ticket.TicketNumber)
	require.NoError(t, err)
	assert.True(t, stored.Scanned)
	assert.Equal(t, scannedAt, *stored.ScannedAt)
	assert.Equal(t, "scanner-1", *stored.ScannedBy)

	won, err = repo.MarkScanned(ctx, "TKT-0000-00000", "scanner-1", scannedAt)
	require.NoError(t, err)
	assert.False(t, won)
}

func TestPostgresRepository_MarkScanned_concurrent(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgresRepository(dbutils.GetDb(t))

	ticket := newTicket("VIP")
	require.NoError(t, repo.Insert(ctx, ticket))

	const scanners = 20

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	start := make(chan struct{})

	for i := 0; i < scanners; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start

			won, err := repo.MarkScanned(ctx, ticket.TicketNumber, shortuuid.New(), time.Now().UTC())
			assert.NoError(t, err)

			if won {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestPostgresRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgresRepository(dbutils.GetDb(t))

	ticket := newTicket("VIP")
	require.NoError(t, repo.Insert(ctx, ticket))

	updated, err := repo.Update(ctx, ticket.TicketNumber, entity.TicketChanges{
		Name:       lo.ToPtr("Janek"),
		OwnerEmail: lo.ToPtr("anna@example.com"),
	})
	require.NoError(t, err)

	expected := ticket
	expected.Name = "Janek"
	expected.OwnerEmail = "anna@example.com"
	assert.Equal(t, expected, updated)

	unchanged, err := repo.Update(ctx, ticket.TicketNumber, entity.TicketChanges{})
	require.NoError(t, err)
	assert.Equal(t, expected, unchanged)

	_, err = repo.Update(ctx, "TKT-0000-00000", entity.TicketChanges{Name: lo.ToPtr("X")})
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestPostgresRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgresRepository(dbutils.GetDb(t))

	ticket := newTicket("VIP")
	require.NoError(t, repo.Insert(ctx, ticket))

	require.NoError(t, repo.Delete(ctx, ticket.TicketNumber))

	_, err := repo.GetByNumber(ctx, ticket.TicketNumber)
	assert.ErrorIs(t, err, entity.ErrNotFound)

	err = repo.Delete(ctx, ticket.TicketNumber)
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestPostgresRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgresRepository(dbutils.GetDb(t))

	class := "class-" + shortuuid.New()

	older := newTicket(class)
	older.CreatedAt = older.CreatedAt.Add(-time.Hour)
	older.Name = "Zofia_" + shortuuid.New()
	require.NoError(t, repo.Insert(ctx, older))

	newer := newTicket(class)
	require.NoError(t, repo.Insert(ctx, newer))

	_, err := repo.MarkScanned(ctx, newer.TicketNumber, "scanner-1", time.Now().UTC())
	require.NoError(t, err)

	all, err := repo.List(ctx, entity.TicketFilter{Class: class})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, newer.TicketNumber, all[0].TicketNumber)
	assert.Equal(t, older.TicketNumber, all[1].TicketNumber)

	scanned, err := repo.List(ctx, entity.TicketFilter{Class: class, Scanned: lo.ToPtr(true)})
	require.NoError(t, err)
	require.Len(t, scanned, 1)
	assert.Equal(t, newer.TicketNumber, scanned[0].TicketNumber)

	found, err := repo.List(ctx, entity.TicketFilter{Search: older.Name})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, older.TicketNumber, found[0].TicketNumber)

	// wildcards in the search text are literal
	found, err = repo.List(ctx, entity.TicketFilter{Class: class, Search: "%"})
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestPostgresRepository_Statistics(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgresRepository(dbutils.GetDb(t))

	before, err := repo.Statistics(ctx)
	require.NoError(t, err)

	class := "class-" + shortuuid.New()
	first := newTicket(class)
	second := newTicket(class)
	require.NoError(t, repo.Insert(ctx, first))
	require.NoError(t, repo.Insert(ctx, second))

	_, err = repo.MarkScanned(ctx, first.TicketNumber, "scanner-1", time.Now().UTC())
	require.NoError(t, err)

	after, err := repo.Statistics(ctx)
	require.NoError(t, err)

	assert.Equal(t, before.Total+2, after.Total)
	assert.Equal(t, before.Scanned+1, after.Scanned)
	assert.Equal(t, before.Pending+1, after.Pending)
	assert.Equal(t, before.TotalClasses+1, after.TotalClasses)
}
