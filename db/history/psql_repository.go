package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	dbutils "github.com/Hrei2/ticket-system/db"
	"github.com/Hrei2/ticket-system/entity"
)

// PostgresRepository only inserts and reads, ticket_history is append-only.
type PostgresRepository struct {
	db sqlx.ExtContext
}

func NewPostgresRepository(db sqlx.ExtContext) *PostgresRepository {
	if db == nil {
		panic("db is nil")
	}

	return &PostgresRepository{db: db}
}

type historyRow struct {
	ID           int64     `db:"id"`
	TicketNumber string    `db:"ticket_number"`
	Action       string    `db:"action"`
	OldValue     []byte    `db:"old_value"`
	NewValue     []byte    `db:"new_value"`
	ChangedBy    string    `db:"changed_by"`
	ChangedAt    time.Time `db:"changed_at"`
}

func (r historyRow) toEntity() entity.HistoryEntry {
	return entity.HistoryEntry{
		ID:           r.ID,
		TicketNumber: r.TicketNumber,
		Action:       entity.HistoryAction(r.Action),
		OldValue:     rawJSON(r.OldValue),
		NewValue:     rawJSON(r.NewValue),
		ChangedBy:    r.ChangedBy,
		ChangedAt:    r.ChangedAt.UTC(),
	}
}

func rawJSON(value []byte) json.RawMessage {
	if value == nil {
		return nil
	}
	return json.RawMessage(value)
}

// nullableJSON keeps a nil snapshot as SQL NULL instead of an empty string.
func nullableJSON(value json.RawMessage) any {
	if value == nil {
		return nil
	}
	return string(value)
}

func (r *PostgresRepository) Append(ctx context.Context, entry entity.HistoryEntry) (entity.HistoryEntry, error) {
	var id int64
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO ticket_history (ticket_number, action, old_value, new_value, changed_by, changed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`,
		entry.TicketNumber,
		string(entry.Action),
		nullableJSON(entry.OldValue),
		nullableJSON(entry.NewValue),
		entry.ChangedBy,
		entry.ChangedAt,
	).Scan(&id)
	if err != nil {
		return entity.HistoryEntry{}, fmt.Errorf(
			"could not append %s entry for %s: %w",
			entry.Action,
			entry.TicketNumber,
			dbutils.TranslateError(err),
		)
	}

	entry.ID = id
	return entry, nil
}

func (r *PostgresRepository) ListByTicket(ctx context.Context, ticketNumber string) ([]entity.HistoryEntry, error) {
	var rows []historyRow
	err := sqlx.SelectContext(ctx, r.db, &rows, `
		SELECT id, ticket_number, action, old_value, new_value, changed_by, changed_at
		FROM ticket_history
		WHERE ticket_number = $1
		ORDER BY changed_at DESC, id DESC
	`, ticketNumber)
	if err != nil {
		return nil, fmt.Errorf("could not list history of %s: %w", ticketNumber, dbutils.TranslateError(err))
	}

	return toEntities(rows), nil
}

func (r *PostgresRepository) ListAll(ctx context.Context, limit int) ([]entity.HistoryEntry, error) {
	var rows []historyRow
	err := sqlx.SelectContext(ctx, r.db, &rows, `
		SELECT id, ticket_number, action, old_value, new_value, changed_by, changed_at
		FROM ticket_history
		ORDER BY changed_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("could not list history: %w", dbutils.TranslateError(err))
	}

	return toEntities(rows), nil
}

func toEntities(rows []historyRow) []entity.HistoryEntry {
	entries := make([]entity.HistoryEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.toEntity())
	}
	return entries
}
