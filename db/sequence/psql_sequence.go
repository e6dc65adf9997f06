package sequence

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	dbutils "github.com/Hrei2/ticket-system/db"
)

// PostgresSequence keeps one counter row per year. Next increments and reads
// it in one statement, the row lock serializes concurrent callers.
type PostgresSequence struct {
	db *sqlx.DB
}

func NewPostgresSequence(db *sqlx.DB) *PostgresSequence {
	if db == nil {
		panic("db is nil")
	}

	return &PostgresSequence{db: db}
}

func (s *PostgresSequence) Next(ctx context.Context, year int) (int64, error) {
	var value int64
	err := s.db.GetContext(ctx, &value, `
		INSERT INTO ticket_sequences (year, value)
		VALUES ($1, 1)
		ON CONFLICT (year) DO UPDATE SET value = ticket_sequences.value + 1
		RETURNING value
	`, year)
	if err != nil {
		return 0, fmt.Errorf("could not increment ticket sequence for %d: %w", year, dbutils.TranslateError(err))
	}

	return value, nil
}
