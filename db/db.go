package db

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

//go:embed schema.sql
var schema string

// any constant works, it only has to be the same for every replica
const schemaLockID int64 = 7_302_025

// Open connects to Postgres through an instrumented driver, every query gets
// its own span.
func Open(postgresURL string) (*sqlx.DB, error) {
	sqlDB, err := otelsql.Open(
		"postgres",
		postgresURL,
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
		otelsql.WithDBName("tickets"),
	)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	return sqlx.NewDb(sqlDB, "postgres"), nil
}

// InitializeDatabaseSchema creates missing tables. Replicas starting at the
// same time serialize on an advisory lock.
func InitializeDatabaseSchema(db *sqlx.DB) error {
	ctx := context.Background()

	conn, err := db.Connx(ctx)
	if err != nil {
		return fmt.Errorf("could not acquire connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, schemaLockID); err != nil {
		return fmt.Errorf("could not acquire schema lock: %w", err)
	}
	defer func() {
		_, _ = conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, schemaLockID)
	}()

	if _, err := conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("could not initialize database schema: %w", err)
	}

	return nil
}

// InTx runs fn in a transaction. It commits when fn returns nil and rolls back
// otherwise, including when the context is canceled.
func InTx(
	ctx context.Context,
	db *sqlx.DB,
	isolation sql.IsolationLevel,
	fn func(ctx context.Context, tx *sqlx.Tx) error,
) (err error) {
	tx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: isolation})
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", TranslateError(err))
	}

	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				err = errors.Join(err, rollbackErr)
			}
			return
		}

		if commitErr := tx.Commit(); commitErr != nil {
			err = fmt.Errorf("could not commit transaction: %w", TranslateError(commitErr))
		}
	}()

	return fn(ctx, tx)
}
