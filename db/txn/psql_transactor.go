package txn

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"

	dbutils "github.com/Hrei2/ticket-system/db"
	dbHistory "github.com/Hrei2/ticket-system/db/history"
	"github.com/Hrei2/ticket-system/db/tickets"
	"github.com/Hrei2/ticket-system/history"
	"github.com/Hrei2/ticket-system/lifecycle"
)

// PostgresTransactor binds the ticket and history repositories to one
// read-committed transaction. The scan compare-and-swap stays a single
// conditional UPDATE, so no stronger isolation is needed.
type PostgresTransactor struct {
	db    *sqlx.DB
	clock clockwork.Clock
}

func NewPostgresTransactor(db *sqlx.DB, clock clockwork.Clock) *PostgresTransactor {
	if db == nil {
		panic("db is nil")
	}
	if clock == nil {
		panic("missing clock")
	}

	return &PostgresTransactor{db: db, clock: clock}
}

func (t *PostgresTransactor) InTx(ctx context.Context, fn func(ctx context.Context, tx lifecycle.Tx) error) error {
	return dbutils.InTx(ctx, t.db, sql.LevelReadCommitted, func(ctx context.Context, tx *sqlx.Tx) error {
		return fn(ctx, lifecycle.Tx{
			Tickets: tickets.NewPostgresRepository(tx),
			History: history.NewLedger(dbHistory.NewPostgresRepository(tx), t.clock),
		})
	})
}
