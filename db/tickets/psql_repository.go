package tickets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	dbutils "github.com/Hrei2/ticket-system/db"
	"github.com/Hrei2/ticket-system/entity"
)

const columns = `ticket_number, email, name, surname, birthdate, class, owner_email,
	created_by, is_scanned, scanned_at, scanned_by, created_at`

// PostgresRepository runs on the connection pool or inside a transaction.
type PostgresRepository struct {
	db sqlx.ExtContext
}

func NewPostgresRepository(db sqlx.ExtContext) *PostgresRepository {
	if db == nil {
		panic("db is nil")
	}

	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByNumber(ctx context.Context, ticketNumber string) (entity.Ticket, error) {
	var ticket entity.Ticket
	err := sqlx.GetContext(ctx, r.db, &ticket, `SELECT `+columns+` FROM tickets WHERE ticket_number = $1`, ticketNumber)
	if err != nil {
		return entity.Ticket{}, fmt.Errorf("could not get ticket %s: %w", ticketNumber, dbutils.TranslateError(err))
	}

	return normalize(ticket), nil
}

func (r *PostgresRepository) Insert(ctx context.Context, ticket entity.Ticket) error {
	_, err := sqlx.NamedExecContext(ctx, r.db, `
		INSERT INTO tickets (`+columns+`)
		VALUES (
			:ticket_number, :email, :name, :surname, :birthdate, :class, :owner_email,
			:created_by, :is_scanned, :scanned_at, :scanned_by, :created_at
		)
	`, ticket)
	if err != nil {
		return fmt.Errorf("could not insert ticket %s: %w", ticket.TicketNumber, dbutils.TranslateError(err))
	}

	return nil
}

// MarkScanned is the compare-and-swap of the scan flag. The condition and the
// write are one statement, so concurrent callers cannot both see false.
func (r *PostgresRepository) MarkScanned(ctx context.Context, ticketNumber, scannedBy string, scannedAt time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tickets
		SET is_scanned = TRUE, scanned_at = $1, scanned_by = $2
		WHERE ticket_number = $3 AND is_scanned = FALSE
	`, scannedAt, scannedBy, ticketNumber)
	if err != nil {
		return false, fmt.Errorf("could not mark ticket %s as scanned: %w", ticketNumber, dbutils.TranslateError(err))
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("could not mark ticket %s as scanned: %w", ticketNumber, dbutils.TranslateError(err))
	}

	return rowsAffected == 1, nil
}

// Update writes the non-nil changes. The ticket number and the scan columns
// are never part of the statement.
func (r *PostgresRepository) Update(ctx context.Context, ticketNumber string, changes entity.TicketChanges) (entity.Ticket, error) {
	set := make([]string, 0, 6)
	args := make([]any, 0, 7)

	add := func(column string, value *string) {
		if value == nil {
			return
		}
		args = append(args, *value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("email", changes.Email)
	add("name", changes.Name)
	add("surname", changes.Surname)
	add("birthdate", changes.Birthdate)
	add("class", changes.Class)
	add("owner_email", changes.OwnerEmail)

	if len(set) == 0 {
		return r.GetByNumber(ctx, ticketNumber)
	}

	args = append(args, ticketNumber)
	query := fmt.Sprintf(
		`UPDATE tickets SET %s WHERE ticket_number = $%d RETURNING `+columns,
		strings.Join(set, ", "),
		len(args),
	)

	var ticket entity.Ticket
	if err := sqlx.GetContext(ctx, r.db, &ticket, query, args...); err != nil {
		return entity.Ticket{}, fmt.Errorf("could not update ticket %s: %w", ticketNumber, dbutils.TranslateError(err))
	}

	return normalize(ticket), nil
}

func (r *PostgresRepository) Delete(ctx context.Context, ticketNumber string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tickets WHERE ticket_number = $1`, ticketNumber)
	if err != nil {
		return fmt.Errorf("could not delete ticket %s: %w", ticketNumber, dbutils.TranslateError(err))
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not delete ticket %s: %w", ticketNumber, dbutils.TranslateError(err))
	}

	if rowsAffected == 0 {
		return fmt.Errorf("ticket %s: %w", ticketNumber, entity.ErrNotFound)
	}

	return nil
}

func (r *PostgresRepository) List(ctx context.Context, filter entity.TicketFilter) ([]entity.Ticket, error) {
	where := []string{"TRUE"}
	var args []any

	if filter.Scanned != nil {
		args = append(args, *filter.Scanned)
		where = append(where, fmt.Sprintf("is_scanned = $%d", len(args)))
	}
	if filter.Class != "" {
		args = append(args, filter.Class)
		where = append(where, fmt.Sprintf("class = $%d", len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+escapeLike(search)+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(name ILIKE $%[1]d OR surname ILIKE $%[1]d OR email ILIKE $%[1]d OR ticket_number ILIKE $%[1]d)",
			n,
		))
	}

	query := `SELECT ` + columns + ` FROM tickets WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY created_at DESC, ticket_number DESC`

	var tickets []entity.Ticket
	if err := sqlx.SelectContext(ctx, r.db, &tickets, query, args...); err != nil {
		return nil, fmt.Errorf("could not list tickets: %w", dbutils.TranslateError(err))
	}

	for i := range tickets {
		tickets[i] = normalize(tickets[i])
	}

	return tickets, nil
}

func (r *PostgresRepository) Statistics(ctx context.Context) (entity.TicketStatistics, error) {
	var stats entity.TicketStatistics
	err := sqlx.GetContext(ctx, r.db, &stats, `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE is_scanned) AS scanned,
			COUNT(*) FILTER (WHERE NOT is_scanned) AS pending,
			COUNT(DISTINCT class) AS total_classes
		FROM tickets
	`)
	if err != nil {
		return entity.TicketStatistics{}, fmt.Errorf("could not get ticket statistics: %w", dbutils.TranslateError(err))
	}

	return stats, nil
}

// normalize converts timestamps to UTC, the driver returns them in a fixed
// zone of the session.
func normalize(t entity.Ticket) entity.Ticket {
	t.CreatedAt = t.CreatedAt.UTC()
	if t.ScannedAt != nil {
		scannedAt := t.ScannedAt.UTC()
		t.ScannedAt = &scannedAt
	}
	return t
}

func escapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
}
