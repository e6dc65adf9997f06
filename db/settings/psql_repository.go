package settings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	dbutils "github.com/Hrei2/ticket-system/db"
	"github.com/Hrei2/ticket-system/entity"
)

// PostgresRepository keeps the event settings in a single row with id 1.
type PostgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	if db == nil {
		panic("db is nil")
	}

	return &PostgresRepository{db: db}
}

type settingsRow struct {
	EventDate      time.Time          `db:"event_date"`
	AgeColorRanges entity.ColorRanges `db:"age_color_ranges"`
	AllowedClasses pq.StringArray     `db:"allowed_classes"`
	Version        int64              `db:"version"`
	UpdatedAt      time.Time          `db:"updated_at"`
}

func (r settingsRow) toEntity() entity.EventSettings {
	y, m, d := r.EventDate.Date()

	return entity.EventSettings{
		EventDate:      time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		AgeColorRanges: r.AgeColorRanges,
		AllowedClasses: []string(r.AllowedClasses),
		Version:        r.Version,
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
}

func (r *PostgresRepository) Get(ctx context.Context) (entity.EventSettings, error) {
	var row settingsRow
	err := r.db.GetContext(ctx, &row, `
		SELECT event_date, age_color_ranges, allowed_classes, version, updated_at
		FROM event_settings
		WHERE id = 1
	`)
	err = dbutils.TranslateError(err)
	if errors.Is(err, entity.ErrNotFound) {
		return entity.EventSettings{}, entity.ErrSettingsMissing
	}
	if err != nil {
		return entity.EventSettings{}, fmt.Errorf("could not get event settings: %w", err)
	}

	return row.toEntity(), nil
}

// Upsert creates the settings row or overwrites it in place, bumping the
// version in the same statement.
func (r *PostgresRepository) Upsert(ctx context.Context, settings entity.EventSettings) (entity.EventSettings, error) {
	allowedClasses := settings.AllowedClasses
	if allowedClasses == nil {
		allowedClasses = []string{}
	}

	var row settingsRow
	err := r.db.GetContext(ctx, &row, `
		INSERT INTO event_settings (id, event_date, age_color_ranges, allowed_classes, version, updated_at)
		VALUES (1, $1, $2, $3, 1, NOW())
		ON CONFLICT (id) DO UPDATE SET
			event_date = EXCLUDED.event_date,
			age_color_ranges = EXCLUDED.age_color_ranges,
			allowed_classes = EXCLUDED.allowed_classes,
			version = event_settings.version + 1,
			updated_at = NOW()
		RETURNING event_date, age_color_ranges, allowed_classes, version, updated_at
	`,
		settings.EventDate.Format(entity.EventDateLayout),
		settings.AgeColorRanges,
		pq.StringArray(allowedClasses),
	)
	if err != nil {
		return entity.EventSettings{}, fmt.Errorf("could not upsert event settings: %w", dbutils.TranslateError(err))
	}

	return row.toEntity(), nil
}
