package settings_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hrei2/ticket-system/entity"
	"github.com/Hrei2/ticket-system/mocks"
	"github.com/Hrei2/ticket-system/settings"
)

var ranges = entity.ColorRanges{
	{Range: "18+", Color: "#4CAF50"},
	{Range: "0-15", Color: "#FF6B6B"},
	{Range: "16-17", Color: "#FFA500"},
}

func TestRegistry_Get_missing(t *testing.T) {
	registry := settings.NewRegistry(mocks.NewSettingsRepository())

	_, err := registry.Get(context.Background())
	assert.ErrorIs(t, err, entity.ErrSettingsMissing)
}

func TestRegistry_Upsert(t *testing.T) {
	ctx := context.Background()
	registry := settings.NewRegistry(mocks.NewSettingsRepository())

	eventDate := time.Date(2025, time.June, 10, 18, 30, 0, 0, time.UTC)

	created, err := registry.Upsert(ctx, eventDate, ranges, []string{" VIP ", "standard", "VIP", ""})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.Version)
	assert.Equal(t, time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC), created.EventDate)
	assert.Equal(t, []string{"VIP", "standard"}, created.AllowedClasses)

	updated, err := registry.Upsert(ctx, eventDate.AddDate(0, 0, 1), ranges[:1], nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)

	current, err := registry.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, updated, current)
}

func TestRegistry_Upsert_keeps_range_order(t *testing.T) {
	ctx := context.Background()
	registry := settings.NewRegistry(mocks.NewSettingsRepository())

	_, err := registry.Upsert(ctx, time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC), ranges, nil)
	require.NoError(t, err)

	current, err := registry.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, ranges, current.AgeColorRanges)
}

func TestRegistry_Upsert_validation(t *testing.T) {
	testCases := []struct {
		name      string
		eventDate time.Time
		ranges    entity.ColorRanges
	}{
		{
			name:   "missing_event_date",
			ranges: ranges,
		},
		{
			name:      "malformed_range",
			eventDate: time.Now(),
			ranges:    entity.ColorRanges{{Range: "adults", Color: "#4CAF50"}},
		},
		{
			name:      "blank_color",
			eventDate: time.Now(),
			ranges:    entity.ColorRanges{{Range: "18+", Color: "  "}},
		},
		{
			name:      "duplicated_range",
			eventDate: time.Now(),
			ranges:    entity.ColorRanges{{Range: "18+", Color: "#4CAF50"}, {Range: "18+", Color: "#000000"}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			registry := settings.NewRegistry(mocks.NewSettingsRepository())

			_, err := registry.Upsert(context.Background(), tc.eventDate, tc.ranges, nil)
			assert.ErrorIs(t, err, entity.ErrValidation)
		})
	}
}

func TestRegistry_Upsert_accepts_named_colors(t *testing.T) {
	ctx := context.Background()
	registry := settings.NewRegistry(mocks.NewSettingsRepository())

	named := entity.ColorRanges{
		{Range: "0-17", Color: "orange"},
		{Range: "18+", Color: "rgb(76, 175, 80)"},
	}

	created, err := registry.Upsert(ctx, time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC), named, nil)
	require.NoError(t, err)
	assert.Equal(t, named, created.AgeColorRanges)
}
