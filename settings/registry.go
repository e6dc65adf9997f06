// Package settings holds the single active event configuration.
package settings

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/Hrei2/ticket-system/entity"
)

var rangePattern = regexp.MustCompile(`^\s*\d+\s*(\+|-\s*\d+)\s*$`)

// Repository stores one settings row. Get returns entity.ErrSettingsMissing
// when nothing was configured yet. Upsert bumps the version.
type Repository interface {
	Get(ctx context.Context) (entity.EventSettings, error)
	Upsert(ctx context.Context, settings entity.EventSettings) (entity.EventSettings, error)
}

type Registry struct {
	repo Repository
}

func NewRegistry(repo Repository) *Registry {
	if repo == nil {
		panic("missing settings repository")
	}

	return &Registry{repo: repo}
}

func (r *Registry) Get(ctx context.Context) (entity.EventSettings, error) {
	s, err := r.repo.Get(ctx)
	if err != nil {
		return entity.EventSettings{}, fmt.Errorf("could not get event settings: %w", err)
	}
	return s, nil
}

// Upsert replaces the active configuration, or creates it when there is none.
// The overwrite is not audited.
func (r *Registry) Upsert(
	ctx context.Context,
	eventDate time.Time,
	ranges entity.ColorRanges,
	allowedClasses []string,
) (entity.EventSettings, error) {
	if eventDate.IsZero() {
		return entity.EventSettings{}, entity.NewValidationError("event_date", "must be set")
	}
	if err := ValidateRanges(ranges); err != nil {
		return entity.EventSettings{}, err
	}

	allowedClasses = lo.Uniq(lo.FilterMap(allowedClasses, func(c string, _ int) (string, bool) {
		c = strings.TrimSpace(c)
		return c, c != ""
	}))

	y, m, d := eventDate.Date()

	s, err := r.repo.Upsert(ctx, entity.EventSettings{
		EventDate:      time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		AgeColorRanges: ranges,
		AllowedClasses: allowedClasses,
	})
	if err != nil {
		return entity.EventSettings{}, fmt.Errorf("could not upsert event settings: %w", err)
	}

	log.FromContext(ctx).WithFields(logrus.Fields{
		"event_date": s.EventDate.Format(entity.EventDateLayout),
		"ranges":     len(s.AgeColorRanges),
		"version":    s.Version,
	}).Info("Event settings updated")

	return s, nil
}

// ValidateRanges rejects ranges the classifier could never match and duplicated
// range keys.
func ValidateRanges(ranges entity.ColorRanges) error {
	seen := make(map[string]struct{}, len(ranges))

	for _, r := range ranges {
		if !rangePattern.MatchString(r.Range) {
			return entity.NewValidationError("age_color_ranges", fmt.Sprintf("range %q must be min-max or min+", r.Range))
		}
		// any CSS color name or code is passed through to clients untouched
		if strings.TrimSpace(r.Color) == "" {
			return entity.NewValidationError("age_color_ranges", fmt.Sprintf("color of range %q must not be empty", r.Range))
		}
		if _, ok := seen[r.Range]; ok {
			return entity.NewValidationError("age_color_ranges", fmt.Sprintf("range %q is duplicated", r.Range))
		}
		seen[r.Range] = struct{}{}
	}

	return nil
}
