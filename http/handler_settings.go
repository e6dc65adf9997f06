package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Hrei2/ticket-system/entity"
)

type putSettingsRequest struct {
	EventDate      string             `json:"eventDate" validate:"required,datetime=2006-01-02"`
	AgeColorRanges entity.ColorRanges `json:"ageColorRanges" validate:"required"`
	AllowedClasses []string           `json:"allowedClasses"`
}

func (s Server) GetSettings(c echo.Context) error {
	settings, err := s.settings.Get(c.Request().Context())
	if errors.Is(err, entity.ErrSettingsMissing) {
		return echo.NewHTTPError(http.StatusNotFound, "Event settings not found")
	}
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, settings)
}

func (s Server) PutSettings(c echo.Context) error {
	var request putSettingsRequest
	if err := c.Bind(&request); err != nil {
		return err
	}
	if err := c.Validate(request); err != nil {
		return err
	}

	eventDate, err := time.Parse(entity.EventDateLayout, request.EventDate)
	if err != nil {
		return entity.NewValidationError("eventDate", "must be a date in YYYY-MM-DD format")
	}

	settings, err := s.settings.Upsert(c.Request().Context(), eventDate, request.AgeColorRanges, request.AllowedClasses)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, settings)
}
