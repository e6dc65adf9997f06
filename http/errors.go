package http

import (
	"errors"
	"net/http"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/labstack/echo/v4"

	"github.com/Hrei2/ticket-system/entity"
)

type errorResponse struct {
	Error     string `json:"error"`
	Field     string `json:"field,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

type alreadyScannedResponse struct {
	Error     string `json:"error"`
	ScannedAt string `json:"scannedAt"`
	ScannedBy string `json:"scannedBy"`
}

func handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := errorToResponse(err)
	if status >= http.StatusInternalServerError {
		log.FromContext(c.Request().Context()).WithError(err).Error("Request failed")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		log.FromContext(c.Request().Context()).WithError(err).Error("Could not write error response")
	}
}

func errorToResponse(err error) (int, any) {
	var (
		httpErr       *echo.HTTPError
		validationErr *entity.ValidationError
		scannedErr    *entity.AlreadyScannedError
	)

	switch {
	case errors.As(err, &httpErr):
		msg, ok := httpErr.Message.(string)
		if !ok {
			msg = http.StatusText(httpErr.Code)
		}
		return httpErr.Code, errorResponse{Error: msg}
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, errorResponse{Error: validationErr.Error(), Field: validationErr.Field}
	case errors.As(err, &scannedErr):
		return http.StatusConflict, alreadyScannedResponse{
			Error:     "Ticket already scanned",
			ScannedAt: scannedErr.ScannedAt.Format(timestampLayout),
			ScannedBy: scannedErr.ScannedBy,
		}
	case errors.Is(err, entity.ErrNotFound):
		return http.StatusNotFound, errorResponse{Error: "Ticket not found"}
	case errors.Is(err, entity.ErrSettingsMissing):
		return http.StatusPreconditionFailed, errorResponse{Error: "Event settings not configured"}
	case entity.IsRetryable(err):
		return http.StatusServiceUnavailable, errorResponse{Error: "Service temporarily unavailable", Retryable: true}
	default:
		return http.StatusInternalServerError, errorResponse{Error: "Server error"}
	}
}
