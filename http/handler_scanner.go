package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Hrei2/ticket-system/entity"
)

type scanResponse struct {
	Message string `json:"message,omitempty"`
	entity.ScanResult
}

func (s Server) PostScan(c echo.Context) error {
	result, err := s.tickets.Scan(c.Request().Context(), c.Param("ticketNumber"), actorFromContext(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, scanResponse{
		Message:    "Ticket scanned successfully",
		ScanResult: result,
	})
}

// GetPreview shows what a scan would show, without scanning.
func (s Server) GetPreview(c echo.Context) error {
	result, err := s.tickets.Preview(c.Request().Context(), c.Param("ticketNumber"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, scanResponse{ScanResult: result})
}
