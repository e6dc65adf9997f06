package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Hrei2/ticket-system/entity"
	"github.com/Hrei2/ticket-system/history"
)

// putTicketRequest fields left out of the body are not changed.
type putTicketRequest struct {
	Email      *string `json:"email" validate:"omitempty,email"`
	Name       *string `json:"name"`
	Surname    *string `json:"surname"`
	Birthdate  *string `json:"birthdate" validate:"omitempty,len=6,numeric"`
	Class      *string `json:"class"`
	OwnerEmail *string `json:"owner_email" validate:"omitempty,email"`
}

func (s Server) PutTicket(c echo.Context) error {
	var request putTicketRequest
	if err := c.Bind(&request); err != nil {
		return err
	}
	if err := c.Validate(request); err != nil {
		return err
	}

	ticket, err := s.tickets.Update(c.Request().Context(), c.Param("ticketNumber"), entity.TicketChanges{
		Email:      request.Email,
		Name:       request.Name,
		Surname:    request.Surname,
		Birthdate:  request.Birthdate,
		Class:      request.Class,
		OwnerEmail: request.OwnerEmail,
	}, actorFromContext(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ticketResponse{
		Message: "Ticket updated successfully",
		Ticket:  ticket,
	})
}

func (s Server) DeleteTicket(c echo.Context) error {
	err := s.tickets.Delete(c.Request().Context(), c.Param("ticketNumber"), actorFromContext(c))
	if err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func (s Server) GetTicketHistory(c echo.Context) error {
	entries, err := s.history.List(c.Request().Context(), c.Param("ticketNumber"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, entries)
}

func (s Server) GetHistory(c echo.Context) error {
	limit := history.DefaultListLimit
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return entity.NewValidationError("limit", fmt.Sprintf("%q is not a positive number", raw))
		}
		limit = parsed
	}

	entries, err := s.history.ListAll(c.Request().Context(), limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, entries)
}
