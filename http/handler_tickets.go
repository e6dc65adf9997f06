package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"github.com/Hrei2/ticket-system/entity"
)

const timestampLayout = time.RFC3339Nano

type postTicketRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Name      string `json:"name" validate:"required"`
	Surname   string `json:"surname" validate:"required"`
	Birthdate string `json:"birthdate" validate:"required,len=6,numeric"`
	Class     string `json:"class" validate:"required"`
}

type ticketResponse struct {
	Message string        `json:"message,omitempty"`
	Ticket  entity.Ticket `json:"ticket"`
}

func (s Server) PostTicket(c echo.Context) error {
	var request postTicketRequest
	if err := c.Bind(&request); err != nil {
		return err
	}
	if err := c.Validate(request); err != nil {
		return err
	}

	ticket, err := s.tickets.Create(c.Request().Context(), entity.NewTicket{
		Email:     request.Email,
		Name:      request.Name,
		Surname:   request.Surname,
		Birthdate: request.Birthdate,
		Class:     request.Class,
	}, actorFromContext(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, ticketResponse{
		Message: "Ticket created successfully",
		Ticket:  ticket,
	})
}

func (s Server) GetTickets(c echo.Context) error {
	filter := entity.TicketFilter{
		Class:  c.QueryParam("class"),
		Search: c.QueryParam("search"),
	}

	if raw := c.QueryParam("isScanned"); raw != "" {
		scanned, err := strconv.ParseBool(raw)
		if err != nil {
			return entity.NewValidationError("isScanned", fmt.Sprintf("%q is not a boolean", raw))
		}
		filter.Scanned = lo.ToPtr(scanned)
	}

	tickets, err := s.tickets.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, tickets)
}

func (s Server) GetTicket(c echo.Context) error {
	ticket, err := s.tickets.Get(c.Request().Context(), c.Param("ticketNumber"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ticket)
}

func (s Server) GetTicketStatistics(c echo.Context) error {
	stats, err := s.tickets.Statistics(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, stats)
}
