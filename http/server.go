package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	echoHTTP "github.com/ThreeDotsLabs/go-event-driven/common/http"
	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/Hrei2/ticket-system/entity"
	"github.com/Hrei2/ticket-system/tracing"
)

type TicketService interface {
	Create(ctx context.Context, data entity.NewTicket, actor entity.Actor) (entity.Ticket, error)
	Get(ctx context.Context, ticketNumber string) (entity.Ticket, error)
	List(ctx context.Context, filter entity.TicketFilter) ([]entity.Ticket, error)
	Statistics(ctx context.Context) (entity.TicketStatistics, error)
	Scan(ctx context.Context, ticketNumber string, actor entity.Actor) (entity.ScanResult, error)
	Preview(ctx context.Context, ticketNumber string) (entity.ScanResult, error)
	Update(ctx context.Context, ticketNumber string, changes entity.TicketChanges, actor entity.Actor) (entity.Ticket, error)
	Delete(ctx context.Context, ticketNumber string, actor entity.Actor) error
}

type HistoryReader interface {
	List(ctx context.Context, ticketNumber string) ([]entity.HistoryEntry, error)
	ListAll(ctx context.Context, limit int) ([]entity.HistoryEntry, error)
}

type SettingsRegistry interface {
	Get(ctx context.Context) (entity.EventSettings, error)
	Upsert(ctx context.Context, eventDate time.Time, ranges entity.ColorRanges, allowedClasses []string) (entity.EventSettings, error)
}

type Server struct {
	addr     string
	e        *echo.Echo
	tickets  TicketService
	history  HistoryReader
	settings SettingsRegistry
}

func NewServer(
	addr string,
	jwtSecret string,
	tickets TicketService,
	history HistoryReader,
	settings SettingsRegistry,
) *Server {
	if jwtSecret == "" {
		panic("missing jwt secret")
	}
	if tickets == nil {
		panic("missing tickets service")
	}
	if history == nil {
		panic("missing history reader")
	}
	if settings == nil {
		panic("missing settings registry")
	}

	e := echoHTTP.NewEcho()
	e.HTTPErrorHandler = handleError
	e.Validator = newRequestValidator()
	e.Use(otelecho.Middleware(tracing.ServiceName))

	server := &Server{
		addr:     addr,
		e:        e,
		tickets:  tickets,
		history:  history,
		settings: settings,
	}

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	auth := e.Group("", authenticate([]byte(jwtSecret)))

	auth.POST("/tickets", server.PostTicket, requireRole(entity.RoleSeller, entity.RoleAdmin))
	auth.GET("/tickets", server.GetTickets)
	auth.GET("/tickets/stats/summary", server.GetTicketStatistics, requireRole(entity.RoleAdmin))
	auth.GET("/tickets/:ticketNumber", server.GetTicket)

	auth.POST("/scanner/scan/:ticketNumber", server.PostScan, requireRole(entity.RoleScanner, entity.RoleAdmin))
	auth.GET("/scanner/validate/:ticketNumber", server.GetPreview, requireRole(entity.RoleScanner, entity.RoleAdmin))

	admin := auth.Group("/admin", requireRole(entity.RoleAdmin))
	admin.PUT("/tickets/:ticketNumber", server.PutTicket)
	admin.DELETE("/tickets/:ticketNumber", server.DeleteTicket)
	admin.GET("/tickets/:ticketNumber/history", server.GetTicketHistory)
	admin.GET("/history", server.GetHistory)

	auth.GET("/settings", server.GetSettings)
	auth.PUT("/settings", server.PutSettings, requireRole(entity.RoleAdmin))

	return server
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := s.e.Shutdown(shutdownCtx)
		if err != nil {
			log.FromContext(ctx).WithError(err).Error("failed to shutdown HTTP server")
		}
	}()
	log.FromContext(ctx).WithField("addr", s.addr).Info("[HTTP] server listening")
	if err := s.e.Start(s.addr); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
