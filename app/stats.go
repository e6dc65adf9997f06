package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/go-co-op/gocron/v2"

	"github.com/Hrei2/ticket-system/entity"
	"github.com/Hrei2/ticket-system/metrics"
)

type StatisticsProvider interface {
	Statistics(ctx context.Context) (entity.TicketStatistics, error)
}

func refreshTicketGauges(ctx context.Context, provider StatisticsProvider) error {
	stats, err := provider.Statistics(ctx)
	if err != nil {
		return fmt.Errorf("could not refresh ticket gauges: %w", err)
	}

	metrics.TicketsTotal.Set(float64(stats.Total))
	metrics.TicketsScanned.Set(float64(stats.Scanned))
	metrics.TicketsPending.Set(float64(stats.Pending))
	metrics.TicketClasses.Set(float64(stats.TotalClasses))

	return nil
}

// runStatsRefresher refreshes the ticket gauges every interval until ctx is
// done. A slow refresh is never run twice at the same time.
func runStatsRefresher(ctx context.Context, provider StatisticsProvider, interval time.Duration) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("could not create scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if err := refreshTicketGauges(ctx, provider); err != nil && ctx.Err() == nil {
				log.FromContext(ctx).WithError(err).Warn("Ticket statistics refresh failed")
			}
		}),
		gocron.WithName("refresh_ticket_gauges"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return fmt.Errorf("could not schedule ticket statistics refresh: %w", err)
	}

	scheduler.Start()
	<-ctx.Done()

	return scheduler.Shutdown()
}
