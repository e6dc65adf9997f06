package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/sync/errgroup"

	"github.com/Hrei2/ticket-system/config"
	dbLib "github.com/Hrei2/ticket-system/db"
	historyRepo "github.com/Hrei2/ticket-system/db/history"
	"github.com/Hrei2/ticket-system/db/sequence"
	settingsRepo "github.com/Hrei2/ticket-system/db/settings"
	"github.com/Hrei2/ticket-system/db/tickets"
	"github.com/Hrei2/ticket-system/db/txn"
	"github.com/Hrei2/ticket-system/history"
	"github.com/Hrei2/ticket-system/http"
	"github.com/Hrei2/ticket-system/lifecycle"
	"github.com/Hrei2/ticket-system/numbering"
	"github.com/Hrei2/ticket-system/pubsub"
	"github.com/Hrei2/ticket-system/pubsub/bus"
	"github.com/Hrei2/ticket-system/pubsub/event"
	"github.com/Hrei2/ticket-system/settings"
)

type App struct {
	db              *sqlx.DB
	watermillRouter *message.Router
	httpServer      *http.Server
	tickets         *lifecycle.Service
	statsInterval   time.Duration
	traceProvider   *tracesdk.TracerProvider
}

// New wires the service. redisClient may be nil when neither the sequence
// nor the notifications use Redis. webhook is optional.
func New(
	cfg config.Config,
	db *sqlx.DB,
	redisClient *redis.Client,
	mailer event.Mailer,
	webhook event.Webhook,
	traceProvider *tracesdk.TracerProvider,
) App {
	watermillLogger := log.NewWatermill(log.FromContext(context.Background()))
	clock := clockwork.NewRealClock()

	publisher, newSubscriber := newTransport(cfg, db, redisClient, watermillLogger)

	eventBus, err := bus.NewEventBus(publisher, watermillLogger)
	if err != nil {
		panic(fmt.Errorf("failed to create event bus: %w", err))
	}

	watermillRouter, err := pubsub.NewWatermillRouter(
		bus.NewEventProcessorConfig(newSubscriber, watermillLogger),
		event.NewHandler(mailer, webhook).EventHandlers(),
		pubsub.DefaultRetryConfig,
		watermillLogger,
	)
	if err != nil {
		panic(fmt.Errorf("failed to create watermill router: %w", err))
	}

	ledger := history.NewLedger(historyRepo.NewPostgresRepository(db), clock)
	registry := settings.NewRegistry(settingsRepo.NewPostgresRepository(db))

	ticketService := lifecycle.NewService(
		tickets.NewPostgresRepository(db),
		numbering.NewAllocator(newSequence(cfg, db, redisClient)),
		txn.NewPostgresTransactor(db, clock),
		registry,
		pubsub.NewNotifier(eventBus),
		clock,
		cfg.StoreTimeout,
	)

	httpServer := http.NewServer(
		cfg.HTTPAddr,
		cfg.JWTSecret,
		ticketService,
		ledger,
		registry,
	)

	return App{
		db:              db,
		watermillRouter: watermillRouter,
		httpServer:      httpServer,
		tickets:         ticketService,
		statsInterval:   cfg.StatsRefreshInterval,
		traceProvider:   traceProvider,
	}
}

func newTransport(
	cfg config.Config,
	db *sqlx.DB,
	redisClient *redis.Client,
	watermillLogger watermill.LoggerAdapter,
) (message.Publisher, bus.SubscriberConstructor) {
	if cfg.NotifyTransport == config.BackendPostgres {
		publisher, err := pubsub.NewPostgresPublisher(db, watermillLogger)
		if err != nil {
			panic(fmt.Errorf("failed to create postgres publisher: %w", err))
		}
		return publisher, pubsub.NewPostgresSubscriberConstructor(db, watermillLogger)
	}

	if redisClient == nil {
		panic("missing redis client")
	}
	publisher, err := pubsub.NewRedisPublisher(redisClient, watermillLogger)
	if err != nil {
		panic(fmt.Errorf("failed to create redis publisher: %w", err))
	}
	return publisher, pubsub.NewRedisSubscriberConstructor(redisClient, watermillLogger)
}

func newSequence(cfg config.Config, db *sqlx.DB, redisClient *redis.Client) numbering.Sequence {
	if cfg.SequenceBackend == config.BackendRedis {
		if redisClient == nil {
			panic("missing redis client")
		}
		return numbering.NewRedisSequence(redisClient)
	}
	return sequence.NewPostgresSequence(db)
}

func (a App) Run(ctx context.Context) error {
	if err := dbLib.InitializeDatabaseSchema(a.db); err != nil {
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.watermillRouter.Run(ctx)
	})

	g.Go(func() error {
		// the service is not healthy before the router is ready
		select {
		case <-a.watermillRouter.Running():
		case <-ctx.Done():
			return nil
		}

		return a.httpServer.Run(ctx)
	})

	g.Go(func() error {
		return runStatsRefresher(ctx, a.tickets, a.statsInterval)
	})

	if a.traceProvider != nil {
		g.Go(func() error {
			<-ctx.Done()
			return a.traceProvider.Shutdown(context.Background())
		})
	}

	return g.Wait()
}
