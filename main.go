package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/jessevdk/go-flags"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/Hrei2/ticket-system/app"
	"github.com/Hrei2/ticket-system/config"
	"github.com/Hrei2/ticket-system/db"
	"github.com/Hrei2/ticket-system/gateway"
	"github.com/Hrei2/ticket-system/pubsub"
	"github.com/Hrei2/ticket-system/pubsub/event"
	"github.com/Hrei2/ticket-system/tracing"
)

func main() {
	log.Init(logrus.InfoLevel)

	cfg, err := config.Load(os.Args[1:])
	var flagsErr *flags.Error
	if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
		_, _ = os.Stdout.WriteString(flagsErr.Message + "\n")
		return
	}
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}
	logrus.SetLevel(cfg.Level())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	traceProvider, err := tracing.ConfigureTraceProvider(cfg.JaegerEndpoint)
	if err != nil {
		logrus.WithError(err).Fatal("Could not configure tracing")
	}

	dbconn, err := db.Open(cfg.PostgresURL)
	if err != nil {
		logrus.WithError(err).Fatal("Could not connect to Postgres")
	}
	defer dbconn.Close()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = pubsub.NewRedisClient(cfg.RedisAddr)
		defer redisClient.Close()
	}

	var mailer event.Mailer = gateway.LogMailer{}
	if cfg.SMTP.Host != "" {
		mailer = gateway.NewSMTPMailer(gateway.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	}

	var webhook event.Webhook
	if cfg.WebhookURL != "" {
		webhook = gateway.NewWebhookNotifier(cfg.WebhookURL)
	}

	err = app.New(cfg, dbconn, redisClient, mailer, webhook, traceProvider).Run(ctx)
	if err != nil {
		logrus.WithError(err).Error("Service stopped with error")
		os.Exit(1)
	}
}
