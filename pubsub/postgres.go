package pubsub

import (
	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-sql/v2/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/jmoiron/sqlx"

	"github.com/Hrei2/ticket-system/pubsub/bus"
	"github.com/Hrei2/ticket-system/tracing"
)

// NewPostgresPublisher stores events in per-topic watermill tables of the
// ticket database. Used when no Redis is available.
func NewPostgresPublisher(db *sqlx.DB, watermillLogger watermill.LoggerAdapter) (message.Publisher, error) {
	var publisher message.Publisher
	publisher, err := sql.NewPublisher(db.DB, sql.PublisherConfig{
		SchemaAdapter:        sql.DefaultPostgreSQLSchema{},
		AutoInitializeSchema: true,
	}, watermillLogger)
	if err != nil {
		return nil, err
	}

	publisher = log.CorrelationPublisherDecorator{Publisher: publisher}
	publisher = tracing.PublisherDecorator{Publisher: publisher}
	return publisher, nil
}

func NewPostgresSubscriberConstructor(db *sqlx.DB, watermillLogger watermill.LoggerAdapter) bus.SubscriberConstructor {
	return func(handlerName string) (message.Subscriber, error) {
		return sql.NewSubscriber(db, sql.SubscriberConfig{
			ConsumerGroup:    consumerGroupPrefix + handlerName,
			SchemaAdapter:    sql.DefaultPostgreSQLSchema{},
			OffsetsAdapter:   sql.DefaultPostgreSQLOffsetsAdapter{},
			InitializeSchema: true,
		}, watermillLogger)
	}
}
