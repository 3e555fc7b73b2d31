package app

import (
	"context"
	"upmon/config"
	"upmon/internals/modules/aggregator"
	"upmon/internals/modules/alert"
	"upmon/internals/modules/checker"
	"upmon/internals/modules/monitor"
	"upmon/internals/modules/scheduler"
	"upmon/pkg/httpclient"
	"upmon/pkg/rabbitmq"
	"upmon/pkg/redisstore"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

type Container struct {
	DB           *pgxpool.Pool
	RedisClient  *redisstore.Client
	RabbitConn   *amqp091.Connection
	Logger       *zerolog.Logger
	Scheduler    *scheduler.Scheduler
	Aggregator   *aggregator.Aggregator
	Consumer     *rabbitmq.Consumer
	publisher    *rabbitmq.Publisher
	checkHandler *checker.Handler
}

func NewContainer(ctx context.Context, db *pgxpool.Pool, cfg *config.Config, logger *zerolog.Logger) (*Container, error) {

	redisClient, err := redisstore.New(cfg.Redis)
	if err != nil {
		return nil, err
	}

	rabbitConn, err := rabbitmq.NewConnection(cfg.RabbitMQ, logger)
	if err != nil {
		redisClient.Close()
		return nil, err
	}
	if err := rabbitmq.SetupTopology(rabbitConn, cfg.RabbitMQ); err != nil {
		rabbitConn.Close()
		redisClient.Close()
		return nil, err
	}

	publisher, err := rabbitmq.NewPublisher(rabbitConn, cfg.RabbitMQ.ExchangeName, cfg.RabbitMQ.RoutingKey)
	if err != nil {
		rabbitConn.Close()
		redisClient.Close()
		return nil, err
	}

	consumer, err := rabbitmq.NewConsumer(rabbitConn, cfg.RabbitMQ.QueueName, cfg.RabbitMQ.Prefetch, logger)
	if err != nil {
		publisher.Close()
		rabbitConn.Close()
		redisClient.Close()
		return nil, err
	}

	monitorRepo := monitor.NewRepository(db, logger)

	sch := scheduler.NewScheduler(cfg.Scheduler, monitorRepo, publisher, logger)

	prober := checker.NewProber(cfg.Checker, httpclient.NewProbeClient())
	checkHandler := checker.NewHandler(cfg.Checker, cfg.Aggregator.ResultTTL, prober, redisClient, logger)

	mailer := alert.NewMailer(cfg.Mail, httpclient.NewHttpClient(), logger)
	agg := aggregator.NewAggregator(cfg.Aggregator, cfg.Mail.DashboardURL, redisClient, monitorRepo, mailer, logger)

	return &Container{
		DB:           db,
		RedisClient:  redisClient,
		RabbitConn:   rabbitConn,
		Logger:       logger,
		Scheduler:    sch,
		Aggregator:   agg,
		Consumer:     consumer,
		publisher:    publisher,
		checkHandler: checkHandler,
	}, nil
}

func (c *Container) Shutdown(ctx context.Context) error {
	if c.Consumer != nil {
		if err := c.Consumer.Shutdown(ctx); err != nil {
			c.Logger.Error().Err(err).Msg("consumer shutdown failed")
		}
	}

	if c.publisher != nil {
		if err := c.publisher.Close(); err != nil {
			c.Logger.Error().Err(err).Msg("publisher close failed")
		}
	}

	if c.RabbitConn != nil && !c.RabbitConn.IsClosed() {
		if err := c.RabbitConn.Close(); err != nil {
			c.Logger.Error().Err(err).Msg("rabbitmq connection close failed")
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Error().Err(err).Msg("redis close failed")
		}
	}

	if c.DB != nil {
		c.DB.Close()
	}
	return nil
}
