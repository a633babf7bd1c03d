package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/swiftparcel/parceld/modules/parcels/domain/aggregates/parcel"
	"github.com/swiftparcel/parceld/modules/parcels/infrastructure/persistence"
	"github.com/swiftparcel/parceld/modules/parcels/infrastructure/rates"
	"github.com/swiftparcel/parceld/modules/parcels/services"
	"github.com/swiftparcel/parceld/pkg/composables"
	"github.com/swiftparcel/parceld/pkg/configuration"
	"github.com/swiftparcel/parceld/pkg/eventbus"
	"github.com/swiftparcel/parceld/pkg/rabbitmq"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			configuration.Use().Unload()
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	logger := conf.Logger()

	rootCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dialCtx, dialCancel := context.WithTimeout(rootCtx, 5*time.Second)
	defer dialCancel()
	pool, err := pgxpool.New(dialCtx, conf.Database.Opts)
	if err != nil {
		panic(err)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr: conf.Rates.RedisURL,
		DB:   conf.Rates.RedisDB,
	})
	defer func() { _ = redisClient.Close() }()

	amqpConn, err := rabbitmq.Dial(conf.AMQP.URL)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to RabbitMQ")
	}
	defer func() { _ = amqpConn.Close() }()

	rateCache := rates.NewCache(
		rates.NewRedisStore(redisClient),
		rates.NewCBRProvider(conf.Rates.ProviderURL, &http.Client{Timeout: conf.Rates.ProviderTimeout}),
		conf.Rates.CacheKey,
		conf.Rates.CacheTTL,
		logger.WithField("component", "rates"),
	)

	bus := eventbus.NewEventPublisher(logger)
	bus.Subscribe(func(e parcel.ParcelProcessed) {
		logger.WithFields(logrus.Fields{
			"parcel_id":           e.ParcelID,
			"event_id":            e.EventID,
			"delivery_cost_cents": e.DeliveryCostCents,
		}).Debug("parcel processed event")
	})

	processor := services.NewProcessingService(
		persistence.NewParcelRepository(),
		rateCache,
		bus,
		logger.WithField("component", "processor"),
	)

	// Repositories resolve the pool through the context; InTx needs it
	// present on every message's context.
	consumeCtx := composables.WithPool(rootCtx, pool)

	handler := func(ctx context.Context, body []byte) error {
		err := processor.ProcessPayload(ctx, body)
		if errors.Is(err, parcel.ErrDecode) {
			// Corrupt bytes cannot be repaired by redelivery.
			return errors.Join(rabbitmq.ErrPermanentFailure, err)
		}
		return err
	}

	queueCfg := rabbitmq.Config{
		URL:             conf.AMQP.URL,
		QueueName:       conf.AMQP.QueueName,
		DeadQueueName:   conf.AMQP.DeadQueueName,
		PublishTimeout:  conf.AMQP.PublishTimeout,
		MaxRedeliveries: conf.AMQP.MaxRedeliveries,
		Prefetch:        conf.AMQP.Prefetch,
	}
	consumer := rabbitmq.NewConsumer(amqpConn, queueCfg, handler, logger.WithField("component", "consumer"))

	if conf.Prometheus.Enabled && conf.Prometheus.Addr != "" {
		go serveMetrics(conf.Prometheus.Addr, conf.Prometheus.Path, logger)
	}

	if err := consumer.Run(consumeCtx); err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Error("consumer stopped")
	}
	configuration.Use().Unload()
}

func serveMetrics(addr, path string, logger *logrus.Logger) {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())
	logger.Infof("metrics listening on %s%s", addr, path)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.WithError(err).Warn("metrics listener failed")
	}
}
