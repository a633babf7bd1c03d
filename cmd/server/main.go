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

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/swiftparcel/parceld/modules/parcels/infrastructure/persistence"
	"github.com/swiftparcel/parceld/modules/parcels/presentation/controllers"
	"github.com/swiftparcel/parceld/modules/parcels/services"
	"github.com/swiftparcel/parceld/pkg/configuration"
	"github.com/swiftparcel/parceld/pkg/eventbus"
	"github.com/swiftparcel/parceld/pkg/middleware"
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

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		panic(err)
	}
	defer pool.Close()

	amqpConn, err := rabbitmq.Dial(conf.AMQP.URL)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to RabbitMQ")
	}
	defer func() { _ = amqpConn.Close() }()

	queueCfg := rabbitmq.Config{
		URL:             conf.AMQP.URL,
		QueueName:       conf.AMQP.QueueName,
		DeadQueueName:   conf.AMQP.DeadQueueName,
		PublishTimeout:  conf.AMQP.PublishTimeout,
		MaxRedeliveries: conf.AMQP.MaxRedeliveries,
		Prefetch:        conf.AMQP.Prefetch,
	}
	publisher := rabbitmq.NewPublisher(amqpConn, queueCfg, logger.WithField("component", "publisher"))

	bus := eventbus.NewEventPublisher(logger)
	registrations := services.NewRegistrationService(
		persistence.NewParcelTypeRepository(),
		publisher,
		bus,
		conf.AMQP.PublishTimeout,
		logger.WithField("component", "registrations"),
	)
	parcels := services.NewParcelService(persistence.NewParcelRepository())
	types := services.NewParcelTypeService(persistence.NewParcelTypeRepository())

	sessions := middleware.NewSessionManager(conf.SessionSecret, conf.SidCookieKey, conf.SessionDuration)

	router := mux.NewRouter()
	router.Use(
		middleware.RequestID(),
		middleware.Logging(logger),
		middleware.WithPool(pool),
		sessions.Middleware(),
	)
	router.HandleFunc("/healthcheck", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
	if conf.Prometheus.Enabled {
		router.Handle(conf.Prometheus.Path, promhttp.Handler()).Methods(http.MethodGet)
	}

	controller := controllers.NewParcelsController(registrations, parcels, types, conf.PageSize, conf.MaxPageSize)
	controller.Register(router)

	handler := cors.New(cors.Options{
		AllowedOrigins:   conf.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}).Handler(router)

	srv := &http.Server{
		Addr:         conf.SocketAddress,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Infof("listening on %s", conf.SocketAddress)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	}
	configuration.Use().Unload()
}
