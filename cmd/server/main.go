package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"order-saga/internal/config"
	httpctl "order-saga/internal/controllers/http"
	"order-saga/internal/controllers/messaging"
	"order-saga/internal/infra"
	"order-saga/internal/infra/logging"
	mmysql "order-saga/internal/infra/mysql"
	"order-saga/internal/infra/rabbitmq"
	idem "order-saga/internal/infra/redis"
	mysqlrepo "order-saga/internal/repository/mysql"
	"order-saga/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const consumerTag = "order-saga"

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to a yaml config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("order service stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := mmysql.Open(cfg.MySQL)
	if err != nil {
		return err
	}
	repo := mysqlrepo.NewOrderRepository(db, logger)
	tx := mysqlrepo.NewTransactor(db)

	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})
	defer redisClient.Close()
	dedupe := idem.NewIdempotencyStore(redisClient, "order-saga:payment-event", cfg.Redis.IdempotencyTTL)

	conn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		return err
	}
	defer conn.Close()

	topology := rabbitmq.Topology{
		OrderExchange:      cfg.RabbitMQ.OrderExchange,
		PaymentExchange:    cfg.RabbitMQ.PaymentExchange,
		PaymentRoutingKey:  cfg.RabbitMQ.PaymentRoutingKey,
		PaymentQueue:       cfg.RabbitMQ.PaymentQueue,
		DeadLetterExchange: cfg.RabbitMQ.DeadLetterExchange,
		RetryDelay:         cfg.RabbitMQ.RetryDelay,
	}

	consumeCh, err := conn.Channel()
	if err != nil {
		return err
	}
	defer consumeCh.Close()
	if err := topology.Declare(consumeCh); err != nil {
		return err
	}
	if err := consumeCh.Qos(cfg.RabbitMQ.Prefetch, 0, false); err != nil {
		return err
	}

	publisher, err := rabbitmq.NewPublisher(conn, cfg.RabbitMQ.OrderExchange, logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	svc := services.NewOrderService(services.Dependencies{
		Repo:       repo,
		Tx:         tx,
		Cart:       infra.NewCartClient(cfg.Services.CartURL, cfg.Services.Timeout),
		Catalog:    infra.NewCatalogClient(cfg.Services.CatalogURL, cfg.Services.Timeout),
		Identity:   infra.NewIdentityClient(cfg.Services.IdentityURL, cfg.Services.Timeout),
		Publisher:  publisher,
		Authorizer: services.PrincipalAuthorizer{},
		Logger:     logger,
	})

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), httpctl.RequestLogger(logger))
	httpctl.NewHandler(svc, logger).RegisterRoutes(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	consumer := messaging.NewPaymentConsumer(svc, dedupe, publisher, messaging.Options{
		Topology:      topology,
		MaxRetries:    cfg.RabbitMQ.MaxRetries,
		Workers:       cfg.RabbitMQ.Workers,
		HandleTimeout: cfg.RabbitMQ.HandleTimeout,
	}, logger)

	msgs, err := consumeCh.Consume(topology.PaymentQueue, consumerTag, false, false, false, false, nil)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting order service", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("consuming payment events",
			zap.String("queue", topology.PaymentQueue),
			zap.Int("workers", cfg.RabbitMQ.Workers))
		return consumer.Run(ctx, msgs)
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := consumeCh.Cancel(consumerTag, false); err != nil {
			logger.Warn("cancel consumer", zap.Error(err))
		}
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
