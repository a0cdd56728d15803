package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gartstein/placement/internal/placement/auth"
	"github.com/gartstein/placement/internal/placement/config"
	"github.com/gartstein/placement/internal/placement/controller"
	gorm "github.com/gartstein/placement/internal/placement/db"
	"github.com/gartstein/placement/internal/placement/events"
	"github.com/gartstein/placement/internal/placement/handlers"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const startupTimeout = time.Minute

func main() {
	logger := initLogger()
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	repo, err := connectDatabase(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error("failed to close database", zap.Error(err))
		}
	}()

	producer, closeProducer := initProducer(cfg, logger)
	defer closeProducer()

	placementSvc := controller.NewPlacementService(repo, producer, logger)
	placementHandler := handlers.NewPlacementHandler(placementSvc, logger)

	authInterceptor := auth.NewAuthInterceptor(cfg.JWTSecret, handlers.PublicMethods()...)
	server := handlers.NewServer(cfg.GRPCPort, cfg.HTTPPort, logger,
		grpc.ChainUnaryInterceptor(
			handlers.TimeoutInterceptor(cfg.RequestTimeout),
			authInterceptor.Unary(),
		),
	)
	server.RegisterGRPCHandler(placementHandler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := server.RegisterHTTPGateway(
		ctx,
		[]grpc.DialOption{
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		},
		handlers.HTTPOptions{
			JWTSecret:      cfg.JWTSecret,
			RequestTimeout: cfg.RequestTimeout,
			Limiter:        initLimiter(cfg, logger),
			RateLimit:      cfg.RateLimit,
			RateWindow:     cfg.RateWindow,
			TrustProxy:     cfg.TrustProxy,
		}); err != nil {
		logger.Fatal("Failed to register HTTP gateway", zap.Error(err))
	}

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Failed to start servers", zap.Error(err))
		}
	}()

	waitForShutdown(server, logger)
}

// initLogger initializes a Zap production logger.
func initLogger() *zap.Logger {
	logger, _ := zap.NewProduction()
	return logger
}

// connectDatabase opens the entity store, retrying while the database comes up.
func connectDatabase(cfg *config.Config, logger *zap.Logger) (*gorm.Repository, error) {
	dbConf := &gorm.Config{
		Driver:     cfg.DBDriver,
		Host:       cfg.DBHost,
		Port:       cfg.DBPort,
		User:       cfg.DBUser,
		Password:   cfg.DBPassword,
		DBName:     cfg.DBName,
		SSLMode:    cfg.DBSSLMode,
		SQLitePath: cfg.SQLitePath,
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = startupTimeout
	return backoff.RetryNotifyWithData(func() (*gorm.Repository, error) {
		return gorm.NewRepository(dbConf)
	}, policy, func(err error, next time.Duration) {
		logger.Warn("database not ready, retrying", zap.Error(err), zap.Duration("next", next))
	})
}

// initProducer connects the lifecycle event producer. Without brokers events are discarded.
func initProducer(cfg *config.Config, logger *zap.Logger) (controller.EventProducer, func()) {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Warn("no Kafka brokers configured, lifecycle events are discarded")
		return events.NopProducer{}, func() {}
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = startupTimeout
	producer, err := backoff.RetryNotifyWithData(func() (*events.Producer, error) {
		return events.NewProducer(cfg.KafkaBrokers, logger, cfg.Topic)
	}, policy, func(err error, next time.Duration) {
		logger.Warn("Kafka not ready, retrying", zap.Error(err), zap.Duration("next", next))
	})
	if err != nil {
		logger.Fatal("failed to initialize Kafka producer", zap.Error(err))
	}
	return producer, producer.Close
}

// initLimiter shares rate limits through Redis when REDIS_ADDR is set.
func initLimiter(cfg *config.Config, logger *zap.Logger) handlers.Limiter {
	if cfg.RedisAddr == "" {
		return handlers.NewRateLimiter()
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis unavailable, using in-process rate limiter", zap.Error(err))
		_ = client.Close()
		return handlers.NewRateLimiter()
	}
	return handlers.NewRedisLimiter(client, "placement:ratelimit:")
}

// waitForShutdown blocks until an interrupt or SIGTERM is received, then shuts down servers.
func waitForShutdown(server *handlers.Server, logger *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	server.Stop()
	logger.Info("Servers stopped properly")
}
