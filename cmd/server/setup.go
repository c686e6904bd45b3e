package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"nihilism-server/internal/config"
	"nihilism-server/internal/messaging"
	"nihilism-server/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rabbitmq/amqp091-go"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.uber.org/zap"
)

const (
	maxConnectRetries = 50
	connectRetryDelay = 3 * time.Second
)

// setupStore builds the snapshot store selected by STORE_TYPE. The returned
// func releases its connections.
func setupStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.PlayerStore, func(), error) {
	switch cfg.StoreType {
	case config.StoreTypePostgres:
		pool, err := setupPostgres(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := repository.NewMigrator(pool, logger).Up(); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
		zap.L().Info("Using PostgreSQL player store")
		return repository.NewPgPlayerRepository(pool, logger), pool.Close, nil

	case config.StoreTypeRedis:
		client, err := setupRedis(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		zap.L().Info("Using Redis player store", zap.String("keyPrefix", cfg.RedisKeyPrefix))
		closeFn := func() {
			if err := client.Close(); err != nil {
				zap.L().Warn("Failed to close Redis client", zap.Error(err))
			}
		}
		return repository.NewRedisPlayerRepository(client, cfg.RedisKeyPrefix, logger), closeFn, nil

	default:
		store, err := repository.NewFilePlayerRepository(cfg.DataDir, logger)
		if err != nil {
			return nil, nil, err
		}
		zap.L().Info("Using file player store", zap.String("dir", cfg.DataDir))
		return store, func() {}, nil
	}
}

// setupPostgres initializes the PostgreSQL connection pool with retry logic.
func setupPostgres(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	zap.L().Debug("Setting up PostgreSQL connection...")
	poolConfig, err := pgxpool.ParseConfig(cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("unable to parse postgres config: %w", err)
	}
	poolConfig.MaxConns = cfg.DBMaxConns
	poolConfig.MaxConnIdleTime = cfg.DBIdleTimeout

	var lastErr error
	zap.L().Info("Attempting to connect to PostgreSQL", zap.Int("max_retries", maxConnectRetries), zap.Duration("retry_delay", connectRetryDelay))

	for i := 0; i < maxConnectRetries; i++ {
		attempt := i + 1
		connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
		pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
		connectCancel()
		if err != nil {
			lastErr = fmt.Errorf("unable to create postgres connection pool (attempt %d/%d): %w", attempt, maxConnectRetries, err)
			zap.L().Warn("Postgres connection pool creation failed, retrying...", zap.Int("attempt", attempt), zap.Error(err))
			time.Sleep(connectRetryDelay)
			continue
		}

		pingCtx, pingCancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = pool.Ping(pingCtx)
		pingCancel()
		if err == nil {
			zap.L().Info("Successfully connected and pinged PostgreSQL", zap.Int("attempt", attempt))
			return pool, nil
		}

		pool.Close()
		lastErr = fmt.Errorf("unable to ping postgres database (attempt %d/%d): %w", attempt, maxConnectRetries, err)
		zap.L().Warn("Postgres ping failed, retrying...", zap.Int("attempt", attempt), zap.Error(err))
		time.Sleep(connectRetryDelay)
	}

	return nil, fmt.Errorf("failed to connect to postgres after %d attempts: %w", maxConnectRetries, lastErr)
}

// setupRedis initializes the Redis client with retry logic.
func setupRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	zap.L().Info("Attempting to connect and ping Redis", zap.String("address", opts.Addr), zap.Int("db", opts.DB))

	var lastErr error
	for i := 0; i < maxConnectRetries; i++ {
		attempt := i + 1
		client := redis.NewClient(opts)

		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx).Err()
		pingCancel()
		if err == nil {
			zap.L().Info("Successfully connected and pinged Redis", zap.Int("attempt", attempt))
			return client, nil
		}

		_ = client.Close()
		lastErr = fmt.Errorf("unable to ping redis (attempt %d/%d): %w", attempt, maxConnectRetries, err)
		zap.L().Warn("Redis ping failed, retrying...", zap.Int("attempt", attempt), zap.Error(err))
		time.Sleep(connectRetryDelay)
	}

	return nil, fmt.Errorf("failed to connect to redis after %d attempts: %w", maxConnectRetries, lastErr)
}

// setupPublisher connects to RabbitMQ when RABBITMQ_URL is set; otherwise
// events are dropped.
func setupPublisher(cfg *config.Config, logger *zap.Logger) (messaging.EventPublisher, func(), error) {
	if cfg.RabbitMQURL == "" {
		zap.L().Info("RABBITMQ_URL is empty, domain events are disabled")
		return messaging.NoopPublisher{}, func() {}, nil
	}

	conn, err := connectRabbitMQ(cfg.RabbitMQURL, logger)
	if err != nil {
		return nil, nil, err
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	mqLog := zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("component", "EventPublisher").Logger()

	pub, err := messaging.NewRabbitMQEventPublisher(conn, cfg.EventsExchange, mqLog)
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}

	closeFn := func() {
		if err := pub.Close(); err != nil {
			zap.L().Warn("Failed to close event publisher channel", zap.Error(err))
		}
		if err := conn.Close(); err != nil {
			zap.L().Warn("Failed to close RabbitMQ connection", zap.Error(err))
		}
	}
	return pub, closeFn, nil
}

// connectRabbitMQ dials RabbitMQ with retries.
func connectRabbitMQ(rawURL string, logger *zap.Logger) (*amqp091.Connection, error) {
	var err error
	retryDelay := 5 * time.Second
	logger.Info("Attempting to connect to RabbitMQ",
		zap.String("url", maskURL(rawURL)),
		zap.Int("max_retries", maxConnectRetries),
		zap.Duration("retry_delay", retryDelay),
	)
	for i := 0; i < maxConnectRetries; i++ {
		attempt := i + 1
		var conn *amqp091.Connection
		conn, err = amqp091.Dial(rawURL)
		if err == nil {
			logger.Info("Successfully connected to RabbitMQ", zap.Int("attempt", attempt))
			go func() {
				notifyClose := conn.NotifyClose(make(chan *amqp091.Error, 1))
				if closeErr := <-notifyClose; closeErr != nil {
					logger.Error("RabbitMQ connection closed unexpectedly", zap.Error(closeErr))
				} else {
					logger.Info("RabbitMQ connection closed gracefully.")
				}
			}()
			return conn, nil
		}
		logger.Warn("RabbitMQ connection failed, retrying...", zap.Int("attempt", attempt), zap.Error(err))
		time.Sleep(retryDelay)
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", maxConnectRetries, err)
}

// maskURL hides the password of a connection URL for logging.
func maskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Redacted()
}
