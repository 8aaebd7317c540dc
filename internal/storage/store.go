package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Backend names accepted by Open
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Store is a durable string key-value slot
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Options selects and configures a backend
type Options struct {
	Backend       string
	RedisURL      string
	RedisPassword string
	PostgresDSN   string
}

// Open connects to the configured backend and verifies it is reachable
func Open(ctx context.Context, opts Options, logger *zap.SugaredLogger) (Store, error) {
	switch opts.Backend {
	case BackendMemory, "":
		logger.Infow("using in-memory store")
		return NewMemoryStore(), nil

	case BackendRedis:
		redisOpts, err := redis.ParseURL(opts.RedisURL)
		if err != nil {
			// Plain host:port, as in REDIS_URL=localhost:6380
			redisOpts = &redis.Options{Addr: opts.RedisURL}
		}
		if opts.RedisPassword != "" {
			redisOpts.Password = opts.RedisPassword
		}

		client := redis.NewClient(redisOpts)
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		logger.Infow("connected to redis", "addr", redisOpts.Addr)
		return NewRedisStore(client), nil

	case BackendPostgres:
		store, err := NewPostgresStore(opts.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := store.Ping(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, err
		}
		logger.Infow("connected to postgres")
		return store, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}
