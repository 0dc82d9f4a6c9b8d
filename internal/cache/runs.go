// Package cache holds the Redis-backed cache of per-location run summaries,
// so the API can answer "what did the last run produce" without touching the
// database.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/renatond/dbi-replenishment/internal/config"
	"github.com/renatond/dbi-replenishment/internal/domain"
)

const (
	runSummaryKeyPrefix = "run:latest:"
	scanBatchSize       = 100
	defaultRunTTL       = 5 * time.Minute
)

type RunSummaryCache interface {
	GetLatest(ctx context.Context, location string) (*domain.Run, bool, error)
	SetLatest(ctx context.Context, run *domain.Run) error
	InvalidateAll(ctx context.Context) error
}

type redisRunCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopRunCache struct{}

func NewRunCache(cfg config.CacheConfig) (RunSummaryCache, error) {
	if !cfg.Enabled {
		return &noopRunCache{}, nil
	}

	opts, err := buildRedisOptions(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	ttl := time.Duration(cfg.RunTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = defaultRunTTL
	}

	return &redisRunCache{client: client, ttl: ttl}, nil
}

func NewNoopRunCache() RunSummaryCache {
	return &noopRunCache{}
}

func (c *redisRunCache) GetLatest(ctx context.Context, location string) (*domain.Run, bool, error) {
	payload, err := c.client.Get(ctx, runSummaryKeyPrefix+location).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var run domain.Run
	if err := json.Unmarshal(payload, &run); err != nil {
		return nil, false, fmt.Errorf("decode run summary cache: %w", err)
	}
	return &run, true, nil
}

func (c *redisRunCache) SetLatest(ctx context.Context, run *domain.Run) error {
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("encode run summary cache: %w", err)
	}

	if err := c.client.Set(ctx, runSummaryKeyPrefix+run.Location, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisRunCache) InvalidateAll(ctx context.Context) error {
	var cursor uint64
	for {
		keys, nextCursor, err := c.client.Scan(ctx, cursor, runSummaryKeyPrefix+"*", scanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("redis scan failed: %w", err)
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis delete failed: %w", err)
			}
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	return nil
}

func (n *noopRunCache) GetLatest(ctx context.Context, location string) (*domain.Run, bool, error) {
	return nil, false, nil
}

func (n *noopRunCache) SetLatest(ctx context.Context, run *domain.Run) error { return nil }

func (n *noopRunCache) InvalidateAll(ctx context.Context) error { return nil }

func buildRedisOptions(cfg config.CacheConfig) (*redis.Options, error) {
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opt, nil
	}

	host := cfg.RedisHost
	if host == "" {
		host = "127.0.0.1"
	}

	port := cfg.RedisPort
	if port == "" {
		port = "6379"
	}

	return &redis.Options{
		Addr:     net.JoinHostPort(host, port),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, nil
}
