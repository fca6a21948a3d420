// Package ratelimit provides a fixed-window request limiter for the external
// log API, backed by redis. Without a configured redis address the limiter
// degrades to a no-op.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/jzelenk/adminboard/internal/config"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Limiter decides whether a request identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

// Noop allows everything.
type Noop struct{}

// Allow implements Limiter.
func (Noop) Allow(context.Context, string) bool { return true }

// Redis is a fixed-window limiter using INCR with a window-scoped expiry.
type Redis struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// New builds a limiter from config. An empty redis address yields a Noop.
func New(cfg config.RedisConfig, limit int, window time.Duration) Limiter {
	if cfg.Addr == "" || limit <= 0 || window <= 0 {
		return Noop{}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Redis{client: client, limit: limit, window: window}
}

// Allow implements Limiter. Redis failures fail open so a limiter outage
// cannot take the ingestion API down with it.
func (l *Redis) Allow(ctx context.Context, key string) bool {
	windowKey := fmt.Sprintf("ratelimit:%s:%d", key, time.Now().Unix()/int64(l.window.Seconds()))

	pipe := l.client.TxPipeline()
	count := pipe.Incr(ctx, windowKey)
	pipe.Expire(ctx, windowKey, l.window)
	if _, errExec := pipe.Exec(ctx); errExec != nil {
		log.WithError(errExec).Warn("rate limiter unavailable, allowing request")
		return true
	}
	return count.Val() <= int64(l.limit)
}
