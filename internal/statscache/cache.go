// Package statscache keeps the latest revenue statistics in Redis and
// refreshes them in the background.
package statscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gymdesk/internal/logger"
	"gymdesk/internal/payment"

	"github.com/redis/go-redis/v9"
)

const statsKey = "gymdesk:stats:payments"

// Source computes fresh statistics.
type Source interface {
	Statistics(ctx context.Context) (*payment.Statistics, error)
}

type Cache struct {
	redis  *redis.Client
	source Source
	ttl    time.Duration
}

func New(rdb *redis.Client, source Source, ttl time.Duration) *Cache {
	return &Cache{redis: rdb, source: source, ttl: ttl}
}

// Statistics serves the cached snapshot, computing and storing a new one on
// a miss. Redis failures fall through to the source.
func (c *Cache) Statistics(ctx context.Context) (*payment.Statistics, error) {
	raw, err := c.redis.Get(ctx, statsKey).Result()
	switch {
	case err == nil:
		var st payment.Statistics
		if err := json.Unmarshal([]byte(raw), &st); err == nil {
			return &st, nil
		}
		logger.Warn("discarding unreadable statistics snapshot")
	case !errors.Is(err, redis.Nil):
		logger.Warn("statistics cache read failed", "error", err)
	}
	return c.Refresh(ctx)
}

// Refresh recomputes the statistics and stores them. A failed store is
// logged; the fresh value is still returned.
func (c *Cache) Refresh(ctx context.Context) (*payment.Statistics, error) {
	st, err := c.source.Statistics(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("marshal statistics: %w", err)
	}
	if err := c.redis.Set(ctx, statsKey, string(data), c.ttl).Err(); err != nil {
		logger.Warn("statistics cache write failed", "error", err)
	}
	return st, nil
}

// Invalidate drops the snapshot so the next read recomputes it.
func (c *Cache) Invalidate(ctx context.Context) error {
	if err := c.redis.Del(ctx, statsKey).Err(); err != nil {
		return fmt.Errorf("invalidate statistics: %w", err)
	}
	return nil
}

// Run refreshes the snapshot every interval until ctx is cancelled. It only
// reads the ledger.
func (c *Cache) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("statistics refresher started", "interval", interval.String())
	for {
		select {
		case <-ctx.Done():
			logger.Info("statistics refresher stopped")
			return
		case <-ticker.C:
			if _, err := c.Refresh(ctx); err != nil {
				logger.Error("statistics refresh failed", "error", err)
			}
		}
	}
}
