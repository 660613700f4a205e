// Package cache keeps segmentation results per period in Redis.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/akhsyaUbaidika/analisa-hafalan-al-muhajirin/internal/model"
)

const (
	keyPrefix  = "hafalan:segment:"
	DefaultTTL = 10 * time.Minute
	scanBatch  = 100
)

// SegmentCache stores segmented records of a period. Entries are scoped by the
// fingerprint of the segmenter configuration that produced them.
type SegmentCache interface {
	// Get reports false on a miss.
	Get(ctx context.Context, fingerprint string, p model.Period) ([]model.SegmentedRecord, bool, error)
	Set(ctx context.Context, fingerprint string, p model.Period, records []model.SegmentedRecord) error
	// Invalidate drops p under every fingerprint.
	Invalidate(ctx context.Context, p model.Period) error
	InvalidateAll(ctx context.Context) error
	Close() error
}

// Open connects to Redis at addr. An empty addr disables caching.
func Open(ctx context.Context, addr string, ttl time.Duration) (SegmentCache, error) {
	if addr == "" {
		return Noop{}, nil
	}
	addr = strings.TrimPrefix(addr, "redis://")
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		if cerr := client.Close(); cerr != nil {
			// Best-effort close on ping failure.
			_ = cerr
		}
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return NewRedis(client, ttl), nil
}

// Redis is a SegmentCache backed by a Redis client.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis wraps client. A non-positive ttl means DefaultTTL.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl}
}

// Key returns the cache key of period p under a segmenter fingerprint.
func Key(fingerprint string, p model.Period) string {
	return fmt.Sprintf("%s%s:%s", keyPrefix, fingerprint, periodSuffix(p))
}

func periodSuffix(p model.Period) string {
	return fmt.Sprintf("%d:%s:%d", p.Year, p.Month, p.Week)
}

func (c *Redis) Get(ctx context.Context, fingerprint string, p model.Period) ([]model.SegmentedRecord, bool, error) {
	data, err := c.client.Get(ctx, Key(fingerprint, p)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var records []model.SegmentedRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached segmentation: %w", err)
	}
	return records, true, nil
}

func (c *Redis) Set(ctx context.Context, fingerprint string, p model.Period, records []model.SegmentedRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, Key(fingerprint, p), data, c.ttl).Err()
}

func (c *Redis) Invalidate(ctx context.Context, p model.Period) error {
	return c.deleteMatching(ctx, keyPrefix+"*:"+periodSuffix(p))
}

// InvalidateAll removes every cached period.
func (c *Redis) InvalidateAll(ctx context.Context) error {
	return c.deleteMatching(ctx, keyPrefix+"*")
}

func (c *Redis) deleteMatching(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (c *Redis) Close() error {
	return c.client.Close()
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string, model.Period) ([]model.SegmentedRecord, bool, error) {
	return nil, false, nil
}

func (Noop) Set(context.Context, string, model.Period, []model.SegmentedRecord) error { return nil }

func (Noop) Invalidate(context.Context, model.Period) error { return nil }

func (Noop) InvalidateAll(context.Context) error { return nil }

func (Noop) Close() error { return nil }
