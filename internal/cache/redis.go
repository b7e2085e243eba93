// Package cache keeps recent evaluation results in Redis, keyed by request and dataset version.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dealscreener/server/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const keyPrefix = "dealscreener:eval:"

// ResultCache stores evaluations in Redis. Cache failures are logged and treated as misses.
type ResultCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

// NewResultCache connects to Redis at addr and checks the connection.
func NewResultCache(ctx context.Context, addr, password string, db int, ttl time.Duration, logger *logrus.Logger) (*ResultCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 2 * time.Second,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return newResultCache(rdb, ttl, logger), nil
}

func newResultCache(rdb *redis.Client, ttl time.Duration, logger *logrus.Logger) *ResultCache {
	if logger == nil {
		logger = logrus.New()
	}
	return &ResultCache{rdb: rdb, ttl: ttl, logger: logger}
}

// Key derives the cache key for a request evaluated against a dataset version.
func Key(fingerprint string, request any) (string, error) {
	data, err := json.Marshal(request)
	if err != nil {
		return "", err
	}

	h := sha256.New()
	h.Write([]byte(fingerprint))
	h.Write([]byte{0})
	h.Write(data)
	return keyPrefix + hex.EncodeToString(h.Sum(nil)), nil
}

// Get returns the cached evaluation for key.
func (c *ResultCache) Get(ctx context.Context, key string) (*models.Evaluation, bool) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WithError(err).Warn("Cache read failed")
		}
		return nil, false
	}

	var e models.Evaluation
	if err := json.Unmarshal(data, &e); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Discarding unreadable cache entry")
		return nil, false
	}
	return &e, true
}

// Set stores e under key for the configured TTL.
func (c *ResultCache) Set(ctx context.Context, key string, e *models.Evaluation) {
	data, err := json.Marshal(e)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to encode cache entry")
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).Warn("Cache write failed")
	}
}

// Close closes the Redis connection.
func (c *ResultCache) Close() error {
	return c.rdb.Close()
}
