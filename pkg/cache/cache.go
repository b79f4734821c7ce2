package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrMiss is returned by Get when a key is not cached.
var ErrMiss = fmt.Errorf("cache miss")

// Service provides a JSON cache over redis for upstream API responses.
type Service struct {
	client *redis.Client
	logger *logrus.Logger
}

// NewService creates a new cache service instance.
func NewService(redisClient *redis.Client, logger *logrus.Logger) *Service {
	return &Service{
		client: redisClient,
		logger: logger,
	}
}

// BuildKey constructs consistent, namespaced cache keys.
func (c *Service) BuildKey(elements ...string) string {
	return fmt.Sprintf("scoutline:%s", strings.Join(elements, ":"))
}

// Set stores a value in cache with TTL.
func (c *Service) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.WithError(err).WithField("key", key).Error("Failed to set cache value")
		return err
	}

	c.logger.WithFields(logrus.Fields{
		"key": key,
		"ttl": ttl.String(),
	}).Debug("Cached value successfully")

	return nil
}

// Get retrieves a value from cache into dest.
func (c *Service) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return ErrMiss
		}
		c.logger.WithError(err).WithField("key", key).Error("Failed to get cache value")
		return err
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		c.logger.WithError(err).WithField("key", key).Error("Failed to unmarshal cache value")
		return err
	}

	c.logger.WithField("key", key).Debug("Cache hit")
	return nil
}

// Delete removes values from cache.
func (c *Service) Delete(ctx context.Context, keys ...string) error {
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.WithError(err).WithField("keys", keys).Error("Failed to delete cache value")
		return err
	}
	return nil
}

// Ping reports whether redis is reachable.
func (c *Service) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
