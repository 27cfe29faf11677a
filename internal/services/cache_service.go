package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rideshare/pkg/cache"
	"rideshare/pkg/logger"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = cache.ErrCacheMiss

type CacheService interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// RedisClient is the subset of the Redis cache the service needs.
type RedisClient interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type cacheService struct {
	redisClient RedisClient
	logger      *logger.Logger
	defaultTTL  time.Duration
	keyPrefix   string
}

func NewCacheService(redisClient RedisClient, logger *logger.Logger, keyPrefix string, defaultTTL time.Duration) CacheService {
	return &cacheService{
		redisClient: redisClient,
		logger:      logger,
		keyPrefix:   keyPrefix,
		defaultTTL:  defaultTTL,
	}
}

func (s *cacheService) Get(ctx context.Context, key string, dest interface{}) error {
	err := s.redisClient.Get(ctx, s.buildKey(key), dest)
	if err == nil {
		return nil
	}
	if errors.Is(err, cache.ErrCacheMiss) {
		return ErrCacheMiss
	}

	s.logger.WithError(err).WithField("key", key).Warn("Cache read failed")
	return fmt.Errorf("failed to get cache key: %w", err)
}

func (s *cacheService) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if expiration == 0 {
		expiration = s.defaultTTL
	}

	if err := s.redisClient.Set(ctx, s.buildKey(key), value, expiration); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Cache write failed")
		return fmt.Errorf("failed to set cache key: %w", err)
	}

	return nil
}

func (s *cacheService) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	fullKeys := make([]string, len(keys))
	for i, key := range keys {
		fullKeys[i] = s.buildKey(key)
	}

	if err := s.redisClient.Delete(ctx, fullKeys...); err != nil {
		return fmt.Errorf("failed to delete cache keys: %w", err)
	}

	return nil
}

func (s *cacheService) buildKey(key string) string {
	if s.keyPrefix == "" {
		return key
	}
	return s.keyPrefix + ":" + key
}
