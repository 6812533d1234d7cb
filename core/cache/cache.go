package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"go-agenda-sync/core/config"
	"go-agenda-sync/core/constants"
	"go-agenda-sync/core/logger"
)

// Cache is the local store boundary: whole collections are read and written
// per user key, never partial fields. Repositories marshal their own payloads.
type Cache interface {
	GetCollection(ctx context.Context, key string) (string, bool, error)
	PutCollection(ctx context.Context, key string, payload string) error
	RegisterUser(ctx context.Context, userKey string) error
	KnownUsers(ctx context.Context) ([]string, error)
	Close() error
}

type redisCache struct {
	client *redis.Client
}

func NewRedisCache(cfg config.RedisConfig) (Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), constants.DefaultTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Cache:Init:Connected", "addr", cfg.Addr(), "db", cfg.DB)
	return &redisCache{client: client}, nil
}

func (c *redisCache) GetCollection(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		logger.Error("Cache:GetCollection:Error", "error", err, "key", key)
		return "", false, err
	}
	return val, true, nil
}

func (c *redisCache) PutCollection(ctx context.Context, key string, payload string) error {
	if err := c.client.Set(ctx, key, payload, 0).Err(); err != nil {
		logger.Error("Cache:PutCollection:Error", "error", err, "key", key)
		return err
	}
	return nil
}

func (c *redisCache) RegisterUser(ctx context.Context, userKey string) error {
	return c.client.SAdd(ctx, constants.RedisKeyKnownUsers, userKey).Err()
}

func (c *redisCache) KnownUsers(ctx context.Context) ([]string, error) {
	users, err := c.client.SMembers(ctx, constants.RedisKeyKnownUsers).Result()
	if err != nil {
		logger.Error("Cache:KnownUsers:Error", "error", err)
		return nil, err
	}
	return users, nil
}

func (c *redisCache) Close() error {
	return c.client.Close()
}
