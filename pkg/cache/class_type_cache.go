package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/models"
	"github.com/go-redis/redis/v8"
)

// ClassTypeCache stores class types as JSON under classtype:<tenant>:<id>.
type ClassTypeCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewClassTypeCache(client *redis.Client, ttl time.Duration) *ClassTypeCache {
	return &ClassTypeCache{client: client, ttl: ttl}
}

// NewRedisClient parses url and verifies the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func key(tenant string, id uint) string {
	return fmt.Sprintf("classtype:%s:%d", tenant, id)
}

// Get returns (nil, nil) on a miss.
func (c *ClassTypeCache) Get(ctx context.Context, tenant string, id uint) (*models.ClassType, error) {
	k := key(tenant, id)

	data, err := c.client.Get(ctx, k).Bytes()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var ct models.ClassType
	if err := json.Unmarshal(data, &ct); err != nil {
		c.client.Del(ctx, k)
		return nil, fmt.Errorf("failed to unmarshal class type: %w", err)
	}
	return &ct, nil
}

func (c *ClassTypeCache) Set(ctx context.Context, tenant string, ct *models.ClassType) error {
	data, err := json.Marshal(ct)
	if err != nil {
		return fmt.Errorf("failed to marshal class type: %w", err)
	}
	return c.client.Set(ctx, key(tenant, ct.ID), data, c.ttl).Err()
}

func (c *ClassTypeCache) Invalidate(ctx context.Context, tenant string, id uint) error {
	return c.client.Del(ctx, key(tenant, id)).Err()
}
