package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mavvricks/eloque/config"
	"github.com/mavvricks/eloque/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client          *redis.Client
	availabilityTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, availabilityTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:          redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		availabilityTTL: availabilityTTL,
	}
}

func (c *RedisCache) GetAvailability(ctx context.Context, date string) (*domain.Availability, error) {
	data, err := c.client.Get(ctx, availabilityKey(date)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var avail domain.Availability
	if err := json.Unmarshal(data, &avail); err != nil {
		return nil, err
	}
	return &avail, nil
}

func (c *RedisCache) SetAvailability(ctx context.Context, avail domain.Availability) error {
	payload, err := json.Marshal(avail)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, availabilityKey(avail.Date), payload, c.availabilityTTL).Err()
}

// InvalidateAvailability drops the cached figures for a date after any
// write that changes its load.
func (c *RedisCache) InvalidateAvailability(ctx context.Context, date string) error {
	return c.client.Del(ctx, availabilityKey(date)).Err()
}

func availabilityKey(date string) string {
	return fmt.Sprintf("cache:availability:%s", date)
}
