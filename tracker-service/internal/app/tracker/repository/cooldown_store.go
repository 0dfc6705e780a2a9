package repository

import (
	"context"
	"fmt"
	"time"

	"iat/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

type redisCooldownStore struct {
	client *redis.Client
}

// NewRedisCooldownStore создает хранилище отметок об отправке отчета
func NewRedisCooldownStore(client *redis.Client) CooldownStore {
	return &redisCooldownStore{client: client}
}

func cooldownKey(userID string) string { return "form_cooldown:" + userID }

// Acquire ставит отметку через SET NX, поэтому из двух параллельных отправок проходит одна
func (s *redisCooldownStore) Acquire(ctx context.Context, userID string, ttl time.Duration) (bool, error) {
	timer := metrics.NewRedisTimer(metricsService, metrics.RedisOpSet)
	defer timer.ObserveDuration()

	ok, err := s.client.SetNX(ctx, cooldownKey(userID), time.Now().Format(time.RFC3339), ttl).Result()
	if err != nil {
		metrics.RecordRedisError(metricsService, metrics.RedisOpSet)
		return false, fmt.Errorf("failed to acquire form cooldown: %w", err)
	}

	return ok, nil
}

// Release снимает отметку (например, если запись отчета в БД не удалась)
func (s *redisCooldownStore) Release(ctx context.Context, userID string) error {
	timer := metrics.NewRedisTimer(metricsService, metrics.RedisOpDel)
	defer timer.ObserveDuration()

	if err := s.client.Del(ctx, cooldownKey(userID)).Err(); err != nil {
		metrics.RecordRedisError(metricsService, metrics.RedisOpDel)
		return fmt.Errorf("failed to release form cooldown: %w", err)
	}

	return nil
}
