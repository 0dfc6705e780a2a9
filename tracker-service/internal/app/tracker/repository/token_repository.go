package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"iat/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

type redisTokenRepository struct {
	client *redis.Client
}

// NewRedisTokenRepository создает Redis репозиторий для refresh токенов и черного списка access токенов
func NewRedisTokenRepository(client *redis.Client) TokenRepository {
	return &redisTokenRepository{client: client}
}

func refreshTokenKey(token string) string { return "refresh_token:" + token }
func userTokensKey(userID string) string  { return "user_tokens:" + userID }
func blacklistKey(token string) string    { return "blacklist:" + token }

// SaveRefreshToken сохраняет refresh токен в Redis с TTL до истечения
func (r *redisTokenRepository) SaveRefreshToken(ctx context.Context, userID string, token string, expiresAt time.Time) error {
	timer := metrics.NewRedisTimer(metricsService, metrics.RedisOpSet)
	defer timer.ObserveDuration()

	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return fmt.Errorf("token already expired")
	}

	// Сам токен и множество токенов пользователя пишутся одной транзакцией
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, refreshTokenKey(token), userID, ttl)
	pipe.SAdd(ctx, userTokensKey(userID), token)
	pipe.Expire(ctx, userTokensKey(userID), ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		metrics.RecordRedisError(metricsService, metrics.RedisOpSet)
		return fmt.Errorf("failed to save refresh token to Redis: %w", err)
	}

	return nil
}

// GetRefreshToken возвращает ID владельца refresh токена
func (r *redisTokenRepository) GetRefreshToken(ctx context.Context, token string) (string, error) {
	timer := metrics.NewRedisTimer(metricsService, metrics.RedisOpGet)
	defer timer.ObserveDuration()

	userID, err := r.client.Get(ctx, refreshTokenKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		metrics.RecordRedisError(metricsService, metrics.RedisOpGet)
		return "", fmt.Errorf("failed to get refresh token from Redis: %w", err)
	}

	return userID, nil
}

// DeleteRefreshToken удаляет конкретный refresh токен
func (r *redisTokenRepository) DeleteRefreshToken(ctx context.Context, token string) error {
	timer := metrics.NewRedisTimer(metricsService, metrics.RedisOpDel)
	defer timer.ObserveDuration()

	// GETDEL гарантирует одноразовость токена при параллельных refresh
	userID, err := r.client.GetDel(ctx, refreshTokenKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrTokenNotFound
	}
	if err != nil {
		metrics.RecordRedisError(metricsService, metrics.RedisOpDel)
		return fmt.Errorf("failed to delete refresh token from Redis: %w", err)
	}

	r.client.SRem(ctx, userTokensKey(userID), token)
	return nil
}

// DeleteUserRefreshTokens удаляет все refresh токены пользователя
func (r *redisTokenRepository) DeleteUserRefreshTokens(ctx context.Context, userID string) error {
	timer := metrics.NewRedisTimer(metricsService, metrics.RedisOpDel)
	defer timer.ObserveDuration()

	tokens, err := r.client.SMembers(ctx, userTokensKey(userID)).Result()
	if err != nil {
		metrics.RecordRedisError(metricsService, metrics.RedisOpDel)
		return fmt.Errorf("failed to get user tokens: %w", err)
	}

	keys := make([]string, 0, len(tokens)+1)
	for _, token := range tokens {
		keys = append(keys, refreshTokenKey(token))
	}
	keys = append(keys, userTokensKey(userID))

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		metrics.RecordRedisError(metricsService, metrics.RedisOpDel)
		return fmt.Errorf("failed to delete user tokens: %w", err)
	}

	return nil
}

// AddToBlacklist добавляет access токен в черный список до его истечения
func (r *redisTokenRepository) AddToBlacklist(ctx context.Context, token string, expiresAt time.Time) error {
	timer := metrics.NewRedisTimer(metricsService, metrics.RedisOpSet)
	defer timer.ObserveDuration()

	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		// Токен уже истек, не нужно добавлять в черный список
		return nil
	}

	if err := r.client.Set(ctx, blacklistKey(token), "1", ttl).Err(); err != nil {
		metrics.RecordRedisError(metricsService, metrics.RedisOpSet)
		return fmt.Errorf("failed to add token to blacklist: %w", err)
	}

	return nil
}

// IsBlacklisted проверяет, находится ли токен в черном списке
func (r *redisTokenRepository) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	timer := metrics.NewRedisTimer(metricsService, metrics.RedisOpExists)
	defer timer.ObserveDuration()

	exists, err := r.client.Exists(ctx, blacklistKey(token)).Result()
	if err != nil {
		metrics.RecordRedisError(metricsService, metrics.RedisOpExists)
		return false, fmt.Errorf("failed to check if token is blacklisted: %w", err)
	}

	return exists > 0, nil
}
