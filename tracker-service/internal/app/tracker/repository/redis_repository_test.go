package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// RedisRepositoryTestSuite тестовый suite для Redis репозиториев
type RedisRepositoryTestSuite struct {
	suite.Suite
	miniRedis *miniredis.Miniredis
	client    *redis.Client
	tokens    TokenRepository
	cooldown  CooldownStore
}

func TestRedisRepositorySuite(t *testing.T) {
	suite.Run(t, new(RedisRepositoryTestSuite))
}

func (s *RedisRepositoryTestSuite) SetupSuite() {
	var err error
	s.miniRedis, err = miniredis.Run()
	require.NoError(s.T(), err)

	s.client = redis.NewClient(&redis.Options{
		Addr: s.miniRedis.Addr(),
	})

	s.tokens = NewRedisTokenRepository(s.client)
	s.cooldown = NewRedisCooldownStore(s.client)
}

func (s *RedisRepositoryTestSuite) SetupTest() {
	s.miniRedis.FlushAll()
}

func (s *RedisRepositoryTestSuite) TearDownSuite() {
	s.client.Close()
	s.miniRedis.Close()
}

// ===================== Refresh Token Tests =====================

func (s *RedisRepositoryTestSuite) TestRefreshToken_SaveAndGet() {
	ctx := context.Background()

	err := s.tokens.SaveRefreshToken(ctx, "user-1", "token-a", time.Now().Add(time.Hour))
	s.Require().NoError(err)

	userID, err := s.tokens.GetRefreshToken(ctx, "token-a")
	s.NoError(err)
	s.Equal("user-1", userID)
	s.True(s.miniRedis.Exists("user_tokens:user-1"))
}

func (s *RedisRepositoryTestSuite) TestRefreshToken_SaveExpired() {
	err := s.tokens.SaveRefreshToken(context.Background(), "user-1", "token-a", time.Now().Add(-time.Second))
	s.Error(err)
}

func (s *RedisRepositoryTestSuite) TestRefreshToken_NotFound() {
	_, err := s.tokens.GetRefreshToken(context.Background(), "missing")
	s.ErrorIs(err, ErrTokenNotFound)
}

func (s *RedisRepositoryTestSuite) TestRefreshToken_DeleteIsSingleUse() {
	ctx := context.Background()
	s.Require().NoError(s.tokens.SaveRefreshToken(ctx, "user-1", "token-a", time.Now().Add(time.Hour)))

	s.NoError(s.tokens.DeleteRefreshToken(ctx, "token-a"))
	s.ErrorIs(s.tokens.DeleteRefreshToken(ctx, "token-a"), ErrTokenNotFound)

	_, err := s.tokens.GetRefreshToken(ctx, "token-a")
	s.ErrorIs(err, ErrTokenNotFound)
}

func (s *RedisRepositoryTestSuite) TestRefreshToken_DeleteUserTokens() {
	ctx := context.Background()
	s.Require().NoError(s.tokens.SaveRefreshToken(ctx, "user-1", "token-a", time.Now().Add(time.Hour)))
	s.Require().NoError(s.tokens.SaveRefreshToken(ctx, "user-1", "token-b", time.Now().Add(time.Hour)))
	s.Require().NoError(s.tokens.SaveRefreshToken(ctx, "user-2", "token-c", time.Now().Add(time.Hour)))

	s.NoError(s.tokens.DeleteUserRefreshTokens(ctx, "user-1"))

	_, err := s.tokens.GetRefreshToken(ctx, "token-a")
	s.ErrorIs(err, ErrTokenNotFound)
	_, err = s.tokens.GetRefreshToken(ctx, "token-b")
	s.ErrorIs(err, ErrTokenNotFound)

	userID, err := s.tokens.GetRefreshToken(ctx, "token-c")
	s.NoError(err)
	s.Equal("user-2", userID)
}

// ===================== Blacklist Tests =====================

func (s *RedisRepositoryTestSuite) TestBlacklist() {
	ctx := context.Background()

	blacklisted, err := s.tokens.IsBlacklisted(ctx, "access")
	s.NoError(err)
	s.False(blacklisted)

	s.NoError(s.tokens.AddToBlacklist(ctx, "access", time.Now().Add(time.Minute)))

	blacklisted, err = s.tokens.IsBlacklisted(ctx, "access")
	s.NoError(err)
	s.True(blacklisted)
}

func (s *RedisRepositoryTestSuite) TestBlacklist_Expires() {
	ctx := context.Background()
	s.NoError(s.tokens.AddToBlacklist(ctx, "access", time.Now().Add(time.Minute)))

	s.miniRedis.FastForward(2 * time.Minute)

	blacklisted, err := s.tokens.IsBlacklisted(ctx, "access")
	s.NoError(err)
	s.False(blacklisted)
}

func (s *RedisRepositoryTestSuite) TestBlacklist_AlreadyExpiredIsNoop() {
	ctx := context.Background()
	s.NoError(s.tokens.AddToBlacklist(ctx, "access", time.Now().Add(-time.Minute)))
	s.False(s.miniRedis.Exists("blacklist:access"))
}

// ===================== Cooldown Tests =====================

func (s *RedisRepositoryTestSuite) TestCooldown_AcquireOnce() {
	ctx := context.Background()

	ok, err := s.cooldown.Acquire(ctx, "user-1", 12*time.Hour)
	s.NoError(err)
	s.True(ok)

	ok, err = s.cooldown.Acquire(ctx, "user-1", 12*time.Hour)
	s.NoError(err)
	s.False(ok)

	ok, err = s.cooldown.Acquire(ctx, "user-2", 12*time.Hour)
	s.NoError(err)
	s.True(ok)
}

func (s *RedisRepositoryTestSuite) TestCooldown_ExpiresAfterTTL() {
	ctx := context.Background()

	ok, err := s.cooldown.Acquire(ctx, "user-1", 12*time.Hour)
	s.Require().NoError(err)
	s.Require().True(ok)

	s.miniRedis.FastForward(12*time.Hour + time.Second)

	ok, err = s.cooldown.Acquire(ctx, "user-1", 12*time.Hour)
	s.NoError(err)
	s.True(ok)
}

func (s *RedisRepositoryTestSuite) TestCooldown_Release() {
	ctx := context.Background()

	_, err := s.cooldown.Acquire(ctx, "user-1", time.Hour)
	s.Require().NoError(err)
	s.NoError(s.cooldown.Release(ctx, "user-1"))

	ok, err := s.cooldown.Acquire(ctx, "user-1", time.Hour)
	s.NoError(err)
	s.True(ok)
}

func (s *RedisRepositoryTestSuite) TestCooldown_RedisUnavailable() {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	defer client.Close()

	_, err := NewRedisCooldownStore(client).Acquire(context.Background(), "user-1", time.Hour)
	s.Error(err)
}
