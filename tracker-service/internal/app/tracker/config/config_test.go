package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "group_events", cfg.Kafka.Topic)
	assert.Equal(t, 12*time.Hour, cfg.Forms.Cooldown)
	assert.Equal(t, []string{"http://localhost:5173", "https://iat-frontend.vercel.app"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, []string{"Path finder", "Nova", "Fusion force", "Wit squad", "Explorers"}, cfg.Groups.Seed)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "kafka1:9092, kafka2:9092,,")
	t.Setenv("FORM_COOLDOWN", "30m")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"kafka1:9092", "kafka2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 30*time.Minute, cfg.Forms.Cooldown)
	assert.Equal(t, 3, cfg.Redis.DB)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("JWT_ACCESS_DURATION", "soon")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_NonPositiveCooldown(t *testing.T) {
	t.Setenv("FORM_COOLDOWN", "0s")

	_, err := Load()
	assert.Error(t, err)
}

func TestGetEnvInt_InvalidFallsBack(t *testing.T) {
	t.Setenv("REDIS_DB", "abc")
	assert.Equal(t, 7, getEnvInt("REDIS_DB", 7))
}
