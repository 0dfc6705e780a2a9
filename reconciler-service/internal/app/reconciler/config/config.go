package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config настройки Reconciler Service.
// Сервис читает события групп из Kafka и чинит расхождения между документами Group и User.
type Config struct {
	MongoDB MongoDBConfig
	Kafka   KafkaConfig
	Cron    CronConfig
	Health  HealthConfig
	Log     LogConfig
}

// MongoDBConfig подключение к той же базе, что и tracker-service
type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type KafkaConfig struct {
	Brokers  []string
	Topic    string // group_events
	GroupID  string
	MinBytes int
	MaxBytes int
}

// CronConfig расписание полной сверки (формат robfig/cron, допускает @every)
type CronConfig struct {
	Sweep string
}

type HealthConfig struct {
	Port string
}

type LogConfig struct {
	Level        string
	LogstashAddr string
}

// Load загружает конфигурацию из переменных окружения с необязательным .env
func Load() (*Config, error) {
	_ = godotenv.Load()

	mongoTimeout, err := time.ParseDuration(getEnv("MONGODB_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid MONGODB_TIMEOUT: %w", err)
	}

	return &Config{
		MongoDB: MongoDBConfig{
			URI:      getEnv("MONGODB_URI", "mongodb://localhost:27017/?replicaSet=rs0"),
			Database: getEnv("MONGODB_DATABASE", "iat"),
			Timeout:  mongoTimeout,
		},
		Kafka: KafkaConfig{
			Brokers:  getEnvList("KAFKA_BROKERS", "localhost:9092"),
			Topic:    getEnv("KAFKA_TOPIC", "group_events"),
			GroupID:  getEnv("KAFKA_GROUP_ID", "reconciler-group"),
			MinBytes: getEnvInt("KAFKA_MIN_BYTES", 1),
			MaxBytes: getEnvInt("KAFKA_MAX_BYTES", 10e6),
		},
		Cron: CronConfig{
			Sweep: getEnv("CRON_SWEEP", "@every 10m"),
		},
		Health: HealthConfig{
			Port: getEnv("HEALTH_PORT", "8081"),
		},
		Log: LogConfig{
			Level:        getEnv("LOG_LEVEL", "info"),
			LogstashAddr: getEnv("LOGSTASH_ADDR", ""),
		},
	}, nil
}

// Address возвращает адрес healthcheck сервера
func (c *HealthConfig) Address() string {
	return ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvList разбирает список через запятую, пустые элементы отбрасываются
func getEnvList(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	parts := strings.Split(raw, ",")
	list := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			list = append(list, p)
		}
	}
	return list
}
