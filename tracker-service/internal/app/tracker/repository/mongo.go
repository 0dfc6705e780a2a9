package repository

import (
	"context"
	"time"

	"iat/pkg/logger"

	"go.mongodb.org/mongo-driver/mongo"
)

// metricsService метка сервиса для метрик репозиториев
const metricsService = "tracker-service"

const (
	groupsCollection = "groups"
	usersCollection  = "users"
)

// ensureIndexes создает индексы коллекции.
// Ошибка только логируется: индекс может уже существовать с другими опциями.
func ensureIndexes(collection *mongo.Collection, models []mongo.IndexModel) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(ctx, models); err != nil {
		logger.Warn().
			Err(err).
			Str("collection", collection.Name()).
			Msg("Failed to create indexes")
	}
}
