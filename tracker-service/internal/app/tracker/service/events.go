package service

import (
	"context"
	"encoding/json"
	"time"

	"iat/pkg/logger"
	"iat/tracker-service/internal/app/tracker/entity"
	"iat/tracker-service/internal/app/tracker/infrastructure"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// publishTimeout ограничивает ожидание Kafka, чтобы недоступный брокер не тормозил API
const publishTimeout = 5 * time.Second

// eventPublisher отправляет события групп после успешной записи.
// Ошибки только логируются: данные уже сохранены, reconciler догонит по расписанию.
type eventPublisher struct {
	producer infrastructure.MessagePublisher
}

func (p eventPublisher) publish(ctx context.Context, eventType string, groupID, userID primitive.ObjectID) {
	if p.producer == nil {
		return
	}

	event := entity.GroupEvent{
		EventType: eventType,
		GroupID:   groupID.Hex(),
		UserID:    userID.Hex(),
		Timestamp: time.Now(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Str("event_type", eventType).Msg("Failed to marshal group event")
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := p.producer.PublishMessage(pubCtx, event.GroupID, data); err != nil {
		logger.Warn().
			Err(err).
			Str("event_type", eventType).
			Str("group_id", event.GroupID).
			Msg("Failed to publish group event")
	}
}
