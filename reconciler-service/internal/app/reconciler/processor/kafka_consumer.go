package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"iat/pkg/logger"
	"iat/pkg/metrics"
	"iat/reconciler-service/internal/app/reconciler/entity"
	"iat/reconciler-service/internal/app/reconciler/service"

	"github.com/segmentio/kafka-go"
)

const metricsService = "reconciler-service"

// errMalformedEvent событие нельзя обработать ни при какой повторной попытке
var errMalformedEvent = errors.New("malformed group event")

// messageReader часть kafka.Reader, нужная consumer
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Stats() kafka.ReaderStats
	Close() error
}

// KafkaConsumer читает group_events и сверяет затронутые группу и пользователя
type KafkaConsumer struct {
	reader     messageReader
	reconciler service.Reconciler
	topic      string
	groupID    string
	cancel     context.CancelFunc
	doneChan   chan struct{}
}

func NewKafkaConsumer(
	brokers []string,
	topic string,
	groupID string,
	minBytes int,
	maxBytes int,
	reconciler service.Reconciler,
) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       minBytes,
		MaxBytes:       maxBytes,
		StartOffset:    kafka.FirstOffset,
		ReadBackoffMin: 100 * time.Millisecond,
		ReadBackoffMax: 1 * time.Second,
	})

	return newKafkaConsumer(reader, topic, groupID, reconciler)
}

func newKafkaConsumer(reader messageReader, topic, groupID string, reconciler service.Reconciler) *KafkaConsumer {
	return &KafkaConsumer{
		reader:     reader,
		reconciler: reconciler,
		topic:      topic,
		groupID:    groupID,
		cancel:     func() {},
		doneChan:   make(chan struct{}),
	}
}

// Start запускает чтение в отдельной горутине
func (c *KafkaConsumer) Start(ctx context.Context) {
	logger.Info().
		Str("topic", c.topic).
		Str("group_id", c.groupID).
		Msg("Starting Kafka consumer")

	ctx, c.cancel = context.WithCancel(ctx)
	go c.consume(ctx)
}

// Stop отменяет чтение, дожидается завершения текущего сообщения и закрывает reader.
// Вызывается только после Start.
func (c *KafkaConsumer) Stop() {
	logger.Info().Msg("Stopping Kafka consumer...")
	c.cancel()
	<-c.doneChan
	if err := c.reader.Close(); err != nil {
		logger.Error().Err(err).Msg("Error closing Kafka reader")
	}
	logger.Info().Msg("Kafka consumer stopped")
}

func (c *KafkaConsumer) consume(ctx context.Context) {
	defer close(c.doneChan)

	for ctx.Err() == nil {
		readCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		message, err := c.reader.FetchMessage(readCtx)
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			metrics.RecordKafkaError(metricsService, c.topic, "consume")
			logger.Error().Err(err).Msg("Error fetching message")
			pause(ctx, time.Second)
			continue
		}

		start := time.Now()
		if !c.processWithRetry(ctx, message) {
			// остановка до успешной обработки: offset не коммитим
			return
		}

		metrics.RecordKafkaMessageConsumed(metricsService, c.topic, c.groupID, time.Since(start))

		if err := c.reader.CommitMessages(ctx, message); err != nil {
			metrics.RecordKafkaError(metricsService, c.topic, "commit")
			logger.Error().Err(err).Msg("Error committing message")
		}
	}
}

// processWithRetry обрабатывает сообщение, повторяя временные ошибки до успеха.
// Следующее сообщение партиции не читается, пока текущее не обработано.
// Возвращает false, если контекст отменен раньше.
func (c *KafkaConsumer) processWithRetry(ctx context.Context, message kafka.Message) bool {
	for {
		err := c.processMessage(ctx, message)
		switch {
		case err == nil:
			return true
		case errors.Is(err, errMalformedEvent):
			logger.Error().
				Err(err).
				Int64("offset", message.Offset).
				Int("partition", message.Partition).
				Msg("Skipping malformed message")
			return true
		}

		metrics.RecordKafkaError(metricsService, c.topic, "process")
		logger.Error().
			Err(err).
			Int64("offset", message.Offset).
			Msg("Error processing message, retrying")

		pause(ctx, time.Second)
		if ctx.Err() != nil {
			return false
		}
	}
}

// pause ждет d или отмены контекста
func pause(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// processMessage сверяет группу и пользователя из события
func (c *KafkaConsumer) processMessage(ctx context.Context, message kafka.Message) error {
	var event entity.GroupEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return fmt.Errorf("%w: %v", errMalformedEvent, err)
	}

	logger.Debug().
		Str("event_type", event.EventType).
		Str("group_id", event.GroupID).
		Str("user_id", event.UserID).
		Int64("offset", message.Offset).
		Msg("Received group event")

	switch event.EventType {
	case entity.EventMemberJoined, entity.EventMemberLeft,
		entity.EventGroupRated, entity.EventGroupUnrated, entity.EventGroupDeleted:
	case entity.EventGroupCreated:
		return nil
	default:
		logger.Warn().Str("event_type", event.EventType).Msg("Unknown event type, skipping")
		return nil
	}

	report, err := c.reconciler.ReconcileGroup(ctx, event.GroupID)
	if err != nil {
		return classify(err)
	}

	if event.UserID != "" {
		userReport, err := c.reconciler.ReconcileUser(ctx, event.UserID)
		if err != nil {
			return classify(err)
		}
		report.Add(userReport)
	}

	if report.Total() > 0 {
		logger.Info().
			Str("event_type", event.EventType).
			Str("group_id", event.GroupID).
			Int("repairs", report.Total()).
			Msg("Repaired inconsistencies after event")
	}

	return nil
}

func classify(err error) error {
	if errors.Is(err, service.ErrInvalidID) {
		return fmt.Errorf("%w: %v", errMalformedEvent, err)
	}
	return err
}

// GetStats статистика reader
func (c *KafkaConsumer) GetStats() kafka.ReaderStats {
	return c.reader.Stats()
}
