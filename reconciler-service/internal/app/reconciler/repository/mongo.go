package repository

import (
	"context"
	"errors"
	"fmt"

	"iat/pkg/metrics"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const metricsService = "reconciler-service"

const (
	groupsCollection = "groups"
	usersCollection  = "users"
)

// findAll выполняет Find и декодирует все документы в out
func findAll(ctx context.Context, collection *mongo.Collection, filter bson.M, out interface{}, opts ...*options.FindOptions) error {
	timer := metrics.NewDbTimer(metricsService, metrics.DbOpSelect, collection.Name())
	defer timer.ObserveDuration()

	cursor, err := collection.Find(ctx, filter, opts...)
	if err != nil {
		metrics.RecordDbError(metricsService, metrics.DbOpSelect)
		return fmt.Errorf("failed to find %s: %w", collection.Name(), err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", collection.Name(), err)
	}
	return nil
}

// findOne декодирует один документ, notFound возвращается при отсутствии
func findOne(ctx context.Context, collection *mongo.Collection, filter bson.M, out interface{}, notFound error) error {
	timer := metrics.NewDbTimer(metricsService, metrics.DbOpSelect, collection.Name())
	defer timer.ObserveDuration()

	err := collection.FindOne(ctx, filter).Decode(out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return notFound
		}
		metrics.RecordDbError(metricsService, metrics.DbOpSelect)
		return fmt.Errorf("failed to get from %s: %w", collection.Name(), err)
	}
	return nil
}

// updateVersioned применяет update только к документу с ожидаемой version и увеличивает ее
func updateVersioned(ctx context.Context, collection *mongo.Collection, id interface{}, version int64, update bson.M) error {
	timer := metrics.NewDbTimer(metricsService, metrics.DbOpUpdate, collection.Name())
	defer timer.ObserveDuration()

	update["$inc"] = bson.M{"version": 1}

	result, err := collection.UpdateOne(ctx, bson.M{"_id": id, "version": version}, update)
	if err != nil {
		metrics.RecordDbError(metricsService, metrics.DbOpUpdate)
		return fmt.Errorf("failed to update %s: %w", collection.Name(), err)
	}

	if result.MatchedCount == 0 {
		metrics.DbVersionConflicts.WithLabelValues(metricsService, collection.Name()).Inc()
		return ErrVersionConflict
	}
	return nil
}
