package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"iat/pkg/metrics"
	"iat/tracker-service/internal/app/tracker/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type groupRepository struct {
	collection *mongo.Collection
}

// NewGroupRepository создает репозиторий групп.
// Индексы: уникальное имя, участники (проверка правила одной группы) и рейтинг для сортировки.
func NewGroupRepository(db *mongo.Database) GroupRepository {
	collection := db.Collection(groupsCollection)

	ensureIndexes(collection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetName("name_unique_idx").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "members.user_id", Value: 1}},
			Options: options.Index().SetName("members_user_id_idx"),
		},
		{
			Keys:    bson.D{{Key: "ratings.rater_id", Value: 1}},
			Options: options.Index().SetName("ratings_rater_id_idx"),
		},
		{
			Keys:    bson.D{{Key: "total_rating", Value: -1}},
			Options: options.Index().SetName("total_rating_idx"),
		},
	})

	return &groupRepository{collection: collection}
}

// Create создает новую группу с version = 1
func (r *groupRepository) Create(ctx context.Context, group *entity.Group) error {
	timer := metrics.NewDbTimer(metricsService, metrics.DbOpInsert, groupsCollection)
	defer timer.ObserveDuration()

	now := time.Now()
	group.CreatedAt = now
	group.UpdatedAt = now
	group.Version = 1
	if group.Members == nil {
		group.Members = []entity.Member{}
	}
	if group.Ratings == nil {
		group.Ratings = []entity.Rating{}
	}

	result, err := r.collection.InsertOne(ctx, group)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		metrics.RecordDbError(metricsService, metrics.DbOpInsert)
		return fmt.Errorf("failed to create group: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		group.ID = oid
	}

	return nil
}

// GetByID получает группу по ID. Некорректный ID трактуется как отсутствующая группа.
func (r *groupRepository) GetByID(ctx context.Context, id string) (*entity.Group, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrGroupNotFound
	}
	return r.findOne(ctx, bson.M{"_id": objectID})
}

// GetByName получает группу по точному имени
func (r *groupRepository) GetByName(ctx context.Context, name string) (*entity.Group, error) {
	return r.findOne(ctx, bson.M{"name": name})
}

// List возвращает все группы, отсортированные по рейтингу (по убыванию), затем по имени
func (r *groupRepository) List(ctx context.Context) ([]entity.Group, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "total_rating", Value: -1},
		{Key: "name", Value: 1},
	})
	return r.find(ctx, bson.M{}, opts)
}

// FindByMember возвращает все группы, в составе которых есть пользователь
func (r *groupRepository) FindByMember(ctx context.Context, userID primitive.ObjectID) ([]entity.Group, error) {
	return r.find(ctx, bson.M{"members.user_id": userID})
}

// Save заменяет документ целиком при совпадении version (compare-and-swap).
// Если документ изменился или удален, возвращает ErrVersionConflict.
func (r *groupRepository) Save(ctx context.Context, group *entity.Group) error {
	timer := metrics.NewDbTimer(metricsService, metrics.DbOpUpdate, groupsCollection)
	defer timer.ObserveDuration()

	next := *group
	next.Version = group.Version + 1
	next.UpdatedAt = time.Now()

	filter := bson.M{"_id": group.ID, "version": group.Version}
	result, err := r.collection.ReplaceOne(ctx, filter, &next)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		metrics.RecordDbError(metricsService, metrics.DbOpUpdate)
		return fmt.Errorf("failed to save group: %w", err)
	}

	if result.MatchedCount == 0 {
		metrics.DbVersionConflicts.WithLabelValues(metricsService, groupsCollection).Inc()
		return ErrVersionConflict
	}

	group.Version = next.Version
	group.UpdatedAt = next.UpdatedAt
	return nil
}

// Delete удаляет группу
func (r *groupRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	timer := metrics.NewDbTimer(metricsService, metrics.DbOpDelete, groupsCollection)
	defer timer.ObserveDuration()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		metrics.RecordDbError(metricsService, metrics.DbOpDelete)
		return fmt.Errorf("failed to delete group: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrGroupNotFound
	}

	return nil
}

func (r *groupRepository) findOne(ctx context.Context, filter bson.M) (*entity.Group, error) {
	timer := metrics.NewDbTimer(metricsService, metrics.DbOpSelect, groupsCollection)
	defer timer.ObserveDuration()

	var group entity.Group
	err := r.collection.FindOne(ctx, filter).Decode(&group)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrGroupNotFound
		}
		metrics.RecordDbError(metricsService, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	return &group, nil
}

func (r *groupRepository) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]entity.Group, error) {
	timer := metrics.NewDbTimer(metricsService, metrics.DbOpSelect, groupsCollection)
	defer timer.ObserveDuration()

	cursor, err := r.collection.Find(ctx, filter, opts...)
	if err != nil {
		metrics.RecordDbError(metricsService, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to find groups: %w", err)
	}
	defer cursor.Close(ctx)

	groups := []entity.Group{}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("failed to decode groups: %w", err)
	}

	return groups, nil
}
