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

type userRepository struct {
	collection *mongo.Collection
}

// NewUserRepository создает репозиторий пользователей.
// email и username уникальны, joined_groups индексируется для очистки при удалении группы.
func NewUserRepository(db *mongo.Database) UserRepository {
	collection := db.Collection(usersCollection)

	ensureIndexes(collection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("email_unique_idx").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName("username_unique_idx").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "joined_groups", Value: 1}},
			Options: options.Index().SetName("joined_groups_idx"),
		},
	})

	return &userRepository{collection: collection}
}

// Create создает пользователя с version = 1
func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	timer := metrics.NewDbTimer(metricsService, metrics.DbOpInsert, usersCollection)
	defer timer.ObserveDuration()

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.Version = 1
	if user.JoinedGroups == nil {
		user.JoinedGroups = []primitive.ObjectID{}
	}
	if user.RatingHistory == nil {
		user.RatingHistory = []entity.RatingHistoryEntry{}
	}

	result, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		metrics.RecordDbError(metricsService, metrics.DbOpInsert)
		return fmt.Errorf("failed to create user: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		user.ID = oid
	}

	return nil
}

// GetByID получает пользователя по ID
func (r *userRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*entity.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetByEmail получает пользователя по email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// ExistsByEmailOrUsername проверяет, занят ли email или username
func (r *userRepository) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	timer := metrics.NewDbTimer(metricsService, metrics.DbOpSelect, usersCollection)
	defer timer.ObserveDuration()

	filter := bson.M{"$or": bson.A{
		bson.M{"email": email},
		bson.M{"username": username},
	}}

	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		metrics.RecordDbError(metricsService, metrics.DbOpSelect)
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}

	return count > 0, nil
}

// List возвращает всех пользователей, отсортированных по имени
func (r *userRepository) List(ctx context.Context) ([]entity.User, error) {
	timer := metrics.NewDbTimer(metricsService, metrics.DbOpSelect, usersCollection)
	defer timer.ObserveDuration()

	opts := options.Find().SetSort(bson.D{{Key: "username", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		metrics.RecordDbError(metricsService, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	defer cursor.Close(ctx)

	users := []entity.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}

	return users, nil
}

// CountByBranch считает пользователей по направлениям
func (r *userRepository) CountByBranch(ctx context.Context) ([]entity.DepartmentCount, error) {
	timer := metrics.NewDbTimer(metricsService, metrics.DbOpSelect, usersCollection)
	defer timer.ObserveDuration()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$branch"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		metrics.RecordDbError(metricsService, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to aggregate department counts: %w", err)
	}
	defer cursor.Close(ctx)

	counts := []entity.DepartmentCount{}
	if err := cursor.All(ctx, &counts); err != nil {
		return nil, fmt.Errorf("failed to decode department counts: %w", err)
	}

	return counts, nil
}

// Save заменяет документ целиком при совпадении version (compare-and-swap)
func (r *userRepository) Save(ctx context.Context, user *entity.User) error {
	timer := metrics.NewDbTimer(metricsService, metrics.DbOpUpdate, usersCollection)
	defer timer.ObserveDuration()

	next := *user
	next.Version = user.Version + 1
	next.UpdatedAt = time.Now()

	filter := bson.M{"_id": user.ID, "version": user.Version}
	result, err := r.collection.ReplaceOne(ctx, filter, &next)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		metrics.RecordDbError(metricsService, metrics.DbOpUpdate)
		return fmt.Errorf("failed to save user: %w", err)
	}

	if result.MatchedCount == 0 {
		metrics.DbVersionConflicts.WithLabelValues(metricsService, usersCollection).Inc()
		return ErrVersionConflict
	}

	user.Version = next.Version
	user.UpdatedAt = next.UpdatedAt
	return nil
}

// PullJoinedGroup удаляет группу из joinedGroups всех пользователей и увеличивает их version
func (r *userRepository) PullJoinedGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	timer := metrics.NewDbTimer(metricsService, metrics.DbOpUpdate, usersCollection)
	defer timer.ObserveDuration()

	filter := bson.M{"joined_groups": groupID}
	update := bson.M{
		"$pull": bson.M{"joined_groups": groupID},
		"$inc":  bson.M{"version": 1},
		"$set":  bson.M{"updated_at": time.Now()},
	}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		metrics.RecordDbError(metricsService, metrics.DbOpUpdate)
		return 0, fmt.Errorf("failed to pull joined group: %w", err)
	}

	return result.ModifiedCount, nil
}

func (r *userRepository) findOne(ctx context.Context, filter bson.M) (*entity.User, error) {
	timer := metrics.NewDbTimer(metricsService, metrics.DbOpSelect, usersCollection)
	defer timer.ObserveDuration()

	var user entity.User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		metrics.RecordDbError(metricsService, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}
