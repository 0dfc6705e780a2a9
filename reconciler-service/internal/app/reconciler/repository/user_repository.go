package repository

import (
	"context"
	"time"

	"iat/reconciler-service/internal/app/reconciler/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type userRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) UserRepository {
	return &userRepository{collection: db.Collection(usersCollection)}
}

func (r *userRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*entity.User, error) {
	var user entity.User
	if err := findOne(ctx, r.collection, bson.M{"_id": id}, &user, ErrUserNotFound); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListIDs идентификаторы всех пользователей, без загрузки профилей
func (r *userRepository) ListIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	opts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(bson.D{{Key: "_id", Value: 1}})
	if err := findAll(ctx, r.collection, bson.M{}, &docs, opts); err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

func (r *userRepository) FindByJoinedGroup(ctx context.Context, groupID primitive.ObjectID) ([]entity.User, error) {
	users := []entity.User{}
	if err := findAll(ctx, r.collection, bson.M{"joined_groups": groupID}, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) FindByRatedGroup(ctx context.Context, groupID primitive.ObjectID) ([]entity.User, error) {
	users := []entity.User{}
	if err := findAll(ctx, r.collection, bson.M{"rating_history.group_id": groupID}, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SetProfile перезаписывает joined_groups и rating_history, остальные поля не трогает
func (r *userRepository) SetProfile(ctx context.Context, user *entity.User, joined []primitive.ObjectID, history []entity.RatingHistoryEntry) error {
	if joined == nil {
		joined = []primitive.ObjectID{}
	}
	if history == nil {
		history = []entity.RatingHistoryEntry{}
	}

	err := updateVersioned(ctx, r.collection, user.ID, user.Version, bson.M{
		"$set": bson.M{
			"joined_groups":  joined,
			"rating_history": history,
			"updated_at":     time.Now(),
		},
	})
	if err != nil {
		return err
	}

	user.JoinedGroups = joined
	user.RatingHistory = history
	user.Version++
	return nil
}
