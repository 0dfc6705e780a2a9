package repository

import (
	"context"
	"time"

	"iat/pkg/rubric"
	"iat/reconciler-service/internal/app/reconciler/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type groupRepository struct {
	collection *mongo.Collection
}

// NewGroupRepository создает репозиторий групп. Индексы создает tracker-service.
func NewGroupRepository(db *mongo.Database) GroupRepository {
	return &groupRepository{collection: db.Collection(groupsCollection)}
}

func (r *groupRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*entity.Group, error) {
	var group entity.Group
	if err := findOne(ctx, r.collection, bson.M{"_id": id}, &group, ErrGroupNotFound); err != nil {
		return nil, err
	}
	return &group, nil
}

// List все группы в порядке _id
func (r *groupRepository) List(ctx context.Context) ([]entity.Group, error) {
	groups := []entity.Group{}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if err := findAll(ctx, r.collection, bson.M{}, &groups, opts); err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *groupRepository) FindByMember(ctx context.Context, userID primitive.ObjectID) ([]entity.Group, error) {
	groups := []entity.Group{}
	if err := findAll(ctx, r.collection, bson.M{"members.user_id": userID}, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *groupRepository) FindRatedBy(ctx context.Context, userID primitive.ObjectID) ([]entity.Group, error) {
	groups := []entity.Group{}
	if err := findAll(ctx, r.collection, bson.M{"ratings.rater_id": userID}, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// SetAggregate перезаписывает производные поля рейтинга
func (r *groupRepository) SetAggregate(ctx context.Context, group *entity.Group, agg rubric.Aggregate) error {
	err := updateVersioned(ctx, r.collection, group.ID, group.Version, bson.M{
		"$set": bson.M{
			"total_rating":            agg.TotalRating,
			"rating_count":            agg.RatingCount,
			"avg_communication":       agg.AvgCommunication,
			"avg_presentation":        agg.AvgPresentation,
			"avg_content":             agg.AvgContent,
			"avg_helpful_for_company": agg.AvgHelpfulForCompany,
			"avg_helpful_for_interns": agg.AvgHelpfulForInterns,
			"avg_participation":       agg.AvgParticipation,
			"updated_at":              time.Now(),
		},
	})
	if err != nil {
		return err
	}

	group.Aggregate = agg
	group.Version++
	return nil
}

// PullMember удаляет пользователя из состава группы
func (r *groupRepository) PullMember(ctx context.Context, group *entity.Group, userID primitive.ObjectID) error {
	err := updateVersioned(ctx, r.collection, group.ID, group.Version, bson.M{
		"$pull": bson.M{"members": bson.M{"user_id": userID}},
		"$set":  bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return err
	}

	group.Version++
	return nil
}
