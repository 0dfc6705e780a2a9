package repository

import (
	"context"
	"errors"

	"iat/pkg/rubric"
	"iat/reconciler-service/internal/app/reconciler/entity"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrGroupNotFound   = errors.New("group not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrVersionConflict = errors.New("document was modified concurrently")
)

// GroupRepository чтение групп и точечные исправления под фильтром version
type GroupRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*entity.Group, error)
	List(ctx context.Context) ([]entity.Group, error)
	FindByMember(ctx context.Context, userID primitive.ObjectID) ([]entity.Group, error)
	FindRatedBy(ctx context.Context, userID primitive.ObjectID) ([]entity.Group, error)
	SetAggregate(ctx context.Context, group *entity.Group, agg rubric.Aggregate) error
	PullMember(ctx context.Context, group *entity.Group, userID primitive.ObjectID) error
}

// UserRepository чтение пользователей и перезапись производных полей профиля
type UserRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*entity.User, error)
	ListIDs(ctx context.Context) ([]primitive.ObjectID, error)
	FindByJoinedGroup(ctx context.Context, groupID primitive.ObjectID) ([]entity.User, error)
	FindByRatedGroup(ctx context.Context, groupID primitive.ObjectID) ([]entity.User, error)
	SetProfile(ctx context.Context, user *entity.User, joined []primitive.ObjectID, history []entity.RatingHistoryEntry) error
}
