package service

import (
	"context"
	"errors"
	"fmt"

	"iat/pkg/metrics"
	"iat/tracker-service/internal/app/tracker/entity"
	"iat/tracker-service/internal/app/tracker/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// parseUserID переводит ID из principal в ObjectID
func parseUserID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrUserNotFound
	}
	return oid, nil
}

func loadGroup(ctx context.Context, repo repository.GroupRepository, groupID string) (*entity.Group, error) {
	group, err := repo.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, repository.ErrGroupNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return group, nil
}

func loadUser(ctx context.Context, repo repository.UserRepository, userID primitive.ObjectID) (*entity.User, error) {
	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ruleViolations метки метрики для отказов по правилам групп
var ruleViolations = []struct {
	err   error
	label string
}{
	{ErrAlreadyMember, "already_member"},
	{ErrSingleGroupViolation, "single_group"},
	{ErrNotMember, "not_member"},
	{ErrSelfRatingForbidden, "self_rating"},
	{ErrDuplicateRating, "duplicate_rating"},
	{ErrRatingNotFound, "rating_not_found"},
	{ErrInvalidScore, "invalid_score"},
}

func recordRuleViolation(err error) {
	for _, rv := range ruleViolations {
		if errors.Is(err, rv.err) {
			metrics.GroupRuleViolations.WithLabelValues(rv.label).Inc()
			return
		}
	}
}
