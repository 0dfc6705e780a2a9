package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"iat/pkg/logger"
	"iat/pkg/metrics"
	"iat/tracker-service/internal/app/tracker/entity"
	"iat/tracker-service/internal/app/tracker/infrastructure"
	"iat/tracker-service/internal/app/tracker/repository"
	"iat/tracker-service/internal/app/tracker/util"
)

// maxCommentLength максимальная длина комментария к оценке (в символах)
const maxCommentLength = 500

// RatingService управляет жизненным циклом оценок группы: Unrated -> Rated -> Unrated
type RatingService struct {
	groupRepo repository.GroupRepository
	userRepo  repository.UserRepository
	atomic    atomicRunner
	events    eventPublisher
	now       func() time.Time
}

// NewRatingService создает сервис оценок с внедрением зависимостей
func NewRatingService(
	groupRepo repository.GroupRepository,
	userRepo repository.UserRepository,
	tx repository.Transactor,
	kafkaProducer infrastructure.MessagePublisher,
) *RatingService {
	return &RatingService{
		groupRepo: groupRepo,
		userRepo:  userRepo,
		atomic:    atomicRunner{tx: tx},
		events:    eventPublisher{producer: kafkaProducer},
		now:       time.Now,
	}
}

// RateGroup добавляет оценку пользователя группе
// 1. Группа должна существовать
// 2. Участник группы не может оценивать свою группу
// 3. Пользователь оценивает группу не более одного раза
// 4. Все шесть оценок присутствуют и лежат в диапазоне [0, 40], иначе ничего не меняется
// 5. Агрегаты пересчитываются, в историю пользователя пишется запись об оценке
func (s *RatingService) RateGroup(ctx context.Context, principal entity.Principal, groupID string, req *entity.RateGroupRequest) (*entity.Group, *entity.Rating, error) {
	raterID, err := parseUserID(principal.UserID)
	if err != nil {
		return nil, nil, err
	}

	scores := req.Scores()
	comments := util.SanitizeText(req.Comments)
	if utf8.RuneCountInString(comments) > maxCommentLength {
		return nil, nil, fmt.Errorf("%w: comments must be at most %d characters", ErrValidation, maxCommentLength)
	}

	var (
		rated     *entity.Group
		newRating entity.Rating
	)
	err = s.atomic.run(ctx, "rate group", func(ctx context.Context) error {
		group, err := loadGroup(ctx, s.groupRepo, groupID)
		if err != nil {
			return err
		}

		if group.HasMember(raterID) {
			return ErrSelfRatingForbidden
		}
		if group.HasRated(raterID) {
			return ErrDuplicateRating
		}
		if missing := req.Missing(); len(missing) > 0 {
			return fmt.Errorf("%w: missing %s", ErrValidation, strings.Join(missing, ", "))
		}
		if invalid := scores.Invalid(); len(invalid) > 0 {
			return fmt.Errorf("%w: %s", ErrInvalidScore, strings.Join(invalid, ", "))
		}

		rater, err := loadUser(ctx, s.userRepo, raterID)
		if err != nil {
			return err
		}

		now := s.now()
		newRating = entity.Rating{
			RaterID:   rater.ID,
			RaterName: rater.Username,
			Scores:    scores,
			Comments:  comments,
			CreatedAt: now,
		}
		group.Ratings = append(group.Ratings, newRating)
		group.RecomputeAggregate()

		rater.RatingHistory = append(rater.RatingHistory, entity.RatingHistoryEntry{
			GroupID:   group.ID,
			GroupName: group.Name,
			RatedAt:   now,
		})

		if err := s.groupRepo.Save(ctx, group); err != nil {
			return fmt.Errorf("failed to save group: %w", err)
		}
		if err := s.userRepo.Save(ctx, rater); err != nil {
			return fmt.Errorf("failed to save user: %w", err)
		}

		rated = group
		return nil
	})
	if err != nil {
		recordRuleViolation(err)
		return nil, nil, err
	}

	metrics.GroupRatingChanges.WithLabelValues("rate").Inc()
	metrics.GroupRatingScore.Observe(scores.Total())
	s.events.publish(ctx, entity.EventGroupRated, rated.ID, raterID)

	logger.Info().
		Str("group_id", rated.ID.Hex()).
		Str("user_id", raterID.Hex()).
		Float64("total_rating", rated.TotalRating).
		Msg("Group rated")

	return rated, &newRating, nil
}

// RemoveRating отзывает оценку пользователя и удаляет запись из его истории
func (s *RatingService) RemoveRating(ctx context.Context, principal entity.Principal, groupID string) (*entity.Group, error) {
	raterID, err := parseUserID(principal.UserID)
	if err != nil {
		return nil, err
	}

	var unrated *entity.Group
	err = s.atomic.run(ctx, "unrate group", func(ctx context.Context) error {
		group, err := loadGroup(ctx, s.groupRepo, groupID)
		if err != nil {
			return err
		}

		if !group.RemoveRating(raterID) {
			return ErrRatingNotFound
		}
		group.RecomputeAggregate()

		rater, err := loadUser(ctx, s.userRepo, raterID)
		if err != nil {
			return err
		}
		rater.RemoveRatingHistory(group.ID)

		if err := s.groupRepo.Save(ctx, group); err != nil {
			return fmt.Errorf("failed to save group: %w", err)
		}
		if err := s.userRepo.Save(ctx, rater); err != nil {
			return fmt.Errorf("failed to save user: %w", err)
		}

		unrated = group
		return nil
	})
	if err != nil {
		recordRuleViolation(err)
		return nil, err
	}

	metrics.GroupRatingChanges.WithLabelValues("unrate").Inc()
	s.events.publish(ctx, entity.EventGroupUnrated, unrated.ID, raterID)

	logger.Info().
		Str("group_id", unrated.ID.Hex()).
		Str("user_id", raterID.Hex()).
		Msg("Group rating removed")

	return unrated, nil
}

// GetRatings возвращает оценки группы, новые первыми
func (s *RatingService) GetRatings(ctx context.Context, groupID string) ([]entity.Rating, error) {
	group, err := loadGroup(ctx, s.groupRepo, groupID)
	if err != nil {
		return nil, err
	}

	ratings := make([]entity.Rating, len(group.Ratings))
	copy(ratings, group.Ratings)
	sort.SliceStable(ratings, func(i, j int) bool {
		return ratings[i].CreatedAt.After(ratings[j].CreatedAt)
	})

	return ratings, nil
}
