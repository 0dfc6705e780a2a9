package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"iat/pkg/logger"
	"iat/pkg/metrics"
	"iat/pkg/rubric"
	"iat/reconciler-service/internal/app/reconciler/entity"
	"iat/reconciler-service/internal/app/reconciler/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrInvalidID идентификатор из события не является ObjectID
var ErrInvalidID = errors.New("invalid object id")

// maxAttempts число попыток при проигранной гонке version
const maxAttempts = 3

// ReconcileService read-repair рассинхронизации между документами Group и User.
// Источник истины: members и ratings группы. Профиль пользователя выводится из них.
type ReconcileService struct {
	groupRepo repository.GroupRepository
	userRepo  repository.UserRepository
}

func NewReconcileService(groupRepo repository.GroupRepository, userRepo repository.UserRepository) *ReconcileService {
	return &ReconcileService{groupRepo: groupRepo, userRepo: userRepo}
}

// ReconcileUser приводит профиль пользователя в соответствие с группами:
// 1. Если пользователя содержат несколько групп, остается самая ранняя по joinDate
// 2. joinedGroups переписывается по фактическому членству
// 3. ratingHistory: удаляются записи о существующих группах без оценки, добавляются недостающие
func (s *ReconcileService) ReconcileUser(ctx context.Context, userID string) (entity.Report, error) {
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return entity.Report{}, fmt.Errorf("%w: %q", ErrInvalidID, userID)
	}

	report, err := s.reconcileUser(ctx, id)
	if err != nil {
		return report, err
	}
	recordRepairs(report)
	return report, nil
}

// ReconcileGroup пересчитывает агрегаты группы и сверяет профили всех связанных с ней пользователей.
// Для удаленной группы ее id убирается из joinedGroups; история оценок сохраняется.
func (s *ReconcileService) ReconcileGroup(ctx context.Context, groupID string) (entity.Report, error) {
	id, err := primitive.ObjectIDFromHex(groupID)
	if err != nil {
		return entity.Report{}, fmt.Errorf("%w: %q", ErrInvalidID, groupID)
	}

	report, err := s.reconcileGroup(ctx, id)
	if err != nil {
		return report, err
	}
	recordRepairs(report)
	return report, nil
}

// ReconcileAll полная сверка: сначала агрегаты всех групп, затем профили всех пользователей.
// Ошибка по одному документу не прерывает обход.
func (s *ReconcileService) ReconcileAll(ctx context.Context) (entity.Report, error) {
	var report entity.Report
	var errs []error

	groups, err := s.groupRepo.List(ctx)
	if err != nil {
		metrics.ReconcilerRuns.WithLabelValues("failed").Inc()
		return report, fmt.Errorf("failed to list groups: %w", err)
	}

	for i := range groups {
		fixed, err := s.repairAggregate(ctx, groups[i].ID)
		if errors.Is(err, repository.ErrGroupNotFound) {
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("group %s: %w", groups[i].ID.Hex(), err))
			continue
		}
		if fixed {
			report.Aggregates++
		}
	}

	userIDs, err := s.userRepo.ListIDs(ctx)
	if err != nil {
		metrics.ReconcilerRuns.WithLabelValues("failed").Inc()
		recordRepairs(report)
		return report, fmt.Errorf("failed to list users: %w", err)
	}

	for _, id := range userIDs {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		userReport, err := s.reconcileUser(ctx, id)
		report.Add(userReport)
		if err != nil {
			errs = append(errs, fmt.Errorf("user %s: %w", id.Hex(), err))
		}
	}

	recordRepairs(report)

	if len(errs) > 0 {
		metrics.ReconcilerRuns.WithLabelValues("failed").Inc()
		return report, errors.Join(errs...)
	}

	metrics.ReconcilerRuns.WithLabelValues("success").Inc()
	return report, nil
}

func (s *ReconcileService) reconcileGroup(ctx context.Context, groupID primitive.ObjectID) (entity.Report, error) {
	var report entity.Report

	fixed, err := s.repairAggregate(ctx, groupID)
	if err != nil && !errors.Is(err, repository.ErrGroupNotFound) {
		return report, err
	}
	if fixed {
		report.Aggregates++
	}

	affected, err := s.affectedUsers(ctx, groupID)
	if err != nil {
		return report, err
	}

	for _, userID := range affected {
		userReport, err := s.reconcileUser(ctx, userID)
		report.Add(userReport)
		if err != nil {
			return report, fmt.Errorf("user %s: %w", userID.Hex(), err)
		}
	}

	return report, nil
}

// affectedUsers пользователи, у которых хотя бы одна сторона ссылается на группу
func (s *ReconcileService) affectedUsers(ctx context.Context, groupID primitive.ObjectID) ([]primitive.ObjectID, error) {
	seen := make(map[primitive.ObjectID]struct{})
	var ids []primitive.ObjectID
	add := func(id primitive.ObjectID) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	group, err := s.groupRepo.GetByID(ctx, groupID)
	switch {
	case err == nil:
		for _, m := range group.Members {
			add(m.UserID)
		}
		for _, r := range group.Ratings {
			add(r.RaterID)
		}
	case !errors.Is(err, repository.ErrGroupNotFound):
		return nil, err
	}

	joined, err := s.userRepo.FindByJoinedGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	for _, u := range joined {
		add(u.ID)
	}

	rated, err := s.userRepo.FindByRatedGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	for _, u := range rated {
		add(u.ID)
	}

	return ids, nil
}

// repairAggregate пересчитывает агрегаты и сохраняет их, если они разошлись со списком оценок
func (s *ReconcileService) repairAggregate(ctx context.Context, groupID primitive.ObjectID) (bool, error) {
	var fixed bool
	err := withRetry(ctx, func() error {
		group, err := s.groupRepo.GetByID(ctx, groupID)
		if err != nil {
			return err
		}

		agg := rubric.Recompute(group.Scores())
		if agg == group.Aggregate {
			return nil
		}

		if err := s.groupRepo.SetAggregate(ctx, group, agg); err != nil {
			return err
		}

		logger.Info().
			Str("group_id", groupID.Hex()).
			Int("rating_count", agg.RatingCount).
			Float64("total_rating", agg.TotalRating).
			Msg("Repaired group aggregate")
		fixed = true
		return nil
	})
	return fixed, err
}

func (s *ReconcileService) reconcileUser(ctx context.Context, userID primitive.ObjectID) (entity.Report, error) {
	var report entity.Report
	err := withRetry(ctx, func() error {
		report = entity.Report{}

		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				logger.Debug().Str("user_id", userID.Hex()).Msg("User not found, nothing to reconcile")
				return nil
			}
			return err
		}

		kept, removed, err := s.resolveMembership(ctx, userID)
		report.DuplicateMembership += removed
		if err != nil {
			return err
		}

		joined := []primitive.ObjectID{}
		if kept != nil {
			joined = append(joined, kept.ID)
		}
		joinedChanged := !sameIDs(user.JoinedGroups, joined)
		if joinedChanged {
			report.JoinedGroups++
		}

		history, historyFixes, err := s.deriveHistory(ctx, user)
		if err != nil {
			return err
		}
		report.RatingHistory += historyFixes

		if !joinedChanged && historyFixes == 0 {
			return nil
		}

		if err := s.userRepo.SetProfile(ctx, user, joined, history); err != nil {
			return err
		}

		logger.Info().
			Str("user_id", userID.Hex()).
			Bool("joined_groups_fixed", joinedChanged).
			Int("rating_history_fixes", historyFixes).
			Msg("Repaired user profile")
		return nil
	})
	return report, err
}

// resolveMembership оставляет пользователя только в группе с самой ранней датой вступления
func (s *ReconcileService) resolveMembership(ctx context.Context, userID primitive.ObjectID) (*entity.Group, int, error) {
	groups, err := s.groupRepo.FindByMember(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	if len(groups) == 0 {
		return nil, 0, nil
	}

	sort.SliceStable(groups, func(i, j int) bool {
		ji := groups[i].Member(userID).JoinDate
		jj := groups[j].Member(userID).JoinDate
		if ji.Equal(jj) {
			return groups[i].ID.Hex() < groups[j].ID.Hex()
		}
		return ji.Before(jj)
	})

	removed := 0
	for i := 1; i < len(groups); i++ {
		if err := s.groupRepo.PullMember(ctx, &groups[i], userID); err != nil {
			return nil, removed, err
		}
		removed++
		logger.Warn().
			Str("user_id", userID.Hex()).
			Str("group_id", groups[i].ID.Hex()).
			Str("kept_group_id", groups[0].ID.Hex()).
			Msg("Removed duplicate membership")
	}

	return &groups[0], removed, nil
}

// deriveHistory строит ratingHistory по фактическим оценкам.
// Записи об удаленных группах остаются как есть; возвращает число исправлений.
func (s *ReconcileService) deriveHistory(ctx context.Context, user *entity.User) ([]entity.RatingHistoryEntry, int, error) {
	ratedGroups, err := s.groupRepo.FindRatedBy(ctx, user.ID)
	if err != nil {
		return nil, 0, err
	}
	rated := make(map[primitive.ObjectID]*entity.Group, len(ratedGroups))
	for i := range ratedGroups {
		rated[ratedGroups[i].ID] = &ratedGroups[i]
	}

	fixes := 0
	present := make(map[primitive.ObjectID]struct{})
	history := make([]entity.RatingHistoryEntry, 0, len(user.RatingHistory))

	for _, entry := range user.RatingHistory {
		if _, dup := present[entry.GroupID]; dup {
			fixes++
			continue
		}

		if _, ok := rated[entry.GroupID]; !ok {
			_, err := s.groupRepo.GetByID(ctx, entry.GroupID)
			switch {
			case err == nil:
				// группа существует, но оценки нет
				fixes++
				continue
			case !errors.Is(err, repository.ErrGroupNotFound):
				return nil, 0, err
			}
		}

		present[entry.GroupID] = struct{}{}
		history = append(history, entry)
	}

	for _, g := range ratedGroups {
		if _, ok := present[g.ID]; ok {
			continue
		}
		rating := g.RatingBy(user.ID)
		history = append(history, entity.RatingHistoryEntry{
			GroupID:   g.ID,
			GroupName: g.Name,
			RatedAt:   rating.CreatedAt,
		})
		present[g.ID] = struct{}{}
		fixes++
	}

	return history, fixes, nil
}

// withRetry повторяет fn при ErrVersionConflict, не более maxAttempts раз
func withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err = fn(); !errors.Is(err, repository.ErrVersionConflict) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return err
}

func sameIDs(a, b []primitive.ObjectID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func recordRepairs(r entity.Report) {
	add := func(kind string, n int) {
		if n > 0 {
			metrics.ReconcilerRepairs.WithLabelValues(kind).Add(float64(n))
		}
	}
	add("joined_groups", r.JoinedGroups)
	add("duplicate_membership", r.DuplicateMembership)
	add("aggregates", r.Aggregates)
	add("rating_history", r.RatingHistory)
}
