package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"iat/pkg/logger"
	"iat/pkg/metrics"
	"iat/tracker-service/internal/app/tracker/entity"
	"iat/tracker-service/internal/app/tracker/infrastructure"
	"iat/tracker-service/internal/app/tracker/repository"
)

// MembershipService управляет вступлением в группы и выходом из них.
// Группа и пользователь меняются в одной транзакции с проверкой версий.
type MembershipService struct {
	groupRepo repository.GroupRepository
	userRepo  repository.UserRepository
	atomic    atomicRunner
	events    eventPublisher
	now       func() time.Time
}

// NewMembershipService создает сервис членства с внедрением зависимостей
func NewMembershipService(
	groupRepo repository.GroupRepository,
	userRepo repository.UserRepository,
	tx repository.Transactor,
	kafkaProducer infrastructure.MessagePublisher,
) *MembershipService {
	return &MembershipService{
		groupRepo: groupRepo,
		userRepo:  userRepo,
		atomic:    atomicRunner{tx: tx},
		events:    eventPublisher{producer: kafkaProducer},
		now:       time.Now,
	}
}

// JoinGroup добавляет пользователя в группу
// 1. Группа должна существовать
// 2. Пользователь не должен уже состоять в ней
// 3. Пользователь не должен состоять ни в одной другой группе
// 4. В группу пишется снимок пользователя, в профиль пользователя - ID группы
func (s *MembershipService) JoinGroup(ctx context.Context, principal entity.Principal, groupID string) (*entity.Group, error) {
	userID, err := parseUserID(principal.UserID)
	if err != nil {
		return nil, err
	}

	var joined *entity.Group
	err = s.atomic.run(ctx, "join group", func(ctx context.Context) error {
		group, err := loadGroup(ctx, s.groupRepo, groupID)
		if err != nil {
			return err
		}

		if group.HasMember(userID) {
			return ErrAlreadyMember
		}

		// Проверка по всем группам, а не только по профилю пользователя
		memberships, err := s.groupRepo.FindByMember(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to check memberships: %w", err)
		}
		if len(memberships) > 0 {
			return ErrSingleGroupViolation
		}

		user, err := loadUser(ctx, s.userRepo, userID)
		if err != nil {
			return err
		}
		if len(user.JoinedGroups) > 0 {
			return ErrSingleGroupViolation
		}

		group.Members = append(group.Members, entity.Member{
			UserID:   user.ID,
			Name:     user.Username,
			Email:    user.Email,
			Branch:   user.Branch,
			JoinDate: s.now(),
		})
		user.JoinedGroups = append(user.JoinedGroups, group.ID)

		if err := s.groupRepo.Save(ctx, group); err != nil {
			return fmt.Errorf("failed to save group: %w", err)
		}
		if err := s.userRepo.Save(ctx, user); err != nil {
			return fmt.Errorf("failed to save user: %w", err)
		}

		joined = group
		return nil
	})
	if err != nil {
		recordRuleViolation(err)
		return nil, err
	}

	metrics.GroupMembershipChanges.WithLabelValues("join").Inc()
	s.events.publish(ctx, entity.EventMemberJoined, joined.ID, userID)

	logger.Info().
		Str("group_id", joined.ID.Hex()).
		Str("user_id", userID.Hex()).
		Msg("User joined group")

	return joined, nil
}

// LeaveGroup удаляет пользователя из группы.
// Оценки, выставленные пользователем другим группам, остаются.
func (s *MembershipService) LeaveGroup(ctx context.Context, principal entity.Principal, groupID string) (*entity.Group, error) {
	userID, err := parseUserID(principal.UserID)
	if err != nil {
		return nil, err
	}

	var left *entity.Group
	err = s.atomic.run(ctx, "leave group", func(ctx context.Context) error {
		group, err := loadGroup(ctx, s.groupRepo, groupID)
		if err != nil {
			return err
		}

		if !group.RemoveMember(userID) {
			return ErrNotMember
		}

		user, err := loadUser(ctx, s.userRepo, userID)
		if err != nil && !errors.Is(err, ErrUserNotFound) {
			return err
		}

		if err := s.groupRepo.Save(ctx, group); err != nil {
			return fmt.Errorf("failed to save group: %w", err)
		}
		if user != nil {
			user.RemoveJoinedGroup(group.ID)
			if err := s.userRepo.Save(ctx, user); err != nil {
				return fmt.Errorf("failed to save user: %w", err)
			}
		}

		left = group
		return nil
	})
	if err != nil {
		recordRuleViolation(err)
		return nil, err
	}

	metrics.GroupMembershipChanges.WithLabelValues("leave").Inc()
	s.events.publish(ctx, entity.EventMemberLeft, left.ID, userID)

	logger.Info().
		Str("group_id", left.ID.Hex()).
		Str("user_id", userID.Hex()).
		Msg("User left group")

	return left, nil
}
