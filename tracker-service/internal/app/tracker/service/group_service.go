package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"iat/pkg/logger"
	"iat/tracker-service/internal/app/tracker/entity"
	"iat/tracker-service/internal/app/tracker/infrastructure"
	"iat/tracker-service/internal/app/tracker/repository"
)

// GroupService обрабатывает создание, чтение и удаление групп
type GroupService struct {
	groupRepo repository.GroupRepository
	userRepo  repository.UserRepository
	atomic    atomicRunner
	events    eventPublisher
}

// NewGroupService создает сервис групп с внедрением зависимостей
func NewGroupService(
	groupRepo repository.GroupRepository,
	userRepo repository.UserRepository,
	tx repository.Transactor,
	kafkaProducer infrastructure.MessagePublisher,
) *GroupService {
	return &GroupService{
		groupRepo: groupRepo,
		userRepo:  userRepo,
		atomic:    atomicRunner{tx: tx},
		events:    eventPublisher{producer: kafkaProducer},
	}
}

// CreateGroup создает пустую группу. Создатель в нее не добавляется.
func (s *GroupService) CreateGroup(ctx context.Context, principal entity.Principal, req *entity.CreateGroupRequest) (*entity.Group, error) {
	creatorID, err := parseUserID(principal.UserID)
	if err != nil {
		return nil, err
	}

	group, err := s.create(ctx, req.Name)
	if err != nil {
		return nil, err
	}

	s.events.publish(ctx, entity.EventGroupCreated, group.ID, creatorID)

	logger.Info().
		Str("group_id", group.ID.Hex()).
		Str("name", group.Name).
		Str("user_id", creatorID.Hex()).
		Msg("Group created")

	return group, nil
}

// GetGroup получает группу по ID
func (s *GroupService) GetGroup(ctx context.Context, groupID string) (*entity.Group, error) {
	return loadGroup(ctx, s.groupRepo, groupID)
}

// ListGroups возвращает группы по убыванию рейтинга с флагами для текущего пользователя
func (s *GroupService) ListGroups(ctx context.Context, principal entity.Principal) ([]entity.GroupView, error) {
	groups, err := s.groupRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].TotalRating > groups[j].TotalRating
	})

	// Некорректный ID не ошибка: флаги просто остаются false
	userID, idErr := parseUserID(principal.UserID)

	views := make([]entity.GroupView, 0, len(groups))
	for _, g := range groups {
		view := entity.GroupView{Group: g}
		if idErr == nil {
			view.IsMember = g.HasMember(userID)
			view.HasRated = g.HasRated(userID)
		}
		views = append(views, view)
	}

	return views, nil
}

// DeleteGroup удаляет группу. Удалять может только ее участник.
// ID группы убирается из joinedGroups всех пользователей в той же транзакции,
// история оценок пользователей сохраняется.
func (s *GroupService) DeleteGroup(ctx context.Context, principal entity.Principal, groupID string) error {
	userID, err := parseUserID(principal.UserID)
	if err != nil {
		return err
	}

	var deleted *entity.Group
	err = s.atomic.run(ctx, "delete group", func(ctx context.Context) error {
		group, err := loadGroup(ctx, s.groupRepo, groupID)
		if err != nil {
			return err
		}

		if !group.HasMember(userID) {
			return ErrForbidden
		}

		if err := s.groupRepo.Delete(ctx, group.ID); err != nil {
			if errors.Is(err, repository.ErrGroupNotFound) {
				return ErrGroupNotFound
			}
			return fmt.Errorf("failed to delete group: %w", err)
		}

		if _, err := s.userRepo.PullJoinedGroup(ctx, group.ID); err != nil {
			return fmt.Errorf("failed to detach members: %w", err)
		}

		deleted = group
		return nil
	})
	if err != nil {
		return err
	}

	s.events.publish(ctx, entity.EventGroupDeleted, deleted.ID, userID)

	logger.Info().
		Str("group_id", deleted.ID.Hex()).
		Str("name", deleted.Name).
		Str("user_id", userID.Hex()).
		Int("members", len(deleted.Members)).
		Msg("Group deleted")

	return nil
}

// EnsureGroups создает недостающие предопределенные группы (идемпотентно)
func (s *GroupService) EnsureGroups(ctx context.Context, names []string) error {
	for _, name := range names {
		group, err := s.create(ctx, name)
		if errors.Is(err, ErrGroupExists) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to seed group %q: %w", name, err)
		}

		logger.Info().Str("group_id", group.ID.Hex()).Str("name", group.Name).Msg("Seeded group")
	}

	return nil
}

func (s *GroupService) create(ctx context.Context, name string) (*entity.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: group name is required", ErrValidation)
	}

	_, err := s.groupRepo.GetByName(ctx, name)
	if err == nil {
		return nil, ErrGroupExists
	}
	if !errors.Is(err, repository.ErrGroupNotFound) {
		return nil, fmt.Errorf("failed to check group name: %w", err)
	}

	group := &entity.Group{
		Name:    name,
		Members: []entity.Member{},
		Ratings: []entity.Rating{},
	}
	group.RecomputeAggregate()

	if err := s.groupRepo.Create(ctx, group); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrGroupExists
		}
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	return group, nil
}
