package service

import (
	"context"
	"fmt"

	"iat/tracker-service/internal/app/tracker/entity"
	"iat/tracker-service/internal/app/tracker/repository"
)

// UserService выдает профили стажеров и статистику по направлениям
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService создает сервис пользователей
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// GetCurrentUser возвращает профиль вызывающего пользователя
func (s *UserService) GetCurrentUser(ctx context.Context, principal entity.Principal) (*entity.User, error) {
	userID, err := parseUserID(principal.UserID)
	if err != nil {
		return nil, err
	}
	return loadUser(ctx, s.userRepo, userID)
}

// ListInterns возвращает всех стажеров (хэши паролей не сериализуются)
func (s *UserService) ListInterns(ctx context.Context) ([]entity.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// DepartmentCounts возвращает число стажеров на каждом направлении
func (s *UserService) DepartmentCounts(ctx context.Context) ([]entity.DepartmentCount, error) {
	counts, err := s.userRepo.CountByBranch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users by branch: %w", err)
	}
	return counts, nil
}
