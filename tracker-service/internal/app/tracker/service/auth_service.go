package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"iat/pkg/logger"
	"iat/pkg/metrics"
	"iat/tracker-service/internal/app/tracker/entity"
	"iat/tracker-service/internal/app/tracker/repository"
	"iat/tracker-service/internal/app/tracker/util"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuthService обрабатывает бизнес-логику аутентификации
type AuthService struct {
	userRepo   repository.UserRepository
	tokenRepo  repository.TokenRepository
	jwtManager *util.JWTManager
	now        func() time.Time
}

// NewAuthService создает новый сервис аутентификации
func NewAuthService(
	userRepo repository.UserRepository,
	tokenRepo repository.TokenRepository,
	jwtManager *util.JWTManager,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		jwtManager: jwtManager,
		now:        time.Now,
	}
}

// Register регистрирует нового стажера. Токены не выдаются, после регистрации нужен вход.
func (s *AuthService) Register(ctx context.Context, req *entity.RegisterRequest) (*entity.RegisterResponse, error) {
	email := normalizeEmail(req.Email)
	username := strings.TrimSpace(req.Username)

	exists, err := s.userRepo.ExistsByEmailOrUsername(ctx, email, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	passwordHash, err := util.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entity.User{
		Username:      username,
		Email:         email,
		PasswordHash:  passwordHash,
		Branch:        req.Branch,
		JoinedGroups:  []primitive.ObjectID{},
		RatingHistory: []entity.RatingHistoryEntry{},
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	metrics.AuthRegistrations.Inc()
	logger.Info().Str("user_id", user.ID.Hex()).Str("branch", string(user.Branch)).Msg("User registered")

	return &entity.RegisterResponse{
		Message: "User registered successfully",
		User:    user,
	}, nil
}

// Login выполняет вход пользователя
func (s *AuthService) Login(ctx context.Context, req *entity.LoginRequest) (*entity.LoginResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			metrics.AuthLogins.WithLabelValues("failed").Inc()
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !util.CheckPassword(req.Password, user.PasswordHash) {
		metrics.AuthLogins.WithLabelValues("failed").Inc()
		return nil, ErrInvalidCredentials
	}

	pair, err := s.generateTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}

	metrics.AuthLogins.WithLabelValues("success").Inc()
	return &entity.LoginResponse{TokenPair: *pair, User: user}, nil
}

// RefreshTokens обменивает одноразовый refresh токен на новую пару
func (s *AuthService) RefreshTokens(ctx context.Context, refreshToken string) (*entity.TokenPair, error) {
	userIDHex, err := s.tokenRepo.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	// Удаление проверяет, что токен не был использован параллельно
	if err := s.tokenRepo.DeleteRefreshToken(ctx, refreshToken); err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to delete refresh token: %w", err)
	}

	userID, err := parseUserID(userIDHex)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	user, err := loadUser(ctx, s.userRepo, userID)
	if err != nil {
		return nil, err
	}

	return s.generateTokenPair(ctx, user)
}

// Logout инвалидирует access токен и все refresh токены пользователя
func (s *AuthService) Logout(ctx context.Context, principal entity.Principal, accessToken string) error {
	claims, err := s.jwtManager.ValidateToken(accessToken)
	if err != nil {
		// Невалидный токен и так не пройдет проверку
		return nil
	}

	if err := s.tokenRepo.AddToBlacklist(ctx, accessToken, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}

	if err := s.tokenRepo.DeleteUserRefreshTokens(ctx, principal.UserID); err != nil {
		return fmt.Errorf("failed to delete refresh tokens: %w", err)
	}

	logger.Info().Str("user_id", principal.UserID).Msg("User logged out")
	return nil
}

// ValidateToken проверяет access токен и черный список
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*util.JWTClaims, error) {
	claims, err := s.jwtManager.ValidateToken(token)
	if err != nil {
		if errors.Is(err, util.ErrExpiredToken) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	blacklisted, err := s.tokenRepo.IsBlacklisted(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	if blacklisted {
		return nil, ErrTokenBlacklisted
	}

	return claims, nil
}

func (s *AuthService) generateTokenPair(ctx context.Context, user *entity.User) (*entity.TokenPair, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(PrincipalOf(user))
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	expiresAt := s.now().Add(s.jwtManager.GetRefreshTokenDuration())
	if err := s.tokenRepo.SaveRefreshToken(ctx, user.ID.Hex(), refreshToken, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to save refresh token: %w", err)
	}

	return &entity.TokenPair{
		Token:        accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtManager.GetAccessTokenDuration().Seconds()),
	}, nil
}

// PrincipalOf собирает principal для токена из документа пользователя
func PrincipalOf(user *entity.User) entity.Principal {
	return entity.Principal{
		UserID: user.ID.Hex(),
		Name:   user.Username,
		Email:  user.Email,
		Branch: string(user.Branch),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
