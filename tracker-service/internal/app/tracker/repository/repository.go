package repository

import (
	"context"
	"errors"
	"time"

	"iat/tracker-service/internal/app/tracker/entity"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// Стандартные ошибки репозитория для обработки в service layer
	ErrGroupNotFound      = errors.New("group not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrFormNotFound       = errors.New("form not found")
	ErrProjectNotFound    = errors.New("project not found")
	ErrCheckpointNotFound = errors.New("checkpoint not found")
	ErrTokenNotFound      = errors.New("refresh token not found")
	ErrDuplicateKey       = errors.New("duplicate key")
	// ErrVersionConflict документ изменился между чтением и записью
	ErrVersionConflict = errors.New("document version conflict")
	// ErrNotRolledBack операция прервалась без транзакции, часть записей могла остаться в базе
	ErrNotRolledBack = errors.New("write interrupted without rollback")
)

// GroupRepository определяет методы для работы с группами в MongoDB
type GroupRepository interface {
	Create(ctx context.Context, group *entity.Group) error
	GetByID(ctx context.Context, id string) (*entity.Group, error)
	GetByName(ctx context.Context, name string) (*entity.Group, error)
	List(ctx context.Context) ([]entity.Group, error)
	FindByMember(ctx context.Context, userID primitive.ObjectID) ([]entity.Group, error)
	// Save записывает документ целиком, если его version не изменилась с момента чтения
	Save(ctx context.Context, group *entity.Group) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// UserRepository определяет методы для работы с пользователями в MongoDB
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)
	List(ctx context.Context) ([]entity.User, error)
	CountByBranch(ctx context.Context) ([]entity.DepartmentCount, error)
	// Save записывает документ целиком, если его version не изменилась с момента чтения
	Save(ctx context.Context, user *entity.User) error
	// PullJoinedGroup удаляет группу из joinedGroups всех пользователей
	PullJoinedGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error)
}

// Transactor выполняет fn атомарно относительно документов, которые fn изменяет.
// Если откатить fn невозможно, конфликт версий возвращается как ErrNotRolledBack.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// TokenRepository определяет методы для работы с токенами в Redis
type TokenRepository interface {
	SaveRefreshToken(ctx context.Context, userID string, token string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, token string) (string, error)
	DeleteRefreshToken(ctx context.Context, token string) error
	DeleteUserRefreshTokens(ctx context.Context, userID string) error
	AddToBlacklist(ctx context.Context, token string, expiresAt time.Time) error
	IsBlacklisted(ctx context.Context, token string) (bool, error)
}

// CooldownStore быстрый признак того, что пользователь недавно отправлял отчет
type CooldownStore interface {
	// Acquire ставит отметку на ttl, возвращает false если отметка уже стоит
	Acquire(ctx context.Context, userID string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, userID string) error
}

// FormRepository определяет методы для работы с отчетами в PostgreSQL
type FormRepository interface {
	Create(ctx context.Context, form *entity.Form) error
	ExistsSince(ctx context.Context, userID string, since time.Time) (bool, error)
	List(ctx context.Context) ([]entity.Form, error)
	ListSince(ctx context.Context, since time.Time) ([]entity.Form, error)
	ListByUser(ctx context.Context, userID string) ([]entity.Form, error)
}

// ProjectRepository определяет методы для работы с проектами в PostgreSQL
type ProjectRepository interface {
	Create(ctx context.Context, project *entity.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Project, error)
	List(ctx context.Context) ([]entity.Project, error)
	Update(ctx context.Context, project *entity.Project) error
	UpdateProgress(ctx context.Context, id uuid.UUID, progress float64) error
	ReplaceCheckpoints(ctx context.Context, id uuid.UUID, checkpoints []entity.Checkpoint, progress float64) error
	UpdateCheckpoint(ctx context.Context, checkpoint *entity.Checkpoint) error
	Delete(ctx context.Context, id uuid.UUID) error
}
