package entity

import (
	"time"

	"iat/pkg/rubric"
)

// RegisterRequest - запрос на регистрацию стажера
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Branch   Branch `json:"branch" validate:"required,oneof=MBA Electrical Electronics CSE Mechanical"`
}

// LoginRequest - запрос на вход
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshTokenRequest - запрос на обновление токенов
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// TokenPair - пара access/refresh токенов
type TokenPair struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"` // секунды до истечения access токена
}

// LoginResponse - ответ на успешный вход
type LoginResponse struct {
	TokenPair
	User *User `json:"user"`
}

// RegisterResponse - ответ на успешную регистрацию
type RegisterResponse struct {
	Message string `json:"message"`
	User    *User  `json:"user"`
}

// VerifyTokenResponse - ответ на проверку токена
type VerifyTokenResponse struct {
	Valid bool      `json:"valid"`
	User  Principal `json:"user"`
}

// DepartmentCount число стажеров на направлении
type DepartmentCount struct {
	Department string `json:"department" bson:"_id"`
	Count      int    `json:"count" bson:"count"`
}

// CreateGroupRequest - запрос на создание группы
type CreateGroupRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

// RateGroupRequest - оценка группы по шести измерениям.
// Указатели отличают отсутствующее поле от нулевой оценки.
// Наличие и диапазон проверяются в сервисе после поиска группы.
type RateGroupRequest struct {
	Communication     *float64 `json:"communication"`
	Presentation      *float64 `json:"presentation"`
	Content           *float64 `json:"content"`
	HelpfulForCompany *float64 `json:"helpfulForCompany"`
	HelpfulForInterns *float64 `json:"helpfulForInterns"`
	Participation     *float64 `json:"participation"`
	Comments          string   `json:"comments" validate:"max=500"`
}

// Scores переводит запрос в оценки рубрики (отсутствующие поля считаются нулем)
func (r *RateGroupRequest) Scores() rubric.Scores {
	deref := func(v *float64) float64 {
		if v == nil {
			return 0
		}
		return *v
	}
	return rubric.Scores{
		Communication:     deref(r.Communication),
		Presentation:      deref(r.Presentation),
		Content:           deref(r.Content),
		HelpfulForCompany: deref(r.HelpfulForCompany),
		HelpfulForInterns: deref(r.HelpfulForInterns),
		Participation:     deref(r.Participation),
	}
}

// Missing возвращает измерения, которых нет в запросе
func (r *RateGroupRequest) Missing() []string {
	fields := []struct {
		name  string
		value *float64
	}{
		{rubric.DimCommunication, r.Communication},
		{rubric.DimPresentation, r.Presentation},
		{rubric.DimContent, r.Content},
		{rubric.DimHelpfulForCompany, r.HelpfulForCompany},
		{rubric.DimHelpfulForInterns, r.HelpfulForInterns},
		{rubric.DimParticipation, r.Participation},
	}

	var missing []string
	for _, f := range fields {
		if f.value == nil {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// GroupView группа с флагами относительно текущего пользователя
type GroupView struct {
	Group
	IsMember bool `json:"isMember"`
	HasRated bool `json:"hasRated"`
}

// GroupResponse - ответ на join/leave/unrate
type GroupResponse struct {
	Message string `json:"message"`
	Group   *Group `json:"group"`
}

// RatingResponse - ответ на оценку группы
type RatingResponse struct {
	Message   string  `json:"message"`
	Group     *Group  `json:"group"`
	NewRating *Rating `json:"newRating"`
}

// SubmitFormRequest - ежедневный отчет
type SubmitFormRequest struct {
	Name       string `json:"name" validate:"required,max=255"`
	Branch     string `json:"branch" validate:"required,max=50"`
	Activities string `json:"activities" validate:"required,max=5000"`
}

// LinkRequest - ссылка проекта
type LinkRequest struct {
	Title string `json:"title" validate:"max=255"`
	URL   string `json:"url" validate:"omitempty,url"`
}

// CreateProjectRequest - запрос на создание проекта
type CreateProjectRequest struct {
	Name        string        `json:"name" validate:"required,max=255"`
	Description string        `json:"description" validate:"max=5000"`
	Deadline    *time.Time    `json:"deadline" validate:"required"`
	Progress    *float64      `json:"progress" validate:"omitempty,min=0,max=100"`
	Links       []LinkRequest `json:"links" validate:"dive"`
}

// UpdateProjectRequest - частичное обновление проекта
type UpdateProjectRequest struct {
	Name        *string    `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string    `json:"description" validate:"omitempty,max=5000"`
	Deadline    *time.Time `json:"deadline"`
	Progress    *float64   `json:"progress" validate:"omitempty,min=0,max=100"`
}

// UpdateProgressRequest - обновление прогресса проекта (диапазон проверяется в сервисе)
type UpdateProgressRequest struct {
	Progress *float64 `json:"progress" validate:"required"`
}

// CheckpointInput - контрольная точка в запросе полной замены
type CheckpointInput struct {
	Label      string           `json:"label" validate:"required,max=255"`
	Value      *float64         `json:"value" validate:"required,min=0,max=100"`
	Section    string           `json:"section" validate:"required,max=255"`
	Status     CheckpointStatus `json:"status"`
	TargetDate *time.Time       `json:"targetDate"`
}

// ReplaceCheckpointsRequest - полная замена контрольных точек
type ReplaceCheckpointsRequest struct {
	Checkpoints []CheckpointInput `json:"checkpoints" validate:"required,dive"`
}

// UpdateCheckpointRequest - частичное обновление одной контрольной точки
type UpdateCheckpointRequest struct {
	Label      *string           `json:"label" validate:"omitempty,min=1,max=255"`
	Value      *float64          `json:"value" validate:"omitempty,min=0,max=100"`
	Section    *string           `json:"section" validate:"omitempty,min=1,max=255"`
	Status     *CheckpointStatus `json:"status"`
	TargetDate *time.Time        `json:"targetDate"`
}

// ErrorResponse - стандартный ответ об ошибке
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// MessageResponse - ответ с сообщением
type MessageResponse struct {
	Message string `json:"message"`
}
