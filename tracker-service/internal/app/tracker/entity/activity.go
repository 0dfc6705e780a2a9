package entity

import (
	"time"

	"github.com/google/uuid"
)

// Form ежедневный отчет стажера об активностях (PostgreSQL)
type Form struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID     string    `json:"userId" gorm:"type:varchar(24);not null;index:idx_forms_user_date,priority:1"` // ObjectID пользователя из MongoDB
	Name       string    `json:"name" gorm:"type:varchar(255);not null"`
	Branch     string    `json:"branch" gorm:"type:varchar(50);not null"`
	Activities string    `json:"activities" gorm:"type:text;not null"`
	Date       time.Time `json:"date" gorm:"not null;index:idx_forms_user_date,priority:2"`
	CreatedAt  time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt  time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// TableName указывает имя таблицы для GORM
func (Form) TableName() string {
	return "forms"
}

// ActivityView отчет с отдельно отформатированными датой и временем
type ActivityView struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Branch     string    `json:"branch"`
	Activities string    `json:"activities"`
	Date       string    `json:"date"` // "Jan 2, 2006"
	Time       string    `json:"time"` // "03:04 PM"
	Datetime   time.Time `json:"datetime"`
}

// NewActivityView форматирует отчет для публичной ленты активностей
func NewActivityView(f Form) ActivityView {
	return ActivityView{
		ID:         f.ID,
		Name:       f.Name,
		Branch:     f.Branch,
		Activities: f.Activities,
		Date:       f.Date.Format("Jan 2, 2006"),
		Time:       f.Date.Format("03:04 PM"),
		Datetime:   f.Date,
	}
}

// CheckpointStatus статус контрольной точки проекта
type CheckpointStatus string

const (
	CheckpointNotStarted CheckpointStatus = "not started"
	CheckpointOnSchedule CheckpointStatus = "on schedule"
	CheckpointInProgress CheckpointStatus = "in progress"
	CheckpointAtRisk     CheckpointStatus = "at risk"
	CheckpointCompleted  CheckpointStatus = "completed"
)

// Project проект с обязательным набором контрольных точек
type Project struct {
	ID          uuid.UUID     `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string        `json:"name" gorm:"type:varchar(255);not null"`
	Description string        `json:"description" gorm:"type:text;not null;default:''"`
	Deadline    time.Time     `json:"deadline" gorm:"not null"`
	Progress    float64       `json:"progress" gorm:"not null;default:0;check:progress >= 0 AND progress <= 100"`
	Links       []ProjectLink `json:"links" gorm:"foreignKey:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Checkpoints []Checkpoint  `json:"checkpoints" gorm:"foreignKey:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	CreatedAt   time.Time     `json:"createdAt" gorm:"autoCreateTime"`
}

// TableName указывает имя таблицы для GORM
func (Project) TableName() string {
	return "projects"
}

type ProjectLink struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ProjectID uuid.UUID `json:"projectId" gorm:"type:uuid;not null;index"`
	Title     string    `json:"title" gorm:"type:varchar(255)"`
	URL       string    `json:"url" gorm:"type:text"`
}

// TableName указывает имя таблицы для GORM
func (ProjectLink) TableName() string {
	return "project_links"
}

type Checkpoint struct {
	ID         uuid.UUID        `json:"id" gorm:"type:uuid;primaryKey"`
	ProjectID  uuid.UUID        `json:"projectId" gorm:"type:uuid;not null;index"`
	Position   int              `json:"position" gorm:"not null"` // порядок отображения
	Label      string           `json:"label" gorm:"type:varchar(255);not null"`
	Value      float64          `json:"value" gorm:"not null;check:value >= 0 AND value <= 100"`
	Section    string           `json:"section" gorm:"type:varchar(255);not null"`
	Status     CheckpointStatus `json:"status" gorm:"type:varchar(20);not null;default:'not started'"`
	TargetDate time.Time        `json:"targetDate"`
}

// TableName указывает имя таблицы для GORM
func (Checkpoint) TableName() string {
	return "project_checkpoints"
}

// CompletedProgress сумма весов завершенных точек, ограниченная диапазоном [0, 100]
func CompletedProgress(checkpoints []Checkpoint) float64 {
	var total float64
	for _, cp := range checkpoints {
		if cp.Status == CheckpointCompleted {
			total += cp.Value
		}
	}
	if total < 0 {
		return 0
	}
	if total > 100 {
		return 100
	}
	return total
}

// Valid проверяет, что статус входит в допустимый набор
func (s CheckpointStatus) Valid() bool {
	switch s {
	case CheckpointNotStarted, CheckpointOnSchedule, CheckpointInProgress, CheckpointAtRisk, CheckpointCompleted:
		return true
	}
	return false
}
