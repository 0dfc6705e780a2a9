package repository

import (
	"context"
	"errors"
	"fmt"

	"iat/pkg/metrics"
	"iat/tracker-service/internal/app/tracker/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const projectsTable = "projects"

type projectRepository struct {
	db *gorm.DB // GORM DB для работы с PostgreSQL
}

// NewProjectRepository создает новый репозиторий проектов
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func preloadCheckpoints(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// Create создает проект вместе со ссылками и контрольными точками
func (r *projectRepository) Create(ctx context.Context, project *entity.Project) error {
	timer := metrics.NewDbTimer(metricsService, metrics.DbOpInsert, projectsTable)
	defer timer.ObserveDuration()

	if err := r.db.WithContext(ctx).Create(project).Error; err != nil {
		metrics.RecordDbError(metricsService, metrics.DbOpInsert)
		return fmt.Errorf("failed to create project: %w", mapPgError(err, ErrProjectNotFound))
	}
	return nil
}

// GetByID получает проект с контрольными точками в порядке position
func (r *projectRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Project, error) {
	timer := metrics.NewDbTimer(metricsService, metrics.DbOpSelect, projectsTable)
	defer timer.ObserveDuration()

	var project entity.Project
	err := r.db.WithContext(ctx).
		Preload("Links").
		Preload("Checkpoints", preloadCheckpoints).
		First(&project, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		metrics.RecordDbError(metricsService, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return &project, nil
}

// List возвращает все проекты, новые первыми
func (r *projectRepository) List(ctx context.Context) ([]entity.Project, error) {
	timer := metrics.NewDbTimer(metricsService, metrics.DbOpSelect, projectsTable)
	defer timer.ObserveDuration()

	projects := []entity.Project{}
	err := r.db.WithContext(ctx).
		Preload("Links").
		Preload("Checkpoints", preloadCheckpoints).
		Order("created_at DESC").
		Find(&projects).Error
	if err != nil {
		metrics.RecordDbError(metricsService, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to get projects: %w", err)
	}

	return projects, nil
}

// Update обновляет основные поля проекта
func (r *projectRepository) Update(ctx context.Context, project *entity.Project) error {
	timer := metrics.NewDbTimer(metricsService, metrics.DbOpUpdate, projectsTable)
	defer timer.ObserveDuration()

	result := r.db.WithContext(ctx).Model(&entity.Project{}).
		Where("id = ?", project.ID).
		Updates(map[string]interface{}{
			"name":        project.Name,
			"description": project.Description,
			"deadline":    project.Deadline,
			"progress":    project.Progress,
		})

	if result.Error != nil {
		metrics.RecordDbError(metricsService, metrics.DbOpUpdate)
		return fmt.Errorf("failed to update project: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrProjectNotFound
	}

	return nil
}

// UpdateProgress обновляет только прогресс проекта
func (r *projectRepository) UpdateProgress(ctx context.Context, id uuid.UUID, progress float64) error {
	timer := metrics.NewDbTimer(metricsService, metrics.DbOpUpdate, projectsTable)
	defer timer.ObserveDuration()

	result := r.db.WithContext(ctx).Model(&entity.Project{}).
		Where("id = ?", id).
		Update("progress", progress)

	if result.Error != nil {
		metrics.RecordDbError(metricsService, metrics.DbOpUpdate)
		return fmt.Errorf("failed to update project progress: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrProjectNotFound
	}

	return nil
}

// ReplaceCheckpoints заменяет все контрольные точки и прогресс в одной транзакции
func (r *projectRepository) ReplaceCheckpoints(ctx context.Context, id uuid.UUID, checkpoints []entity.Checkpoint, progress float64) error {
	timer := metrics.NewDbTimer(metricsService, metrics.DbOpUpdate, projectsTable)
	defer timer.ObserveDuration()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entity.Project{}).Where("id = ?", id).Update("progress", progress)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrProjectNotFound
		}

		if err := tx.Where("project_id = ?", id).Delete(&entity.Checkpoint{}).Error; err != nil {
			return err
		}

		if len(checkpoints) == 0 {
			return nil
		}
		return tx.Create(&checkpoints).Error
	})

	if err != nil {
		if errors.Is(err, ErrProjectNotFound) {
			return err
		}
		metrics.RecordDbError(metricsService, metrics.DbOpUpdate)
		return fmt.Errorf("failed to replace checkpoints: %w", mapPgError(err, ErrProjectNotFound))
	}

	return nil
}

// UpdateCheckpoint обновляет одну контрольную точку проекта
func (r *projectRepository) UpdateCheckpoint(ctx context.Context, checkpoint *entity.Checkpoint) error {
	timer := metrics.NewDbTimer(metricsService, metrics.DbOpUpdate, "project_checkpoints")
	defer timer.ObserveDuration()

	result := r.db.WithContext(ctx).Model(&entity.Checkpoint{}).
		Where("id = ? AND project_id = ?", checkpoint.ID, checkpoint.ProjectID).
		Updates(map[string]interface{}{
			"label":       checkpoint.Label,
			"value":       checkpoint.Value,
			"section":     checkpoint.Section,
			"status":      checkpoint.Status,
			"target_date": checkpoint.TargetDate,
		})

	if result.Error != nil {
		metrics.RecordDbError(metricsService, metrics.DbOpUpdate)
		return fmt.Errorf("failed to update checkpoint: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrCheckpointNotFound
	}

	return nil
}

// Delete удаляет проект, ссылки и точки удаляются через CASCADE
func (r *projectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	timer := metrics.NewDbTimer(metricsService, metrics.DbOpDelete, projectsTable)
	defer timer.ObserveDuration()

	result := r.db.WithContext(ctx).Delete(&entity.Project{}, "id = ?", id)
	if result.Error != nil {
		metrics.RecordDbError(metricsService, metrics.DbOpDelete)
		return fmt.Errorf("failed to delete project: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrProjectNotFound
	}

	return nil
}
