package repository

import (
	"context"
	"fmt"
	"time"

	"iat/pkg/metrics"
	"iat/tracker-service/internal/app/tracker/entity"

	"gorm.io/gorm"
)

const formsTable = "forms"

type formRepository struct {
	db *gorm.DB // GORM DB для работы с PostgreSQL
}

// NewFormRepository создает новый репозиторий отчетов
func NewFormRepository(db *gorm.DB) FormRepository {
	return &formRepository{db: db}
}

// Create сохраняет отчет
func (r *formRepository) Create(ctx context.Context, form *entity.Form) error {
	timer := metrics.NewDbTimer(metricsService, metrics.DbOpInsert, formsTable)
	defer timer.ObserveDuration()

	if err := r.db.WithContext(ctx).Create(form).Error; err != nil {
		metrics.RecordDbError(metricsService, metrics.DbOpInsert)
		return fmt.Errorf("failed to create form: %w", mapPgError(err, ErrFormNotFound))
	}
	return nil
}

// ExistsSince проверяет, отправлял ли пользователь отчет начиная с since
func (r *formRepository) ExistsSince(ctx context.Context, userID string, since time.Time) (bool, error) {
	timer := metrics.NewDbTimer(metricsService, metrics.DbOpSelect, formsTable)
	defer timer.ObserveDuration()

	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Form{}).
		Where("user_id = ? AND date >= ?", userID, since).
		Count(&count).Error
	if err != nil {
		metrics.RecordDbError(metricsService, metrics.DbOpSelect)
		return false, fmt.Errorf("failed to check recent forms: %w", err)
	}

	return count > 0, nil
}

// List возвращает все отчеты, новые первыми
func (r *formRepository) List(ctx context.Context) ([]entity.Form, error) {
	return r.find(r.db.WithContext(ctx))
}

// ListSince возвращает отчеты начиная с since
func (r *formRepository) ListSince(ctx context.Context, since time.Time) ([]entity.Form, error) {
	return r.find(r.db.WithContext(ctx).Where("date >= ?", since))
}

// ListByUser возвращает историю отчетов пользователя
func (r *formRepository) ListByUser(ctx context.Context, userID string) ([]entity.Form, error) {
	return r.find(r.db.WithContext(ctx).Where("user_id = ?", userID))
}

func (r *formRepository) find(query *gorm.DB) ([]entity.Form, error) {
	timer := metrics.NewDbTimer(metricsService, metrics.DbOpSelect, formsTable)
	defer timer.ObserveDuration()

	forms := []entity.Form{}
	if err := query.Order("date DESC").Find(&forms).Error; err != nil {
		metrics.RecordDbError(metricsService, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to get forms: %w", err)
	}

	return forms, nil
}
