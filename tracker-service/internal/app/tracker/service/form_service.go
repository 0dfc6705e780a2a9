package service

import (
	"context"
	"fmt"
	"time"

	"iat/pkg/logger"
	"iat/pkg/metrics"
	"iat/tracker-service/internal/app/tracker/entity"
	"iat/tracker-service/internal/app/tracker/repository"
	"iat/tracker-service/internal/app/tracker/util"

	"github.com/google/uuid"
)

// FormService обрабатывает ежедневные отчеты стажеров
type FormService struct {
	formRepo  repository.FormRepository
	cooldowns repository.CooldownStore
	cooldown  time.Duration
	now       func() time.Time
}

// NewFormService создает сервис отчетов. cooldowns может быть nil, тогда
// окно проверяется только по PostgreSQL.
func NewFormService(formRepo repository.FormRepository, cooldowns repository.CooldownStore, cooldown time.Duration) *FormService {
	return &FormService{
		formRepo:  formRepo,
		cooldowns: cooldowns,
		cooldown:  cooldown,
		now:       time.Now,
	}
}

// Submit сохраняет отчет вызывающего пользователя
// 1. Redis отметка с TTL отсекает повторы быстро
// 2. PostgreSQL проверка date >= now-cooldown остается источником истины
// 3. При ошибке записи отметка снимается
func (s *FormService) Submit(ctx context.Context, principal entity.Principal, req *entity.SubmitFormRequest) (*entity.Form, error) {
	form := &entity.Form{
		ID:         uuid.New(),
		UserID:     principal.UserID,
		Name:       util.SanitizeText(req.Name),
		Branch:     util.SanitizeText(req.Branch),
		Activities: util.SanitizeText(req.Activities),
		Date:       s.now().UTC(),
	}
	if form.Name == "" || form.Branch == "" || form.Activities == "" {
		return nil, fmt.Errorf("%w: name, branch and activities are required", ErrValidation)
	}

	acquired := s.acquireCooldown(ctx, principal.UserID)
	if !acquired {
		metrics.FormsSubmitted.WithLabelValues("cooldown").Inc()
		return nil, ErrFormCooldown
	}

	exists, err := s.formRepo.ExistsSince(ctx, principal.UserID, form.Date.Add(-s.cooldown))
	if err != nil {
		s.releaseCooldown(ctx, principal.UserID)
		return nil, fmt.Errorf("failed to check recent forms: %w", err)
	}
	if exists {
		// Отметку не снимаем: окно действительно занято
		metrics.FormsSubmitted.WithLabelValues("cooldown").Inc()
		return nil, ErrFormCooldown
	}

	if err := s.formRepo.Create(ctx, form); err != nil {
		s.releaseCooldown(ctx, principal.UserID)
		return nil, fmt.Errorf("failed to create form: %w", err)
	}

	metrics.FormsSubmitted.WithLabelValues("accepted").Inc()
	logger.Info().Str("form_id", form.ID.String()).Str("user_id", form.UserID).Msg("Form submitted")

	return form, nil
}

// acquireCooldown возвращает false только если Redis подтвердил занятое окно.
// Недоступный Redis не блокирует отправку.
func (s *FormService) acquireCooldown(ctx context.Context, userID string) bool {
	if s.cooldowns == nil {
		return true
	}
	ok, err := s.cooldowns.Acquire(ctx, userID, s.cooldown)
	if err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Msg("Cooldown store unavailable, falling back to database check")
		return true
	}
	return ok
}

func (s *FormService) releaseCooldown(ctx context.Context, userID string) {
	if s.cooldowns == nil {
		return
	}
	if err := s.cooldowns.Release(ctx, userID); err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to release form cooldown")
	}
}

// All возвращает все отчеты, новые первыми
func (s *FormService) All(ctx context.Context) ([]entity.Form, error) {
	forms, err := s.formRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list forms: %w", err)
	}
	return forms, nil
}

// Daily возвращает отчеты за последнее окно
func (s *FormService) Daily(ctx context.Context) ([]entity.Form, error) {
	forms, err := s.formRepo.ListSince(ctx, s.now().UTC().Add(-s.cooldown))
	if err != nil {
		return nil, fmt.Errorf("failed to list daily forms: %w", err)
	}
	return forms, nil
}

// History возвращает историю отчетов. Доступна только самому пользователю.
func (s *FormService) History(ctx context.Context, principal entity.Principal, userID string) ([]entity.Form, error) {
	if principal.UserID != userID {
		return nil, ErrForbidden
	}
	forms, err := s.formRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user forms: %w", err)
	}
	return forms, nil
}

// InternActivities публичная лента отчетов с отформатированными датой и временем
func (s *FormService) InternActivities(ctx context.Context) ([]entity.ActivityView, error) {
	forms, err := s.formRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list forms: %w", err)
	}

	views := make([]entity.ActivityView, 0, len(forms))
	for _, f := range forms {
		views = append(views, entity.NewActivityView(f))
	}
	return views, nil
}
