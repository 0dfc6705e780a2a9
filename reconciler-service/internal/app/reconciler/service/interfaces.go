package service

import (
	"context"

	"iat/reconciler-service/internal/app/reconciler/entity"
)

// Reconciler интерфейс сверки, используется обработчиками Kafka и cron
type Reconciler interface {
	ReconcileUser(ctx context.Context, userID string) (entity.Report, error)
	ReconcileGroup(ctx context.Context, groupID string) (entity.Report, error)
	ReconcileAll(ctx context.Context) (entity.Report, error)
}

var _ Reconciler = (*ReconcileService)(nil)
