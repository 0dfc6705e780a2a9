package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"iat/pkg/logger"
	"iat/pkg/metrics"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	codeIllegalOperation                   = 20
	codeOperationNotSupportedInTransaction = 263

	msgReplicaSetRequired = "transaction numbers are only allowed on a replica set member or mongos"

	labelTransientTransaction     = "TransientTransactionError"
	labelUnknownTransactionCommit = "UnknownTransactionCommitResult"
)

type mongoTransactor struct {
	client *mongo.Client
	seq    sequentialTransactor
	// unsupported выставляется, когда сервер явно отказал в транзакциях (standalone mongod).
	// Топология не меняется без перезапуска, поэтому флаг не сбрасывается.
	unsupported atomic.Bool
}

// NewMongoTransactor создает Transactor поверх multi-document транзакций MongoDB.
// Без replica set операции выполняются последовательно, расхождения чинит reconciler.
func NewMongoTransactor(client *mongo.Client) Transactor {
	return &mongoTransactor{client: client}
}

func (t *mongoTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if t.unsupported.Load() {
		return t.seq.WithTransaction(ctx, fn)
	}

	session, err := t.client.StartSession()
	if err != nil {
		if IsTransactionNotSupported(err) {
			return t.fallback(ctx, fn, err)
		}
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsTransactionNotSupported(err) {
		return t.fallback(ctx, fn, err)
	}

	return err
}

func (t *mongoTransactor) fallback(ctx context.Context, fn func(ctx context.Context) error, cause error) error {
	if !t.unsupported.Swap(true) {
		logger.Warn().
			Err(cause).
			Msg("MongoDB transactions are not supported, falling back to sequential writes")
	}
	return t.seq.WithTransaction(ctx, fn)
}

// sequentialTransactor выполняет fn без транзакции
type sequentialTransactor struct{}

// NewSequentialTransactor создает Transactor без транзакций.
// Записи, сделанные fn до ошибки, остаются в базе, поэтому конфликт версий
// возвращается как ErrNotRolledBack и повторять fn нельзя.
func NewSequentialTransactor() Transactor {
	return sequentialTransactor{}
}

func (sequentialTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	metrics.DbTransactionFallbacks.WithLabelValues(metricsService).Inc()

	err := fn(ctx)
	if errors.Is(err, ErrVersionConflict) {
		return fmt.Errorf("%w: %v", ErrNotRolledBack, err)
	}
	return err
}

// IsTransactionNotSupported распознает отказ сервера в транзакциях.
// Ошибки с метками повторяемых транзакций сюда не относятся, их повторяет драйвер.
func IsTransactionNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) {
		if serverErr.HasErrorLabel(labelTransientTransaction) || serverErr.HasErrorLabel(labelUnknownTransactionCommit) {
			return false
		}
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		switch cmdErr.Code {
		case codeIllegalOperation, codeOperationNotSupportedInTransaction:
			return true
		}
	}

	return strings.Contains(strings.ToLower(err.Error()), msgReplicaSetRequired)
}
