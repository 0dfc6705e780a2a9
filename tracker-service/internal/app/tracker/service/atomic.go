package service

import (
	"context"
	"errors"
	"fmt"

	"iat/pkg/logger"
	"iat/tracker-service/internal/app/tracker/repository"
)

// maxAttempts число попыток read-validate-write при конфликте версий
const maxAttempts = 3

// atomicRunner выполняет fn в транзакции и повторяет ее целиком при ErrVersionConflict.
// fn должна заново читать документы на каждой попытке, чтобы проверки видели свежее состояние.
// После ErrNotRolledBack повтор запрещен: часть записей уже в базе, и проверки дали бы ложный отказ.
type atomicRunner struct {
	tx repository.Transactor
}

func (r atomicRunner) run(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := r.tx.WithTransaction(ctx, fn)
		if errors.Is(err, repository.ErrNotRolledBack) {
			logger.Warn().
				Err(err).
				Str("operation", operation).
				Int("attempt", attempt).
				Msg("Sequential write conflicted, not retrying")
			return fmt.Errorf("%s: %w", operation, ErrConcurrentUpdate)
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return err
		}

		logger.Debug().
			Str("operation", operation).
			Int("attempt", attempt).
			Msg("Version conflict, retrying")
	}

	logger.Warn().
		Str("operation", operation).
		Int("attempts", maxAttempts).
		Msg("Giving up after repeated version conflicts")

	return fmt.Errorf("%s: %w", operation, ErrConcurrentUpdate)
}
