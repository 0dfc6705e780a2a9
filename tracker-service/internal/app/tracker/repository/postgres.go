package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Коды ошибок PostgreSQL, которые имеют смысл для service layer
const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

// mapPgError переводит ошибки ограничений PostgreSQL в ошибки репозитория.
// notFound возвращается при нарушении внешнего ключа (родительская запись отсутствует).
func mapPgError(err error, notFound error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation:
			return notFound
		case pgUniqueViolation:
			return ErrDuplicateKey
		}
	}
	return err
}
