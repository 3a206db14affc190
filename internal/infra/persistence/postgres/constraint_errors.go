package postgres

import (
	"strings"

	"academy/internal/errors"

	"gorm.io/gorm"
)

// isUniqueConstraintViolation recognizes duplicate keys from GORM's translated errors,
// and falls back to PostgreSQL (23505) and SQLite driver messages.
func isUniqueConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	errMsg := strings.ToLower(err.Error())

	return strings.Contains(errMsg, "sqlstate 23505") ||
		strings.Contains(errMsg, "duplicate key") ||
		strings.Contains(errMsg, "unique constraint failed")
}

func isForeignKeyConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}

	errMsg := strings.ToLower(err.Error())

	return strings.Contains(errMsg, "sqlstate 23503") ||
		strings.Contains(errMsg, "foreign key constraint failed")
}
