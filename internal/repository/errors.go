package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

type sqlStateErr interface {
	SQLState() string
}

// IsDuplicateKey reports whether err is a unique-constraint violation.
// gorm translates it when TranslateError is on; the SQLSTATE and message
// checks cover connections opened without translation.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var stateErr sqlStateErr
	if errors.As(err, &stateErr) && stateErr.SQLState() == "23505" {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint")
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
