package db

import (
	"context"
	"errors"
	"strings"

	pkgerrors "github.com/creditpool/creditpool-backend/pkg/errors"
	"gorm.io/gorm"
)

// IsUniqueViolation reports whether the provided error references a unique
// constraint violation. When constraintName is provided, postgres errors must
// name that constraint. sqlite only reports the columns, so any sqlite unique
// failure matches.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") {
		return true
	}
	if pkgerrors.PGCode(err) != "23505" && !strings.Contains(msg, "duplicate key value") {
		return false
	}
	if constraintName == "" {
		return true
	}
	return strings.Contains(msg, constraintName) || pgConstraint(err) == constraintName
}

// IsTimeout reports whether err came from an expired or cancelled context.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	// postgres reports statement_timeout / lock_timeout as query_canceled.
	return pkgerrors.PGCode(err) == "57014"
}

func pgConstraint(err error) string {
	return pkgerrors.Dump(err).PGConstraint
}

// Classify converts a persistence failure into a typed error. Typed errors pass
// through untouched so guards deep in a transaction keep their code.
func Classify(err error, msg string) error {
	switch {
	case err == nil:
		return nil
	case pkgerrors.As(err) != nil:
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, msg)
	case IsTimeout(err):
		return pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, msg)
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
	}
}
