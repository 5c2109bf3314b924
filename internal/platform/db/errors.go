package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jms-erp/jms/internal/shared"
)

const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
)

// Classify maps raw pgx failures onto shared error kinds. Already classified errors pass through.
func Classify(err error, op string) error {
	if err == nil {
		return nil
	}
	if shared.IsClassified(err) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
			return shared.Conflict("The record was modified concurrently. Please retry.", fmt.Errorf("%s: %w", op, err))
		case codeUniqueViolation:
			return shared.Conflict("A record with the same key already exists.", fmt.Errorf("%s: %w", op, err))
		}
	}
	if shared.IsTimeout(err) {
		return shared.Infrastructure("The store did not respond in time.", fmt.Errorf("%s: %w", op, err))
	}
	return shared.Infrastructure("", fmt.Errorf("%s: %w", op, err))
}

// IsUniqueViolation reports whether err is a unique constraint violation, optionally on constraint.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != codeUniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
