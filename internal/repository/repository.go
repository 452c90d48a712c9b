// Package repository implements all database queries for the event
// platform. It uses pgx directly (no ORM). Every capacity or
// uniqueness check that spans read-decide-write runs inside one
// transaction holding a row lock, so concurrent requests serialize at
// the store instead of racing in application code.
package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrCodeConflict is returned when a generated team join code collides
// with an existing one. The caller retries with a fresh candidate.
var ErrCodeConflict = errors.New("team code already in use")

// uniqueViolation reports whether err is a PostgreSQL unique-constraint
// violation, optionally on a specific constraint.
func uniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
