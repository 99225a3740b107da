// Copyright (c) 2026 Velora Commerce. All rights reserved.
// Author: eng@velora.shop

// Package dberr translates low-level database errors into application errors.
package dberr

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/velora/velora/internal/platform/apperr"
)

/*
Map converts a pgx-level error into a domain-appropriate *apperr.AppError.

# Parameters
  - err: The raw error returned by a repository query.
  - resource: Resource name used to build the 404 message when no rows matched.
  - conflictMsg: Client-facing message used when a unique constraint fired.

# Returns
  - error: An *apperr.AppError classifying the failure, or an internal
    error wrapping the original for anything unrecognized.
*/
func Map(err error, resource, conflictMsg string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(resource)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return apperr.Conflict(conflictMsg)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.ServiceUnavailable("The request took too long to process")
	}

	return apperr.Internal(err)
}

// IsUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
