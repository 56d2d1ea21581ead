// Package dbretry retries Postgres operations that fail for reasons a
// retry can fix: serialization failures and deadlocks under concurrent
// writes to the same row, which the weight store's per-(user,category,
// token) updates are expected to hit under load.
package dbretry

import (
	"context"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

// retryableCodes are Postgres SQLSTATE codes a transaction retry can
// plausibly resolve.
var retryableCodes = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
}

// IsRetryableError reports whether err is a Postgres error whose SQLSTATE
// indicates the operation may succeed if retried.
func IsRetryableError(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return retryableCodes[pgErr.Field('C')]
	}

	return false
}

// NoResult is used with Operation[T] when the wrapped function has no
// meaningful return value besides error.
type NoResult = struct{}

// Operation runs fn up to maxAttempts times, retrying only on a
// retryable error and returning the first non-retryable error or the
// final attempt's result.
func Operation[T any](ctx context.Context, maxAttempts int, fn func(ctx context.Context) (T, error)) (T, error) {
	var (
		result T
		err    error
	)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		result, err = fn(ctx)
		if err == nil || !IsRetryableError(err) {
			return result, err
		}
	}

	return result, fmt.Errorf("operation failed after %d attempts: %w", maxAttempts, err)
}

// Transaction runs fn inside a bun transaction, retrying the whole
// transaction up to maxAttempts times on a retryable error.
func Transaction(ctx context.Context, db *bun.DB, maxAttempts int, fn func(ctx context.Context, tx bun.Tx) error) error {
	_, err := Operation(ctx, maxAttempts, func(ctx context.Context) (NoResult, error) {
		return NoResult{}, db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			return fn(ctx, tx)
		})
	})

	return err
}
