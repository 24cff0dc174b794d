package sqlite

import (
	"context"
	"errors"

	"github.com/mattn/go-sqlite3"
	"github.com/sethvargo/go-retry"
)

// withRetry re-runs op with fibonacci backoff while SQLite reports the
// database file as busy or locked. Other errors abort immediately.
func (r *Repository) withRetry(ctx context.Context, op func(context.Context) error) error {
	backoff := retry.WithMaxRetries(uint64(r.busyRetries), retry.NewFibonacci(r.busyBackoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := op(ctx)
		if isBusy(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func isBusy(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.Code == sqlite3.ErrBusy || serr.Code == sqlite3.ErrLocked
	}
	return false
}

func isConstraint(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.Code == sqlite3.ErrConstraint
	}
	return false
}
