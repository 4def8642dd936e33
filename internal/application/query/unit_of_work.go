package query

import (
	"context"

	"github.com/readbridge-edu/readbridge-progress/internal/domain/progression"
	"github.com/readbridge-edu/readbridge-progress/internal/domain/shared"
	"github.com/readbridge-edu/readbridge-progress/pkg/retry"
)

// runInUnitOfWork mirrors the command-side helper for the two read paths
// that may create a default record on first access: Begin, fn, Commit,
// Rollback on error, bounded retry on transient write collisions.
func runInUnitOfWork(ctx context.Context, factory progression.UnitOfWorkFactory, fn func(ctx context.Context, uow progression.UnitOfWork) error) error {
	retrier := retry.TransactionRetrier(shared.IsRetryable)

	err := retrier.Do(ctx, func(ctx context.Context) error {
		uow, err := factory.Begin(ctx)
		if err != nil {
			return shared.WrapError("progress", "Begin", shared.ErrTransactionAborted, "could not begin transaction", err)
		}

		committed := false
		defer func() {
			if !committed {
				_ = uow.Rollback(ctx)
			}
		}()

		if err := fn(ctx, uow); err != nil {
			return err
		}
		if err := uow.Commit(ctx); err != nil {
			return err
		}
		committed = true
		return nil
	})
	if err != nil && shared.IsRetryable(err) {
		return shared.WrapError("progress", "Commit", shared.ErrConflict, "transient write conflict exceeded retry budget", err)
	}
	return err
}
