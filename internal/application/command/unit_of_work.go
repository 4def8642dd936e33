// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"time"

	"github.com/readbridge-edu/readbridge-progress/internal/domain/progression"
	"github.com/readbridge-edu/readbridge-progress/internal/domain/shared"
	"github.com/readbridge-edu/readbridge-progress/pkg/retry"
)

// runInUnitOfWork executes fn inside one unit of work: Begin, fn, Commit,
// with Rollback on any error. A transient write collision retries the
// whole fn body a bounded number of times; once the budget is exhausted
// the collision surfaces as a Conflict.
//
// fn must be free of external side effects - every effect inside this
// core is a transactional write, so re-running the body is safe.
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

// classify maps unexpected failures to a transaction abort while letting
// the taxonomy errors (NotFound, InvalidInput, Conflict) pass unchanged.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if shared.IsNotFound(err) || shared.IsInvalidInput(err) || shared.IsConflict(err) {
		return err
	}
	return shared.WrapError("progress", op, shared.ErrTransactionAborted, "multi-record update failed", err)
}

// clock abstracts time.Now for deterministic tests.
type clock func() time.Time

func (c clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c()
}
