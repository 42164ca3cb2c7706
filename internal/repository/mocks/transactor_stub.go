package mocks

import (
	"context"

	"thing-journal-server/internal/repository"
)

// TransactorStub satisfies repository.Transactor without a database.
// WithTransaction runs the callback directly, so services under test hit
// their repository mocks with a nil query handle.
type TransactorStub struct{}

var _ repository.Transactor = (*TransactorStub)(nil)

func (s *TransactorStub) Pool() repository.DBTX {
	return nil
}

func (s *TransactorStub) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx repository.DBTX) error) error {
	return fn(ctx, nil)
}
