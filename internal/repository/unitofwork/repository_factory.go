package unitofwork

import "context"

type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork

	// WithConnection pins one pooled connection for the duration of fn and
	// releases it on every return path.
	WithConnection(ctx context.Context, fn func(uow UnitOfWork) error) error
}
