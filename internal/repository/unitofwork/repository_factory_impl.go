package unitofwork

import (
	"context"

	"gorm.io/gorm"
)

type RepositoryFactoryImpl struct {
	db *gorm.DB
}

func NewRepositoryFactory(db *gorm.DB) RepositoryFactory {
	return &RepositoryFactoryImpl{
		db: db,
	}
}

func (f *RepositoryFactoryImpl) NewUnitOfWork(ctx context.Context) UnitOfWork {
	return NewUnitOfWork(f.db)
}

func (f *RepositoryFactoryImpl) WithConnection(ctx context.Context, fn func(uow UnitOfWork) error) error {
	return f.db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		return fn(NewUnitOfWork(conn))
	})
}
