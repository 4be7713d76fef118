package implementation

import (
	"context"
	"errors"

	"supportly-be/internal/entity"
	"supportly-be/internal/mapper"
	"supportly-be/internal/model"
	"supportly-be/internal/repository/contract"
	"supportly-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TrainingSourceRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.TrainingSourceMapper
}

func NewTrainingSourceRepository(db *gorm.DB) contract.TrainingSourceRepository {
	return &TrainingSourceRepositoryImpl{
		db:     db,
		mapper: mapper.NewTrainingSourceMapper(),
	}
}

func (r *TrainingSourceRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *TrainingSourceRepositoryImpl) Create(ctx context.Context, source *entity.TrainingSource) error {
	m := r.mapper.ToModel(source)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*source = *r.mapper.ToEntity(m)
	return nil
}

func (r *TrainingSourceRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.TrainingSource, error) {
	var m model.TrainingSource
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *TrainingSourceRepositoryImpl) TransitionStatus(ctx context.Context, id uuid.UUID, status entity.TrainingStatus) error {
	predecessors := status.Predecessors()
	if len(predecessors) == 0 {
		return contract.ErrStatusTransition
	}
	from := make([]string, len(predecessors))
	for i, p := range predecessors {
		from[i] = string(p)
	}

	// The guard lives in the WHERE clause so concurrent writers cannot regress a status.
	res := r.db.WithContext(ctx).
		Model(&model.TrainingSource{}).
		Where("id = ? AND status IN ?", id, from).
		Update("status", string(status))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return contract.ErrStatusTransition
	}
	return nil
}
