package implementation

import (
	"context"

	"supportly-be/internal/entity"
	"supportly-be/internal/mapper"
	"supportly-be/internal/model"
	"supportly-be/internal/repository/contract"
	"supportly-be/internal/repository/scope"
	"supportly-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

const chunkInsertBatch = 100

type ChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChunkMapper
}

func NewChunkRepository(db *gorm.DB) contract.ChunkRepository {
	return &ChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewChunkMapper(),
	}
}

func (r *ChunkRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ChunkRepositoryImpl) CreateBulk(ctx context.Context, chunks []*entity.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	models := make([]*model.DocumentChunk, len(chunks))
	for i, c := range chunks {
		models[i] = r.mapper.ToModel(c)
	}

	if err := r.db.WithContext(ctx).CreateInBatches(models, chunkInsertBatch).Error; err != nil {
		return err
	}

	for i, m := range models {
		*chunks[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *ChunkRepositoryImpl) DeleteBySourceId(ctx context.Context, sourceId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("source_id = ?", sourceId).Delete(&model.DocumentChunk{}).Error
}

func (r *ChunkRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Chunk, error) {
	var models []*model.DocumentChunk
	query := r.applySpecifications(r.db.WithContext(ctx).Scopes(scope.OrderByChunkIndex), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *ChunkRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.DocumentChunk{}).Count(&count).Error
	return count, err
}

func (r *ChunkRepositoryImpl) SearchSimilar(ctx context.Context, tenantId, botId uuid.UUID, embedding []float32, limit int) ([]*entity.ScoredChunk, error) {
	if limit <= 0 {
		limit = 3
	}

	type result struct {
		model.DocumentChunk
		Distance float64
	}
	var results []result

	// Cosine distance (<=>): 0 = identical direction. Ties go to the newest row.
	err := r.db.WithContext(ctx).
		Table("document_chunks").
		Select("document_chunks.*, embedding <=> ? AS distance", pgvector.NewVector(embedding)).
		Where("tenant_id = ? AND bot_id = ?", tenantId, botId).
		Order("distance ASC").
		Order("created_at DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*entity.ScoredChunk, len(results))
	for i := range results {
		scored[i] = &entity.ScoredChunk{
			Chunk:    r.mapper.ToEntity(&results[i].DocumentChunk),
			Distance: results[i].Distance,
		}
	}
	return scored, nil
}
