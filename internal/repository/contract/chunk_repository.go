package contract

import (
	"context"

	"supportly-be/internal/entity"
	"supportly-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ChunkRepository interface {
	CreateBulk(ctx context.Context, chunks []*entity.Chunk) error
	DeleteBySourceId(ctx context.Context, sourceId uuid.UUID) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Chunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// SearchSimilar ranks one tenant's bot chunks by ascending cosine distance.
	// The tenant/bot filter and the ranking happen in the same query.
	SearchSimilar(ctx context.Context, tenantId, botId uuid.UUID, embedding []float32, limit int) ([]*entity.ScoredChunk, error)
}
