package mapper

import (
	"encoding/json"

	"supportly-be/internal/entity"
	"supportly-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type ChunkMapper struct{}

func NewChunkMapper() *ChunkMapper {
	return &ChunkMapper{}
}

func (m *ChunkMapper) ToEntity(c *model.DocumentChunk) *entity.Chunk {
	if c == nil {
		return nil
	}

	var meta entity.ChunkMetadata
	if len(c.Metadata) > 0 {
		// Metadata is informational; a malformed blob must not hide the chunk.
		_ = json.Unmarshal(c.Metadata, &meta)
	}

	return &entity.Chunk{
		Id:        c.Id,
		TenantId:  c.TenantId,
		BotId:     c.BotId,
		SourceId:  c.SourceId,
		Text:      c.ChunkText,
		Embedding: c.Embedding.Slice(),
		Ordinal:   c.ChunkIndex,
		Metadata:  meta,
		CreatedAt: c.CreatedAt,
	}
}

func (m *ChunkMapper) ToModel(c *entity.Chunk) *model.DocumentChunk {
	if c == nil {
		return nil
	}

	meta, err := json.Marshal(c.Metadata)
	if err != nil {
		meta = []byte("{}")
	}

	return &model.DocumentChunk{
		Id:         c.Id,
		TenantId:   c.TenantId,
		BotId:      c.BotId,
		SourceId:   c.SourceId,
		ChunkText:  c.Text,
		Embedding:  pgvector.NewVector(c.Embedding),
		ChunkIndex: c.Ordinal,
		Metadata:   datatypes.JSON(meta),
		CreatedAt:  c.CreatedAt,
	}
}

func (m *ChunkMapper) ToEntities(chunks []*model.DocumentChunk) []*entity.Chunk {
	entities := make([]*entity.Chunk, len(chunks))
	for i, c := range chunks {
		entities[i] = m.ToEntity(c)
	}
	return entities
}
