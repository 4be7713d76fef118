package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EmbeddingDimension is fixed per deployment; changing the embedding model
// means a new column type and a full re-ingestion.
const EmbeddingDimension = 768

type DocumentChunk struct {
	Id         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantId   uuid.UUID       `gorm:"type:uuid;not null;index:idx_chunks_tenant_bot"`
	BotId      uuid.UUID       `gorm:"type:uuid;not null;index:idx_chunks_tenant_bot"`
	SourceId   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ChunkText  string          `gorm:"type:text;not null"`
	Embedding  pgvector.Vector `gorm:"type:vector(768)"`
	ChunkIndex int             `gorm:"default:0"`
	Metadata   datatypes.JSON  `gorm:"type:jsonb"`
	CreatedAt  time.Time       `gorm:"autoCreateTime"`
}

func (DocumentChunk) TableName() string {
	return "document_chunks"
}

func (m *DocumentChunk) BeforeCreate(tx *gorm.DB) error {
	if m.Id == uuid.Nil {
		m.Id = uuid.New()
	}
	return nil
}
