package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChunkMetadata struct {
	Origin     string `json:"origin,omitempty"`
	SourceKind string `json:"source_kind,omitempty"`
	Characters int    `json:"characters"`
}

type Chunk struct {
	Id        uuid.UUID
	TenantId  uuid.UUID
	BotId     uuid.UUID
	SourceId  uuid.UUID
	Text      string
	Embedding []float32
	Ordinal   int
	Metadata  ChunkMetadata
	CreatedAt time.Time
}

// ScoredChunk is a retrieval hit; lower Distance means more similar.
type ScoredChunk struct {
	Chunk    *Chunk
	Distance float64
}
