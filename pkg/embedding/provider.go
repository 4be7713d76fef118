package embedding

import (
	"context"
	"fmt"

	"supportly-be/pkg/rag"
)

// Task types understood by providers that embed documents and queries differently.
const (
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
)

// EmbeddingProvider defines the interface for generating text embeddings
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string, taskType string) ([]float32, error)
	Name() string
}

// Embedder is the capability the pipeline depends on: every vector it
// returns has exactly Dimension() components.
type Embedder interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
	Dimension() int
}

type guardedEmbedder struct {
	provider  EmbeddingProvider
	dimension int
}

// NewEmbedder wraps provider with the dimension guard. A vector of any other
// length is an EmbeddingError and never reaches the store.
func NewEmbedder(provider EmbeddingProvider, dimension int) Embedder {
	return &guardedEmbedder{provider: provider, dimension: dimension}
}

func (e *guardedEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	values, err := e.provider.Generate(ctx, text, taskType)
	if err != nil {
		return nil, rag.EmbeddingError(e.provider.Name(), err)
	}
	if len(values) != e.dimension {
		return nil, rag.EmbeddingError(e.provider.Name(), fmt.Errorf("got %d dimensions, want %d", len(values), e.dimension))
	}
	return values, nil
}

func (e *guardedEmbedder) Dimension() int {
	return e.dimension
}
