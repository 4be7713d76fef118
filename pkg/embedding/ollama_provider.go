package embedding

import (
	"context"
	"fmt"
	"math"

	"github.com/go-resty/resty/v2"
)

// OllamaProvider implements EmbeddingProvider for local Ollama models (e.g., nomic-embed-text)
type OllamaProvider struct {
	BaseURL string
	Model   string
	client  *resty.Client
}

func NewOllamaProvider(baseURL string, model string) EmbeddingProvider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "nomic-embed-text"
	}
	return &OllamaProvider{
		BaseURL: baseURL,
		Model:   model,
		client:  resty.New(),
	}
}

type ollamaEmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

func (p *OllamaProvider) Name() string { return "ollama" }

// Generate ignores taskType; Ollama models have a single embedding mode.
func (p *OllamaProvider) Generate(ctx context.Context, text string, taskType string) ([]float32, error) {
	var out ollamaEmbeddingResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(ollamaEmbeddingRequest{Model: p.Model, Prompt: text}).
		SetResult(&out).
		Post(p.BaseURL + "/api/embeddings")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("ollama embedding error: %s", resp.String())
	}

	values := make([]float32, len(out.Embedding))
	for i, v := range out.Embedding {
		values[i] = float32(v)
	}
	return normalizeVector(values), nil
}

// normalizeVector scales vec to unit length so cosine distance in pgvector
// behaves the same across providers.
func normalizeVector(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)

	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}
