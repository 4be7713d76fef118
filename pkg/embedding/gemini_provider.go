package embedding

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
)

const (
	defaultGeminiModel   = "text-embedding-004"
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1"
)

type geminiEmbedRequestPart struct {
	Text string `json:"text"`
}

type geminiEmbedRequestContent struct {
	Parts []geminiEmbedRequestPart `json:"parts"`
}

type geminiEmbedRequest struct {
	Model    string                    `json:"model"`
	Content  geminiEmbedRequestContent `json:"content"`
	TaskType string                    `json:"task_type,omitempty"`
}

type geminiEmbedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

type GeminiProvider struct {
	ApiKey  string
	Model   string
	BaseURL string
	client  *resty.Client
}

func NewGeminiProvider(apiKey, model, baseURL string) EmbeddingProvider {
	if model == "" {
		model = defaultGeminiModel
	}
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	return &GeminiProvider{
		ApiKey:  apiKey,
		Model:   model,
		BaseURL: baseURL,
		client:  resty.New().SetHeader("Content-Type", "application/json"),
	}
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) Generate(ctx context.Context, text string, taskType string) ([]float32, error) {
	req := geminiEmbedRequest{
		Model:    "models/" + p.Model,
		Content:  geminiEmbedRequestContent{Parts: []geminiEmbedRequestPart{{Text: text}}},
		TaskType: taskType,
	}

	var out geminiEmbedResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("x-goog-api-key", p.ApiKey).
		SetBody(req).
		SetResult(&out).
		Post(fmt.Sprintf("%s/models/%s:embedContent", p.BaseURL, p.Model))
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("error from gemini response, code %d, body %s", resp.StatusCode(), resp.String())
	}
	return out.Embedding.Values, nil
}
