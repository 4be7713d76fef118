package gemini

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"supportly-be/pkg/llm"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultModel   = "gemini-2.0-flash"
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
)

type GeminiProvider struct {
	ApiKey    string
	BaseURL   string
	ModelName string
	client    *resty.Client
}

var _ llm.LLMProvider = &GeminiProvider{}

func NewGeminiProvider(apiKey, baseURL, modelName string) *GeminiProvider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if modelName == "" {
		modelName = DefaultModel
	}
	return &GeminiProvider{
		ApiKey:    apiKey,
		BaseURL:   baseURL,
		ModelName: modelName,
		client:    resty.New(),
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type generateRequest struct {
	Contents          []content        `json:"contents"`
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type generateChunk struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (g *GeminiProvider) Name() string { return "gemini" }

// Stream calls streamGenerateContent with alt=sse and forwards each text part.
func (g *GeminiProvider) Stream(ctx context.Context, history []llm.Message, onDelta llm.DeltaFunc, opts ...llm.Option) error {
	options := llm.ApplyOptions(opts...)
	model := g.ModelName
	if options.Model != "" {
		model = options.Model
	}

	req := generateRequest{
		GenerationConfig: generationConfig{Temperature: options.Temperature, MaxOutputTokens: options.MaxTokens},
	}
	for _, msg := range history {
		switch msg.Role {
		case "system":
			req.SystemInstruction = &content{Parts: []part{{Text: msg.Content}}}
		case "assistant", "model":
			req.Contents = append(req.Contents, content{Role: "model", Parts: []part{{Text: msg.Content}}})
		default:
			req.Contents = append(req.Contents, content{Role: "user", Parts: []part{{Text: msg.Content}}})
		}
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("x-goog-api-key", g.ApiKey).
		SetHeader("Content-Type", "application/json").
		SetQueryParam("alt", "sse").
		SetBody(req).
		SetDoNotParseResponse(true).
		Post(fmt.Sprintf("%s/models/%s:streamGenerateContent", g.BaseURL, model))
	if err != nil {
		return fmt.Errorf("gemini request failed: %w", err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() >= 300 {
		b, _ := io.ReadAll(io.LimitReader(body, 4096))
		return fmt.Errorf("gemini error: status %d, body: %s", resp.StatusCode(), string(b))
	}

	produced := false
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if !bytes.HasPrefix(line, []byte("data:")) {
			continue
		}
		data := bytes.TrimSpace(line[len("data:"):])
		if len(data) == 0 {
			continue
		}

		var chunk generateChunk
		if err := json.Unmarshal(data, &chunk); err != nil {
			return fmt.Errorf("decode stream chunk: %w", err)
		}
		if chunk.Error != nil {
			return fmt.Errorf("gemini: %s", chunk.Error.Message)
		}
		for _, c := range chunk.Candidates {
			var sb strings.Builder
			for _, p := range c.Content.Parts {
				sb.WriteString(p.Text)
			}
			if sb.Len() == 0 {
				continue
			}
			produced = true
			if err := onDelta(sb.String()); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	if !produced {
		return llm.ErrEmptyStream
	}
	return nil
}
