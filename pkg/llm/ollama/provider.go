package ollama

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"supportly-be/pkg/llm"

	"github.com/go-resty/resty/v2"
)

type OllamaProvider struct {
	BaseURL   string
	ModelName string
	client    *resty.Client
}

// Ensure OllamaProvider implements LLMProvider
var _ llm.LLMProvider = &OllamaProvider{}

func NewOllamaProvider(baseURL, modelName string) *OllamaProvider {
	return &OllamaProvider{
		BaseURL:   baseURL,
		ModelName: modelName,
		client:    resty.New().SetTimeout(120 * time.Second),
	}
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  *ollamaOptions  `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatChunk struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
	Error   string        `json:"error,omitempty"`
}

func (o *OllamaProvider) Name() string { return "ollama" }

// Stream reads Ollama's NDJSON chat stream, one JSON object per line.
func (o *OllamaProvider) Stream(ctx context.Context, history []llm.Message, onDelta llm.DeltaFunc, opts ...llm.Option) error {
	options := llm.ApplyOptions(opts...)

	messages := make([]ollamaMessage, len(history))
	for i, msg := range history {
		role := msg.Role
		if role == "model" {
			role = "assistant"
		}
		messages[i] = ollamaMessage{Role: role, Content: msg.Content}
	}

	model := o.ModelName
	if options.Model != "" {
		model = options.Model
	}

	payload := ollamaChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   true,
		Options:  &ollamaOptions{Temperature: options.Temperature, NumPredict: options.MaxTokens},
	}

	resp, err := o.client.R().
		SetContext(ctx).
		SetBody(payload).
		SetDoNotParseResponse(true).
		Post(o.BaseURL + "/api/chat")
	if err != nil {
		return fmt.Errorf("ollama request failed: %w", err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() >= 300 {
		b, _ := io.ReadAll(io.LimitReader(body, 4096))
		return fmt.Errorf("ollama error: status %d, body: %s", resp.StatusCode(), string(b))
	}

	produced := false
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var chunk ollamaChatChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			return fmt.Errorf("decode stream chunk: %w", err)
		}
		if chunk.Error != "" {
			return errors.New("ollama: " + chunk.Error)
		}
		if chunk.Message.Content != "" {
			produced = true
			if err := onDelta(chunk.Message.Content); err != nil {
				return err
			}
		}
		if chunk.Done {
			break
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
