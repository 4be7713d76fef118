package factory

import (
	"fmt"

	"supportly-be/pkg/llm"
	"supportly-be/pkg/llm/gemini"
	"supportly-be/pkg/llm/ollama"
	"supportly-be/pkg/llm/openai"
)

type Config struct {
	Provider      string
	Model         string
	GeminiApiKey  string
	OpenAIApiKey  string
	OpenAIBaseURL string
	OllamaBaseURL string
}

func NewLLMProvider(cfg Config) (llm.LLMProvider, error) {
	switch cfg.Provider {
	case "", "gemini":
		if cfg.GeminiApiKey == "" {
			return nil, fmt.Errorf("GOOGLE_GEMINI_API_KEY is required for the gemini provider")
		}
		return gemini.NewGeminiProvider(cfg.GeminiApiKey, "", cfg.Model), nil
	case "ollama":
		baseURL := cfg.OllamaBaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		model := cfg.Model
		if model == "" {
			model = "llama3.2"
		}
		return ollama.NewOllamaProvider(baseURL, model), nil
	case "openai":
		if cfg.OpenAIApiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
		return openai.NewOpenAIProvider(cfg.OpenAIApiKey, cfg.OpenAIBaseURL, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
