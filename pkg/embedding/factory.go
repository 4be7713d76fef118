package embedding

import "fmt"

type Options struct {
	Provider      string
	Model         string
	Dimension     int
	GeminiApiKey  string
	OpenAIApiKey  string
	OpenAIBaseURL string
	OllamaBaseURL string
}

// New builds the configured provider behind the dimension guard.
func New(opts Options) (Embedder, error) {
	if opts.Dimension <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", opts.Dimension)
	}

	var provider EmbeddingProvider
	switch opts.Provider {
	case "", "gemini":
		if opts.GeminiApiKey == "" {
			return nil, fmt.Errorf("GOOGLE_GEMINI_API_KEY is required for gemini embeddings")
		}
		provider = NewGeminiProvider(opts.GeminiApiKey, opts.Model, "")
	case "ollama":
		provider = NewOllamaProvider(opts.OllamaBaseURL, opts.Model)
	case "openai":
		if opts.OpenAIApiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for openai embeddings")
		}
		provider = NewOpenAIProvider(opts.OpenAIApiKey, opts.OpenAIBaseURL, opts.Model, opts.Dimension)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", opts.Provider)
	}

	return NewEmbedder(provider, opts.Dimension), nil
}
