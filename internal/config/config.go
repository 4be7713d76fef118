package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Queue     QueueConfig
	Auth      AuthConfig
	Ai        AIConfig
	Rag       RagConfig
	Redis     RedisConfig
	Telemetry TelemetryConfig
}

type AppConfig struct {
	Port               string
	WorkerPort         string
	Environment        string
	LogFilePath        string
	RealtimeLogPath    string
	CorsAllowedOrigins string
}

func (c AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

type DatabaseConfig struct {
	Driver     string // "postgres" or "memory"
	Connection string
}

type QueueConfig struct {
	Driver      string // "nats" or "memory"
	NatsURL     string
	Stream      string
	Subject     string
	Durable     string
	MaxDeliver  int
	Concurrency int
	RetryDelay  time.Duration
}

type AuthConfig struct {
	JWTSecret   string
	WSJWTSecret string
	WSTokenTTL  time.Duration
}

type AIConfig struct {
	EmbeddingProvider  string // "gemini", "ollama" or "openai"
	EmbeddingModel     string
	EmbeddingDimension int
	LLMProvider        string // "gemini", "ollama" or "openai"
	LLMModel           string
	LLMTemperature     float64 // 0 keeps the provider default
	LLMMaxTokens       int     // 0 means no cap
	GoogleGemini       string
	OpenAIKey          string
	OpenAIBaseURL      string
	OllamaBaseURL      string
}

type RagConfig struct {
	ChunkWindow        int
	MinContentLength   int
	TopK               int
	ContextBudgetChars int
	EmbedThrottle      time.Duration
	FetchTimeout       time.Duration
	FallbackMessage    string
}

type RedisConfig struct {
	URL string
}

type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
	ServiceName  string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			WorkerPort:         getEnv("WORKER_PORT", "10000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			RealtimeLogPath:    getEnv("REALTIME_LOG_PATH", "logs/realtime.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("STORE_DRIVER", "postgres"),
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Queue: QueueConfig{
			Driver:      getEnv("QUEUE_DRIVER", "nats"),
			NatsURL:     getEnv("NATS_URL", "nats://localhost:4222"),
			Stream:      getEnv("QUEUE_STREAM", "INGESTION"),
			Subject:     getEnv("QUEUE_SUBJECT", "ingestion.jobs"),
			Durable:     getEnv("QUEUE_DURABLE", "ingestion-worker"),
			MaxDeliver:  getEnvAsInt("QUEUE_MAX_DELIVER", 3),
			Concurrency: getEnvAsInt("WORKER_CONCURRENCY", 5),
			RetryDelay:  getEnvAsDuration("QUEUE_RETRY_DELAY", 5*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret:   getEnv("JWT_SECRET", ""),
			WSJWTSecret: getEnv("WS_JWT_SECRET", ""),
			WSTokenTTL:  getEnvAsDuration("WS_TOKEN_TTL", 60*time.Second),
		},
		Ai: AIConfig{
			EmbeddingProvider:  getEnv("EMBEDDING_PROVIDER", "gemini"),
			EmbeddingModel:     getEnv("EMBEDDING_MODEL", ""),
			EmbeddingDimension: getEnvAsInt("EMBEDDING_DIMENSION", 768),
			LLMProvider:        getEnv("LLM_PROVIDER", "gemini"),
			LLMModel:           getEnv("LLM_MODEL", ""),
			LLMTemperature:     getEnvAsFloat("LLM_TEMPERATURE", 0),
			LLMMaxTokens:       getEnvAsInt("LLM_MAX_TOKENS", 0),
			GoogleGemini:       getEnv("GOOGLE_GEMINI_API_KEY", ""),
			OpenAIKey:          getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:      getEnv("OPENAI_BASE_URL", ""),
			OllamaBaseURL:      getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		},
		Rag: RagConfig{
			ChunkWindow:        getEnvAsInt("CHUNK_WINDOW", 1000),
			MinContentLength:   getEnvAsInt("MIN_CONTENT_LENGTH", 10),
			TopK:               getEnvAsInt("RETRIEVAL_TOP_K", 3),
			ContextBudgetChars: getEnvAsInt("CONTEXT_BUDGET_CHARS", 12000),
			EmbedThrottle:      getEnvAsDuration("EMBED_THROTTLE", 200*time.Millisecond),
			FetchTimeout:       getEnvAsDuration("FETCH_TIMEOUT", 10*time.Second),
			FallbackMessage:    getEnv("FALLBACK_MESSAGE", "I'm having trouble connecting."),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
		Telemetry: TelemetryConfig{
			Enabled:      getEnvAsBool("OTEL_ENABLED", false),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName:  getEnv("OTEL_SERVICE_NAME", "supportly-backend"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("200ms", "10s").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
