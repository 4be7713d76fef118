package bootstrap

import (
	"context"
	"fmt"
	"time"

	"supportly-be/internal/config"
	"supportly-be/internal/controller"
	"supportly-be/internal/pkg/logger"
	"supportly-be/internal/pkg/serverutils"
	"supportly-be/internal/repository/memory"
	"supportly-be/internal/repository/unitofwork"
	"supportly-be/internal/service"
	"supportly-be/internal/websocket"
	"supportly-be/pkg/content"
	"supportly-be/pkg/database"
	"supportly-be/pkg/embedding"
	"supportly-be/pkg/llm/factory"
	"supportly-be/pkg/queue"
	"supportly-be/pkg/rag/answer"
	"supportly-be/pkg/rag/ingest"
	"supportly-be/pkg/rag/session"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Role selects which half of the system a process hosts.
type Role int

const (
	RoleAPI Role = iota
	RoleWorker
)

type Container struct {
	Logger logger.ILogger

	// Controllers
	TrainingController     controller.ITrainingController
	WidgetAuthController   controller.IWidgetAuthController
	ConversationController controller.IConversationController
	HealthController       controller.IHealthController
	AuthMiddleware         fiber.Handler

	// Realtime
	WebSocketHub     *websocket.Hub
	WebSocketHandler *websocket.Handler

	// IngestionService is nil on an API process backed by an external queue.
	IngestionService service.IIngestionService

	db    *gorm.DB
	rdb   *redis.Client
	queue queue.Queue
}

func NewContainer(cfg *config.Config, role Role) (*Container, error) {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.IsProduction())
	c := &Container{Logger: sysLogger}

	uowFactory, err := c.repositoryFactory(cfg)
	if err != nil {
		return nil, err
	}

	c.rdb = newRedis(cfg.Redis, sysLogger)

	// 2. Job Queue
	q, err := newQueue(cfg.Queue, sysLogger)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.queue = q

	// 3. AI Providers
	baseEmbedder, err := embedding.New(embedding.Options{
		Provider:      cfg.Ai.EmbeddingProvider,
		Model:         cfg.Ai.EmbeddingModel,
		Dimension:     cfg.Ai.EmbeddingDimension,
		GeminiApiKey:  cfg.Ai.GoogleGemini,
		OpenAIApiKey:  cfg.Ai.OpenAIKey,
		OpenAIBaseURL: cfg.Ai.OpenAIBaseURL,
		OllamaBaseURL: cfg.Ai.OllamaBaseURL,
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("embedding provider: %w", err)
	}
	sysLogger.Info("BOOT", "Embedding provider ready", map[string]interface{}{
		"provider":  cfg.Ai.EmbeddingProvider,
		"dimension": cfg.Ai.EmbeddingDimension,
	})

	// 4. Ingestion, hosted by the worker, or by the API when the queue is in-process
	if role == RoleWorker || cfg.Queue.Driver == "memory" {
		coordinator := ingest.NewCoordinator(
			uowFactory,
			content.NewHTTPFetcher(cfg.Rag.FetchTimeout),
			baseEmbedder,
			ingest.Config{
				ChunkWindow:      cfg.Rag.ChunkWindow,
				MinContentLength: cfg.Rag.MinContentLength,
				EmbedThrottle:    cfg.Rag.EmbedThrottle,
			},
			sysLogger,
		)
		c.IngestionService = service.NewIngestionService(q, coordinator, sysLogger)
	}

	if role == RoleWorker {
		c.HealthController = controller.NewHealthController("worker")
		return c, nil
	}

	llmProvider, err := factory.NewLLMProvider(factory.Config{
		Provider:      cfg.Ai.LLMProvider,
		Model:         cfg.Ai.LLMModel,
		GeminiApiKey:  cfg.Ai.GoogleGemini,
		OpenAIApiKey:  cfg.Ai.OpenAIKey,
		OpenAIBaseURL: cfg.Ai.OpenAIBaseURL,
		OllamaBaseURL: cfg.Ai.OllamaBaseURL,
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("llm provider: %w", err)
	}
	sysLogger.Info("BOOT", "LLM provider ready", map[string]interface{}{"provider": llmProvider.Name()})

	// 5. Answering and sessions
	queryEmbedder := embedding.NewCachedEmbedder(baseEmbedder, c.rdb, cfg.Ai.EmbeddingProvider+":"+cfg.Ai.EmbeddingModel)
	engine := answer.NewEngine(uowFactory, queryEmbedder, llmProvider, answer.Config{
		TopK:        cfg.Rag.TopK,
		BudgetChars: cfg.Rag.ContextBudgetChars,
		Temperature: cfg.Ai.LLMTemperature,
		MaxTokens:   cfg.Ai.LLMMaxTokens,
	}, sysLogger)

	wsLogger := logger.NewIsolatedLogger(cfg.App.RealtimeLogPath)
	sessions := session.NewManager(uowFactory, engine, session.Config{Fallback: cfg.Rag.FallbackMessage}, wsLogger)
	c.WebSocketHub = websocket.NewHub(c.rdb, wsLogger)
	c.WebSocketHandler = websocket.NewHandler(c.WebSocketHub, sessions, cfg.Auth.WSJWTSecret, wsLogger)

	// 6. Services
	trainingService := service.NewTrainingService(uowFactory, q, sysLogger)
	conversationService := service.NewConversationService(uowFactory, c.WebSocketHub, sysLogger)

	c.AuthMiddleware = serverutils.JwtMiddleware(cfg.Auth.JWTSecret)
	c.TrainingController = controller.NewTrainingController(trainingService)
	c.WidgetAuthController = controller.NewWidgetAuthController(cfg.Auth.WSJWTSecret, cfg.Auth.WSTokenTTL)
	c.ConversationController = controller.NewConversationController(conversationService)
	c.HealthController = controller.NewHealthController("api")

	return c, nil
}

func (c *Container) repositoryFactory(cfg *config.Config) (unitofwork.RepositoryFactory, error) {
	if cfg.Database.Driver == "memory" {
		c.Logger.Warn("BOOT", "Using in-memory store; data is lost on exit", nil)
		return memory.NewStore(), nil
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, !cfg.App.IsProduction(), database.DefaultPool)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	c.db = db
	return unitofwork.NewRepositoryFactory(db), nil
}

func newRedis(cfg config.RedisConfig, log logger.ILogger) *redis.Client {
	if cfg.URL == "" {
		log.Info("BOOT", "REDIS_URL not set; query cache is local and conversation events stay on this node", nil)
		return nil
	}

	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		log.Warn("BOOT", "Failed to parse Redis URL, using it as an address", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: cfg.URL}
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("BOOT", "Failed to reach Redis", map[string]interface{}{"error": err.Error()})
	}
	return rdb
}

func newQueue(cfg config.QueueConfig, log logger.ILogger) (queue.Queue, error) {
	qc := queue.Config{
		Concurrency: cfg.Concurrency,
		MaxDeliver:  cfg.MaxDeliver,
		RetryDelay:  cfg.RetryDelay,
	}
	if cfg.Driver == "memory" {
		log.Info("BOOT", "Using in-process ingestion queue", nil)
		return queue.NewMemoryQueue(qc, log)
	}
	return queue.NewNatsQueue(queue.NatsConfig{
		URL:     cfg.NatsURL,
		Stream:  cfg.Stream,
		Subject: cfg.Subject,
		Durable: cfg.Durable,
		Config:  qc,
	}, log)
}

// Close releases the queue, Redis and database pools.
func (c *Container) Close() {
	if c.queue != nil {
		_ = c.queue.Close()
	}
	if c.rdb != nil {
		_ = c.rdb.Close()
	}
	if c.db != nil {
		if sqlDB, err := c.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	_ = c.Logger.Sync()
}
