package answer

import (
	"context"
	"strings"

	"supportly-be/internal/pkg/logger"
	"supportly-be/internal/repository/unitofwork"
	"supportly-be/pkg/embedding"
	"supportly-be/pkg/llm"
	"supportly-be/pkg/rag"
	"supportly-be/pkg/rag/prompt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const DefaultTopK = 3

// EmitFunc forwards one delta to the visitor. An error means the delta was
// not delivered and the stream must stop.
type EmitFunc func(delta string) error

type Config struct {
	TopK        int
	BudgetChars int
	Temperature float64
	MaxTokens   int
}

// Engine answers one visitor question from the tenant's own chunks.
type Engine struct {
	uowFactory unitofwork.RepositoryFactory
	embedder   embedding.Embedder
	llm        llm.LLMProvider
	builder    *prompt.GroundedBuilder
	cfg        Config
	logger     logger.ILogger
}

func NewEngine(
	uowFactory unitofwork.RepositoryFactory,
	embedder embedding.Embedder,
	provider llm.LLMProvider,
	cfg Config,
	log logger.ILogger,
) *Engine {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	return &Engine{
		uowFactory: uowFactory,
		embedder:   embedder,
		llm:        provider,
		builder:    prompt.NewGroundedBuilder(cfg.BudgetChars),
		cfg:        cfg,
		logger:     log,
	}
}

// Answer streams the reply to emit as it is generated and returns the text
// of every delta that emit accepted. On error the returned text is whatever
// was delivered before the failure.
func (e *Engine) Answer(ctx context.Context, query string, tenantId, botId uuid.UUID, emit EmitFunc) (string, error) {
	ctx, span := otel.Tracer("supportly/answer").Start(ctx, "answer.stream")
	defer span.End()
	span.SetAttributes(
		attribute.String("tenant.id", tenantId.String()),
		attribute.String("bot.id", botId.String()),
	)

	vector, err := e.embedder.Embed(ctx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		span.SetStatus(codes.Error, "embed query")
		return "", err
	}

	hits, err := e.uowFactory.NewUnitOfWork(ctx).ChunkRepository().SearchSimilar(ctx, tenantId, botId, vector, e.cfg.TopK)
	if err != nil {
		span.SetStatus(codes.Error, "retrieve")
		return "", rag.RetrievalError("search similar", err)
	}

	texts := make([]string, 0, len(hits))
	for _, h := range hits {
		texts = append(texts, h.Chunk.Text)
	}
	p, used := e.builder.Build(query, texts)
	span.SetAttributes(attribute.Int("chunks.retrieved", len(hits)), attribute.Int("chunks.used", used))

	e.logger.Debug("ANSWER", "Context assembled", map[string]interface{}{
		"tenant_id": tenantId.String(),
		"bot_id":    botId.String(),
		"retrieved": len(hits),
		"used":      used,
	})

	var full strings.Builder
	var opts []llm.Option
	if e.cfg.Temperature > 0 {
		opts = append(opts, llm.WithTemperature(e.cfg.Temperature))
	}
	if e.cfg.MaxTokens > 0 {
		opts = append(opts, llm.WithMaxTokens(e.cfg.MaxTokens))
	}

	err = e.llm.Stream(ctx, llm.Prompt(p), func(delta string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := emit(delta); err != nil {
			return err
		}
		full.WriteString(delta)
		return nil
	}, opts...)
	if err != nil {
		span.SetStatus(codes.Error, "generate")
		return full.String(), rag.GenerationError(e.llm.Name(), err)
	}

	return full.String(), nil
}
