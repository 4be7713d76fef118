package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"supportly-be/internal/entity"
	"supportly-be/internal/pkg/logger"
	"supportly-be/internal/repository/contract"
	"supportly-be/internal/repository/specification"
	"supportly-be/internal/repository/unitofwork"
	"supportly-be/pkg/content"
	"supportly-be/pkg/embedding"
	"supportly-be/pkg/queue"
	"supportly-be/pkg/rag"
	"supportly-be/pkg/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const DefaultMinContentLength = 10

type Config struct {
	ChunkWindow      int
	MinContentLength int
	EmbedThrottle    time.Duration
}

// Result summarises one run for logs and tests.
type Result struct {
	Chunks  int
	Saved   int
	Skipped int
}

// Coordinator runs one ingestion job end to end and owns the source's status.
type Coordinator struct {
	uowFactory unitofwork.RepositoryFactory
	fetcher    content.Fetcher
	embedder   embedding.Embedder
	cfg        Config
	logger     logger.ILogger
}

func NewCoordinator(
	uowFactory unitofwork.RepositoryFactory,
	fetcher content.Fetcher,
	embedder embedding.Embedder,
	cfg Config,
	log logger.ILogger,
) *Coordinator {
	if cfg.ChunkWindow <= 0 {
		cfg.ChunkWindow = utils.DefaultChunkWindow
	}
	if cfg.MinContentLength <= 0 {
		cfg.MinContentLength = DefaultMinContentLength
	}
	return &Coordinator{
		uowFactory: uowFactory,
		fetcher:    fetcher,
		embedder:   embedder,
		cfg:        cfg,
		logger:     log,
	}
}

// Handle adapts Run to queue.Handler.
func (c *Coordinator) Handle(ctx context.Context, d queue.Delivery) error {
	_, err := c.Run(ctx, d)
	return err
}

// Run executes one delivery on a single pinned connection. A failure that
// will be redelivered leaves the source in processing; any other failure
// marks it failed.
func (c *Coordinator) Run(ctx context.Context, d queue.Delivery) (Result, error) {
	job := d.Job
	ctx, span := otel.Tracer("supportly/ingest").Start(ctx, "ingest.run")
	defer span.End()
	span.SetAttributes(
		attribute.String("source.id", job.SourceId.String()),
		attribute.String("tenant.id", job.TenantId.String()),
		attribute.String("bot.id", job.BotId.String()),
		attribute.Int("attempt", d.Attempt),
	)

	fields := func(extra map[string]interface{}) map[string]interface{} {
		f := map[string]interface{}{
			"source_id": job.SourceId.String(),
			"tenant_id": job.TenantId.String(),
			"attempt":   d.Attempt,
		}
		for k, v := range extra {
			f[k] = v
		}
		return f
	}

	var result Result
	err := c.uowFactory.WithConnection(ctx, func(uow unitofwork.UnitOfWork) error {
		sources := uow.TrainingSourceRepository()

		// locked means the source already reached a terminal status; the
		// chunks are still replaced but the status is left alone.
		locked := false
		if err := sources.TransitionStatus(ctx, job.SourceId, entity.TrainingStatusProcessing); err != nil {
			if !errors.Is(err, contract.ErrStatusTransition) {
				return err
			}
			src, findErr := sources.FindOne(ctx, specification.ByID{ID: job.SourceId}, specification.ByTenant{TenantID: job.TenantId})
			if findErr != nil {
				return findErr
			}
			if src == nil {
				c.logger.Warn("INGEST", "Training source not found, dropping job", fields(nil))
				return errSourceGone
			}
			c.logger.Warn("INGEST", "Re-ingesting source in terminal status", fields(map[string]interface{}{"status": string(src.Status)}))
			locked = true
		}

		var runErr error
		result, runErr = c.ingest(ctx, uow, job)
		if runErr != nil {
			if !locked && !d.WillRetry(runErr) {
				c.markFailed(ctx, sources, job, fields)
			}
			return runErr
		}

		if !locked {
			if err := sources.TransitionStatus(ctx, job.SourceId, entity.TrainingStatusCompleted); err != nil {
				c.logger.Warn("INGEST", "Could not mark source completed", fields(map[string]interface{}{"error": err.Error()}))
			}
		}
		return nil
	})

	if errors.Is(err, errSourceGone) {
		return result, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(rag.KindOf(err)))
		c.logger.Error("INGEST", "Ingestion failed", fields(map[string]interface{}{
			"error":      err.Error(),
			"kind":       string(rag.KindOf(err)),
			"will_retry": d.WillRetry(err),
		}))
		return result, err
	}

	span.SetAttributes(attribute.Int("chunks.saved", result.Saved), attribute.Int("chunks.skipped", result.Skipped))
	c.logger.Info("INGEST", "Ingestion completed", fields(map[string]interface{}{
		"chunks":  result.Chunks,
		"saved":   result.Saved,
		"skipped": result.Skipped,
	}))
	return result, nil
}

var errSourceGone = errors.New("training source not found")

func (c *Coordinator) ingest(ctx context.Context, uow unitofwork.UnitOfWork, job queue.Job) (Result, error) {
	text := job.Text
	origin := ""
	kind := entity.SourceKindFile
	if job.IsScrape() {
		origin = job.URL
		kind = entity.SourceKindURL
		fetched, err := c.fetcher.Fetch(ctx, job.URL)
		if err != nil {
			return Result{}, err
		}
		text = fetched
	}

	text = content.Normalize(text)
	if n := utf8.RuneCountInString(text); n < c.cfg.MinContentLength {
		return Result{}, rag.ExtractionError("check content", fmt.Errorf("%d characters, need at least %d", n, c.cfg.MinContentLength))
	}

	pieces := utils.SplitText(text, c.cfg.ChunkWindow)
	result := Result{Chunks: len(pieces)}

	chunks := make([]*entity.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		if i > 0 && c.cfg.EmbedThrottle > 0 {
			if err := sleep(ctx, c.cfg.EmbedThrottle); err != nil {
				return result, err
			}
		}

		vector, err := c.embedder.Embed(ctx, piece, embedding.TaskRetrievalDocument)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			result.Skipped++
			c.logger.Warn("INGEST", "Skipping chunk after embedding failure", map[string]interface{}{
				"source_id": job.SourceId.String(),
				"ordinal":   i,
				"error":     err.Error(),
			})
			continue
		}

		chunks = append(chunks, &entity.Chunk{
			TenantId:  job.TenantId,
			BotId:     job.BotId,
			SourceId:  job.SourceId,
			Text:      piece,
			Embedding: vector,
			Ordinal:   i,
			Metadata: entity.ChunkMetadata{
				Origin:     origin,
				SourceKind: string(kind),
				Characters: utf8.RuneCountInString(piece),
			},
		})
	}

	// Losing every chunk is an outage, not partial loss; keep the old chunks.
	if len(chunks) == 0 {
		return result, rag.EmbeddingError("embed chunks", fmt.Errorf("all %d chunks failed", len(pieces)))
	}

	if err := replaceChunks(ctx, uow, job, chunks); err != nil {
		return result, err
	}
	result.Saved = len(chunks)
	return result, nil
}

// replaceChunks swaps the source's chunk set in one transaction so readers
// never see a mix of old and new chunks.
func replaceChunks(ctx context.Context, uow unitofwork.UnitOfWork, job queue.Job, chunks []*entity.Chunk) (err error) {
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = uow.Rollback()
		}
	}()

	if err = uow.ChunkRepository().DeleteBySourceId(ctx, job.SourceId); err != nil {
		return err
	}
	if err = uow.ChunkRepository().CreateBulk(ctx, chunks); err != nil {
		return err
	}
	return uow.Commit()
}

func (c *Coordinator) markFailed(ctx context.Context, sources contract.TrainingSourceRepository, job queue.Job, fields func(map[string]interface{}) map[string]interface{}) {
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := sources.TransitionStatus(fctx, job.SourceId, entity.TrainingStatusFailed); err != nil {
		c.logger.Error("INGEST", "Could not mark source failed", fields(map[string]interface{}{"error": err.Error()}))
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
