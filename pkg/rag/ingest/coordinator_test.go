package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"supportly-be/internal/entity"
	"supportly-be/internal/pkg/logger"
	"supportly-be/internal/repository/memory"
	"supportly-be/internal/repository/specification"
	"supportly-be/pkg/queue"
	"supportly-be/pkg/rag"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	text string
	err  error
}

func (f fakeFetcher) Fetch(ctx context.Context, url string) (string, error) {
	return f.text, f.err
}

// flakyEmbedder fails for any text containing one of the poison markers.
type flakyEmbedder struct {
	poison []string
	calls  int
}

func (e *flakyEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	e.calls++
	for _, p := range e.poison {
		if strings.Contains(text, p) {
			return nil, rag.EmbeddingError("stub", errors.New("rate limited"))
		}
	}
	return []float32{float32(len(text)), 1}, nil
}

func (e *flakyEmbedder) Dimension() int { return 2 }

type env struct {
	store *memory.Store
	src   *entity.TrainingSource
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memory.NewStore()
	src := &entity.TrainingSource{TenantId: uuid.New(), BotId: uuid.New(), Kind: entity.SourceKindFile}
	require.NoError(t, store.NewUnitOfWork(context.Background()).TrainingSourceRepository().Create(context.Background(), src))
	return &env{store: store, src: src}
}

func (e *env) delivery(text string, attempt int) queue.Delivery {
	return queue.Delivery{
		Job:         queue.Job{SourceId: e.src.Id, TenantId: e.src.TenantId, BotId: e.src.BotId, Text: text},
		Attempt:     attempt,
		MaxAttempts: 3,
	}
}

func (e *env) status(t *testing.T) entity.TrainingStatus {
	t.Helper()
	src, err := e.store.NewUnitOfWork(context.Background()).TrainingSourceRepository().
		FindOne(context.Background(), specification.ByID{ID: e.src.Id})
	require.NoError(t, err)
	return src.Status
}

func (e *env) chunks(t *testing.T) []*entity.Chunk {
	t.Helper()
	chunks, err := e.store.NewUnitOfWork(context.Background()).ChunkRepository().
		FindAll(context.Background(), specification.BySourceID{SourceID: e.src.Id})
	require.NoError(t, err)
	return chunks
}

func (e *env) coordinator(fetcher fakeFetcher, embedder *flakyEmbedder) *Coordinator {
	return NewCoordinator(e.store, fetcher, embedder, Config{}, logger.NewNopLogger())
}

func TestRunIsIdempotent(t *testing.T) {
	e := newEnv(t)
	text := strings.Repeat("a", 1000) + strings.Repeat("b", 1000) + strings.Repeat("c", 500)
	c := e.coordinator(fakeFetcher{}, &flakyEmbedder{})

	res, err := c.Run(context.Background(), e.delivery(text, 1))
	require.NoError(t, err)
	assert.Equal(t, Result{Chunks: 3, Saved: 3}, res)
	assert.Equal(t, entity.TrainingStatusCompleted, e.status(t))

	first := e.chunks(t)
	require.Len(t, first, 3)
	assert.Len(t, first[0].Text, 1000)
	assert.Len(t, first[1].Text, 1000)
	assert.Len(t, first[2].Text, 500)

	_, err = c.Run(context.Background(), e.delivery(text, 1))
	require.NoError(t, err)

	second := e.chunks(t)
	require.Len(t, second, 3)
	for i := range first {
		assert.Equal(t, first[i].Text, second[i].Text)
		assert.Equal(t, i, second[i].Ordinal)
		assert.NotEqual(t, first[i].Id, second[i].Id)
	}
	assert.Equal(t, entity.TrainingStatusCompleted, e.status(t))
}

func TestRunToleratesPartialEmbeddingFailure(t *testing.T) {
	e := newEnv(t)
	text := strings.Repeat("a", 1000) + strings.Repeat("x", 1000) + strings.Repeat("c", 10)
	c := e.coordinator(fakeFetcher{}, &flakyEmbedder{poison: []string{"x"}})

	res, err := c.Run(context.Background(), e.delivery(text, 1))
	require.NoError(t, err)
	assert.Equal(t, Result{Chunks: 3, Saved: 2, Skipped: 1}, res)
	assert.Equal(t, entity.TrainingStatusCompleted, e.status(t))

	chunks := e.chunks(t)
	require.Len(t, chunks, 2)
	assert.Equal(t, 0, chunks[0].Ordinal)
	assert.Equal(t, 2, chunks[1].Ordinal)
	assert.Equal(t, strings.Repeat("c", 10), chunks[1].Text)
}

func TestRunKeepsOldChunksWhenEveryEmbeddingFails(t *testing.T) {
	e := newEnv(t)
	c := e.coordinator(fakeFetcher{}, &flakyEmbedder{})
	_, err := c.Run(context.Background(), e.delivery("the original help text", 1))
	require.NoError(t, err)

	broken := e.coordinator(fakeFetcher{}, &flakyEmbedder{poison: []string{"new"}})
	_, err = broken.Run(context.Background(), e.delivery("brand new help text", 1))
	assert.ErrorIs(t, err, rag.ErrEmbedding)

	chunks := e.chunks(t)
	require.Len(t, chunks, 1)
	assert.Equal(t, "the original help text", chunks[0].Text)
}

func TestRunRejectsShortContent(t *testing.T) {
	e := newEnv(t)
	emb := &flakyEmbedder{}
	c := e.coordinator(fakeFetcher{}, emb)

	_, err := c.Run(context.Background(), e.delivery("  tiny   ", 1))
	assert.ErrorIs(t, err, rag.ErrExtraction)
	assert.False(t, rag.IsRetryable(err))
	assert.Equal(t, entity.TrainingStatusFailed, e.status(t))
	assert.Zero(t, emb.calls)
	assert.Empty(t, e.chunks(t))
}

func TestRunAcquisitionFailureRespectsRetries(t *testing.T) {
	e := newEnv(t)
	fetchErr := rag.AcquisitionError("fetch", errors.New("HTTP 503"))
	c := e.coordinator(fakeFetcher{err: fetchErr}, &flakyEmbedder{})

	d := e.delivery("", 1)
	d.Job.URL = "https://example.com/help"

	_, err := c.Run(context.Background(), d)
	assert.ErrorIs(t, err, rag.ErrAcquisition)
	assert.Equal(t, entity.TrainingStatusProcessing, e.status(t))

	d.Attempt = 3
	_, err = c.Run(context.Background(), d)
	assert.ErrorIs(t, err, rag.ErrAcquisition)
	assert.Equal(t, entity.TrainingStatusFailed, e.status(t))
}

func TestRunScrapesURLAndRecordsOrigin(t *testing.T) {
	e := newEnv(t)
	c := e.coordinator(fakeFetcher{text: "Our   store opens at 9am every day."}, &flakyEmbedder{})

	d := e.delivery("", 1)
	d.Job.URL = "https://example.com/hours"

	res, err := c.Run(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Saved)

	chunks := e.chunks(t)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Our store opens at 9am every day.", chunks[0].Text)
	assert.Equal(t, "https://example.com/hours", chunks[0].Metadata.Origin)
	assert.Equal(t, string(entity.SourceKindURL), chunks[0].Metadata.SourceKind)
	assert.Equal(t, e.src.TenantId, chunks[0].TenantId)
}

func TestStatusNeverRegressesOnRedelivery(t *testing.T) {
	e := newEnv(t)
	c := e.coordinator(fakeFetcher{}, &flakyEmbedder{})

	_, err := c.Run(context.Background(), e.delivery("  tiny ", 1))
	require.Error(t, err)
	require.Equal(t, entity.TrainingStatusFailed, e.status(t))

	_, err = c.Run(context.Background(), e.delivery("now there is plenty of content here", 1))
	require.NoError(t, err)
	assert.Equal(t, entity.TrainingStatusFailed, e.status(t))
	assert.Len(t, e.chunks(t), 1)
}

func TestRunDropsJobForUnknownSource(t *testing.T) {
	e := newEnv(t)
	c := e.coordinator(fakeFetcher{}, &flakyEmbedder{})

	d := e.delivery("plenty of content for a chunk", 1)
	d.Job.SourceId = uuid.New()

	_, err := c.Run(context.Background(), d)
	assert.NoError(t, err)
}
