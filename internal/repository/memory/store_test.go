package memory

import (
	"context"
	"testing"
	"time"

	"supportly-be/internal/entity"
	"supportly-be/internal/repository/contract"
	"supportly-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionStatusIsMonotonic(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().NewUnitOfWork(ctx).TrainingSourceRepository()

	src := &entity.TrainingSource{TenantId: uuid.New(), BotId: uuid.New(), Kind: entity.SourceKindURL}
	require.NoError(t, repo.Create(ctx, src))
	assert.Equal(t, entity.TrainingStatusPending, src.Status)

	require.NoError(t, repo.TransitionStatus(ctx, src.Id, entity.TrainingStatusProcessing))
	require.NoError(t, repo.TransitionStatus(ctx, src.Id, entity.TrainingStatusCompleted))

	err := repo.TransitionStatus(ctx, src.Id, entity.TrainingStatusProcessing)
	assert.ErrorIs(t, err, contract.ErrStatusTransition)

	got, err := repo.FindOne(ctx, specification.ByID{ID: src.Id})
	require.NoError(t, err)
	assert.Equal(t, entity.TrainingStatusCompleted, got.Status)

	assert.ErrorIs(t, repo.TransitionStatus(ctx, uuid.New(), entity.TrainingStatusProcessing), contract.ErrStatusTransition)
}

func TestTransactionStagesUntilCommit(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	sourceId := uuid.New()

	uow := store.NewUnitOfWork(ctx)
	require.NoError(t, uow.Begin(ctx))
	require.NoError(t, uow.ChunkRepository().CreateBulk(ctx, []*entity.Chunk{{SourceId: sourceId, Text: "a"}}))

	count, err := store.NewUnitOfWork(ctx).ChunkRepository().Count(ctx, specification.BySourceID{SourceID: sourceId})
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, uow.Rollback())
	count, _ = store.NewUnitOfWork(ctx).ChunkRepository().Count(ctx, specification.BySourceID{SourceID: sourceId})
	assert.Zero(t, count)

	require.NoError(t, uow.Begin(ctx))
	require.NoError(t, uow.ChunkRepository().DeleteBySourceId(ctx, sourceId))
	require.NoError(t, uow.ChunkRepository().CreateBulk(ctx, []*entity.Chunk{
		{SourceId: sourceId, Text: "a", Ordinal: 0},
		{SourceId: sourceId, Text: "b", Ordinal: 1},
	}))
	require.NoError(t, uow.Commit())

	chunks, err := store.NewUnitOfWork(ctx).ChunkRepository().FindAll(ctx, specification.BySourceID{SourceID: sourceId})
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "a", chunks[0].Text)
	assert.Equal(t, "b", chunks[1].Text)
}

func TestSearchSimilarIsScopedToTenantAndBot(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().NewUnitOfWork(ctx).ChunkRepository()
	tenantA, tenantB, bot := uuid.New(), uuid.New(), uuid.New()

	require.NoError(t, repo.CreateBulk(ctx, []*entity.Chunk{
		{TenantId: tenantA, BotId: bot, Text: "near", Embedding: []float32{1, 0}},
		{TenantId: tenantA, BotId: bot, Text: "far", Embedding: []float32{0, 1}},
		{TenantId: tenantA, BotId: uuid.New(), Text: "other bot", Embedding: []float32{1, 0}},
		{TenantId: tenantB, BotId: bot, Text: "other tenant", Embedding: []float32{1, 0}},
	}))

	hits, err := repo.SearchSimilar(ctx, tenantA, bot, []float32{1, 0.1}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "near", hits[0].Chunk.Text)
	assert.Equal(t, "far", hits[1].Chunk.Text)
	assert.Less(t, hits[0].Distance, hits[1].Distance)

	hits, err = repo.SearchSimilar(ctx, uuid.New(), bot, []float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestConversationCloseIsIdempotent(t *testing.T) {
	ctx := context.Background()
	uow := NewStore().NewUnitOfWork(ctx)
	tenant := uuid.New()

	conv := &entity.Conversation{TenantId: tenant, BotId: uuid.New(), VisitorId: "v1"}
	require.NoError(t, uow.ConversationRepository().Create(ctx, conv))
	require.NoError(t, uow.MessageRepository().Create(ctx, &entity.Message{ConversationId: conv.Id, SenderType: entity.SenderVisitor, Text: "hi"}))
	require.NoError(t, uow.MessageRepository().Create(ctx, &entity.Message{ConversationId: conv.Id, SenderType: entity.SenderBot, Text: "hello"}))

	ended := time.Now()
	require.NoError(t, uow.ConversationRepository().Close(ctx, uuid.New(), conv.Id, ended))
	got, _ := uow.ConversationRepository().FindOne(ctx, specification.ByID{ID: conv.Id})
	assert.Equal(t, entity.ConversationStatusOpen, got.Status)

	require.NoError(t, uow.ConversationRepository().Close(ctx, tenant, conv.Id, ended))
	require.NoError(t, uow.ConversationRepository().Close(ctx, tenant, conv.Id, ended.Add(time.Minute)))
	got, _ = uow.ConversationRepository().FindOne(ctx, specification.ByID{ID: conv.Id})
	assert.Equal(t, entity.ConversationStatusClosed, got.Status)
	assert.WithinDuration(t, ended, *got.EndedAt, time.Millisecond)

	msgs, err := uow.MessageRepository().FindAll(ctx, specification.ByConversationID{ConversationID: conv.Id})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, entity.SenderVisitor, msgs[0].SenderType)
	assert.Equal(t, entity.SenderBot, msgs[1].SenderType)
}
