package implementation

import (
	"context"
	"testing"

	"supportly-be/internal/entity"
	"supportly-be/internal/model"
	"supportly-be/internal/repository/contract"
	"supportly-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&model.TrainingSource{}, &model.Conversation{}, &model.Message{}))
	return db
}

func TestTrainingSourceTransitionGuard(t *testing.T) {
	ctx := context.Background()
	repo := NewTrainingSourceRepository(newTestDB(t))

	url := "https://example.com/faq"
	src := &entity.TrainingSource{TenantId: uuid.New(), BotId: uuid.New(), Kind: entity.SourceKindURL, SourceUrl: &url}
	require.NoError(t, repo.Create(ctx, src))
	require.NotEqual(t, uuid.Nil, src.Id)
	assert.Equal(t, entity.TrainingStatusPending, src.Status)

	assert.ErrorIs(t, repo.TransitionStatus(ctx, src.Id, entity.TrainingStatusCompleted), contract.ErrStatusTransition)

	require.NoError(t, repo.TransitionStatus(ctx, src.Id, entity.TrainingStatusProcessing))
	require.NoError(t, repo.TransitionStatus(ctx, src.Id, entity.TrainingStatusProcessing))
	require.NoError(t, repo.TransitionStatus(ctx, src.Id, entity.TrainingStatusFailed))
	assert.ErrorIs(t, repo.TransitionStatus(ctx, src.Id, entity.TrainingStatusProcessing), contract.ErrStatusTransition)

	got, err := repo.FindOne(ctx, specification.ByID{ID: src.Id}, specification.ByTenant{TenantID: src.TenantId})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entity.TrainingStatusFailed, got.Status)
	assert.Equal(t, url, *got.SourceUrl)

	missing, err := repo.FindOne(ctx, specification.ByID{ID: src.Id}, specification.ByTenant{TenantID: uuid.New()})
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestConversationLifecycle(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	convRepo := NewConversationRepository(db)
	msgRepo := NewMessageRepository(db)

	conv := &entity.Conversation{TenantId: uuid.New(), BotId: uuid.New(), VisitorId: "visitor-1"}
	require.NoError(t, convRepo.Create(ctx, conv))
	assert.Equal(t, entity.ConversationStatusOpen, conv.Status)

	for _, m := range []*entity.Message{
		{ConversationId: conv.Id, SenderType: entity.SenderVisitor, Text: "How do refunds work?"},
		{ConversationId: conv.Id, SenderType: entity.SenderBot, Text: "Refunds take 5 days."},
	} {
		require.NoError(t, msgRepo.Create(ctx, m))
	}

	msgs, err := msgRepo.FindAll(ctx, specification.ByConversationID{ConversationID: conv.Id})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, entity.SenderVisitor, msgs[0].SenderType)

	require.NoError(t, convRepo.Close(ctx, conv.TenantId, conv.Id, conv.StartedAt))
	got, err := convRepo.FindOne(ctx, specification.ByID{ID: conv.Id})
	require.NoError(t, err)
	assert.Equal(t, entity.ConversationStatusClosed, got.Status)
	assert.NotNil(t, got.EndedAt)
}
