package session

import (
	"context"
	"errors"
	"strings"
	"testing"

	"supportly-be/internal/entity"
	"supportly-be/internal/pkg/logger"
	"supportly-be/internal/repository/memory"
	"supportly-be/internal/repository/specification"
	"supportly-be/pkg/llm"
	"supportly-be/pkg/rag"
	"supportly-be/pkg/rag/answer"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticEmbedder struct{ err error }

func (e staticEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return []float32{1, 0}, e.err
}

func (e staticEmbedder) Dimension() int { return 2 }

type scriptedLLM struct{ deltas []string }

func (s scriptedLLM) Name() string { return "scripted" }

func (s scriptedLLM) Stream(ctx context.Context, history []llm.Message, onDelta llm.DeltaFunc, options ...llm.Option) error {
	for _, d := range s.deltas {
		if err := onDelta(d); err != nil {
			return err
		}
	}
	return nil
}

type harness struct {
	store   *memory.Store
	manager *Manager
}

func newHarness(emb staticEmbedder, deltas ...string) *harness {
	store := memory.NewStore()
	engine := answer.NewEngine(store, emb, scriptedLLM{deltas: deltas}, answer.Config{}, logger.NewNopLogger())
	return &harness{
		store:   store,
		manager: NewManager(store, engine, Config{}, logger.NewNopLogger()),
	}
}

func (h *harness) transcript(t *testing.T, conversationId uuid.UUID) []*entity.Message {
	t.Helper()
	msgs, err := h.store.NewUnitOfWork(context.Background()).MessageRepository().
		FindAll(context.Background(), specification.ByConversationID{ConversationID: conversationId})
	require.NoError(t, err)
	return msgs
}

func TestTurnPersistsVisitorThenFullBotMessage(t *testing.T) {
	h := newHarness(staticEmbedder{}, "Hello", ", ", "how can I help?")
	s := h.manager.Open(uuid.New(), "visitor-1")
	assert.Equal(t, uuid.Nil, s.ConversationId())

	var sent []string
	err := s.HandleVisitorMessage(context.Background(), uuid.New(), "hi", func(text string) error {
		sent = append(sent, text)
		return nil
	})
	require.NoError(t, err)

	convId := s.ConversationId()
	require.NotEqual(t, uuid.Nil, convId)

	msgs := h.transcript(t, convId)
	require.Len(t, msgs, 2)
	assert.Equal(t, entity.SenderVisitor, msgs[0].SenderType)
	assert.Equal(t, "hi", msgs[0].Text)
	assert.Equal(t, entity.SenderBot, msgs[1].SenderType)
	assert.Equal(t, strings.Join(sent, ""), msgs[1].Text)
	assert.Len(t, sent, 3)
}

func TestConversationIsReusedAcrossTurns(t *testing.T) {
	h := newHarness(staticEmbedder{}, "ok")
	s := h.manager.Open(uuid.New(), "")
	bot := uuid.New()
	nop := func(string) error { return nil }

	require.NoError(t, s.HandleVisitorMessage(context.Background(), bot, "one", nop))
	first := s.ConversationId()
	require.NoError(t, s.HandleVisitorMessage(context.Background(), bot, "two", nop))
	assert.Equal(t, first, s.ConversationId())
	assert.Len(t, h.transcript(t, first), 4)

	err := s.HandleVisitorMessage(context.Background(), uuid.New(), "other bot", nop)
	assert.ErrorIs(t, err, ErrBotMismatch)
}

func TestDisconnectMidStreamPersistsDeliveredDeltasOnly(t *testing.T) {
	h := newHarness(staticEmbedder{}, "one ", "two ", "three ", "four ", "five")
	s := h.manager.Open(uuid.New(), "v")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var sent []string
	attempts := 0
	err := s.HandleVisitorMessage(ctx, uuid.New(), "tell me", func(text string) error {
		attempts++
		if len(sent) == 2 {
			cancel()
			return errors.New("websocket: close sent")
		}
		sent = append(sent, text)
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, 3, attempts)

	msgs := h.transcript(t, s.ConversationId())
	require.Len(t, msgs, 2)
	assert.Equal(t, entity.SenderBot, msgs[1].SenderType)
	assert.Equal(t, "one two ", msgs[1].Text)
}

func TestEngineFailureSendsSingleFallback(t *testing.T) {
	h := newHarness(staticEmbedder{err: rag.EmbeddingError("stub", errors.New("down"))}, "never")
	s := h.manager.Open(uuid.New(), "v")

	var sent []string
	err := s.HandleVisitorMessage(context.Background(), uuid.New(), "hello?", func(text string) error {
		sent = append(sent, text)
		return nil
	})
	assert.ErrorIs(t, err, rag.ErrEmbedding)
	assert.Equal(t, []string{DefaultFallback}, sent)

	msgs := h.transcript(t, s.ConversationId())
	require.Len(t, msgs, 1)
	assert.Equal(t, entity.SenderVisitor, msgs[0].SenderType)
}

func TestEmptyMessageIsIgnored(t *testing.T) {
	h := newHarness(staticEmbedder{}, "x")
	s := h.manager.Open(uuid.New(), "v")
	err := s.HandleVisitorMessage(context.Background(), uuid.New(), "   ", func(string) error { return nil })
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Equal(t, uuid.Nil, s.ConversationId())
}

func TestCloseAndDropConversation(t *testing.T) {
	h := newHarness(staticEmbedder{}, "ok")
	tenant := uuid.New()
	s := h.manager.Open(tenant, "v")
	bot := uuid.New()
	nop := func(string) error { return nil }

	require.NoError(t, s.HandleVisitorMessage(context.Background(), bot, "one", nop))
	first := s.ConversationId()

	assert.False(t, s.DropConversation(uuid.New()))
	assert.True(t, s.DropConversation(first))
	require.NoError(t, s.HandleVisitorMessage(context.Background(), bot, "two", nop))
	second := s.ConversationId()
	assert.NotEqual(t, first, second)

	require.NoError(t, s.Close(context.Background()))
	conv, err := h.store.NewUnitOfWork(context.Background()).ConversationRepository().
		FindOne(context.Background(), specification.ByID{ID: second})
	require.NoError(t, err)
	assert.Equal(t, entity.ConversationStatusClosed, conv.Status)
	assert.NotNil(t, conv.EndedAt)

	err = s.HandleVisitorMessage(context.Background(), bot, "after close", nop)
	assert.ErrorIs(t, err, ErrClosed)
}
