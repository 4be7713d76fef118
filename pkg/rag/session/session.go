package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"supportly-be/internal/entity"

	"github.com/google/uuid"
)

var (
	ErrEmptyMessage = errors.New("visitor message is empty")
	ErrBotMismatch  = errors.New("conversation belongs to a different bot")
	ErrClosed       = errors.New("session closed")
)

// SendFunc delivers one outbound bot.message text to the peer.
type SendFunc func(text string) error

// Session is the per-connection state machine. Turns must be run serially by
// one goroutine; DropConversation may be called from any goroutine.
type Session struct {
	mgr       *Manager
	tenantId  uuid.UUID
	visitorId string

	mu           sync.Mutex
	conversation *entity.Conversation
	closed       bool
}

func (s *Session) TenantId() uuid.UUID { return s.tenantId }

func (s *Session) VisitorId() string { return s.visitorId }

// ConversationId returns the open conversation, or uuid.Nil before the first message.
func (s *Session) ConversationId() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conversation == nil {
		return uuid.Nil
	}
	return s.conversation.Id
}

// DropConversation forgets conversation id if it is the current one, so the
// next visitor message starts a new conversation. Used when a conversation is
// closed from outside the connection.
func (s *Session) DropConversation(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conversation != nil && s.conversation.Id == id {
		s.conversation = nil
		return true
	}
	return false
}

// HandleVisitorMessage runs one turn: persist the question, stream the answer
// through send, persist the answer. Any failure reaches the visitor as one
// fallback line; the returned error is for logging only.
func (s *Session) HandleVisitorMessage(ctx context.Context, botId uuid.UUID, text string, send SendFunc) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	conversation, err := s.ensureConversation(ctx, botId)
	if err != nil {
		s.sendFallback(send)
		return err
	}

	uow := s.mgr.uowFactory.NewUnitOfWork(ctx)
	if err := uow.MessageRepository().Create(ctx, &entity.Message{
		ConversationId: conversation.Id,
		SenderType:     entity.SenderVisitor,
		Text:           text,
	}); err != nil {
		s.sendFallback(send)
		return err
	}

	peerGone := false
	full, err := s.mgr.answerer.Answer(ctx, text, s.tenantId, conversation.BotId, func(delta string) error {
		if err := send(delta); err != nil {
			peerGone = true
			return err
		}
		return nil
	})
	if ctx.Err() != nil {
		peerGone = true
	}

	// The bot row is written even when the connection is gone, with whatever
	// reached the peer.
	if full != "" {
		s.persistBot(ctx, conversation.Id, full)
	}

	if err != nil {
		if !peerGone {
			s.sendFallback(send)
		}
		return err
	}
	return nil
}

func (s *Session) ensureConversation(ctx context.Context, botId uuid.UUID) (*entity.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	if s.conversation != nil {
		if botId != uuid.Nil && s.conversation.BotId != botId {
			return nil, ErrBotMismatch
		}
		return s.conversation, nil
	}
	if botId == uuid.Nil {
		return nil, errors.New("botId is required to start a conversation")
	}

	conversation := &entity.Conversation{
		TenantId:  s.tenantId,
		BotId:     botId,
		VisitorId: s.visitorId,
		Status:    entity.ConversationStatusOpen,
		StartedAt: time.Now(),
	}
	if err := s.mgr.uowFactory.NewUnitOfWork(ctx).ConversationRepository().Create(ctx, conversation); err != nil {
		return nil, err
	}

	s.mgr.logger.Info("SESSION", "Conversation opened", map[string]interface{}{
		"tenant_id":       s.tenantId.String(),
		"conversation_id": conversation.Id.String(),
		"bot_id":          botId.String(),
	})
	s.conversation = conversation
	return conversation, nil
}

func (s *Session) persistBot(ctx context.Context, conversationId uuid.UUID, text string) {
	pctx, cancel := s.mgr.detached(ctx)
	defer cancel()

	err := s.mgr.uowFactory.NewUnitOfWork(pctx).MessageRepository().Create(pctx, &entity.Message{
		ConversationId: conversationId,
		SenderType:     entity.SenderBot,
		Text:           text,
	})
	if err != nil {
		s.mgr.logger.Error("SESSION", "Failed to persist bot message", map[string]interface{}{
			"tenant_id":       s.tenantId.String(),
			"conversation_id": conversationId.String(),
			"error":           err.Error(),
		})
	}
}

func (s *Session) sendFallback(send SendFunc) {
	_ = send(s.mgr.cfg.Fallback)
}

// Close ends the session and closes its open conversation, if any.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	conversation := s.conversation
	s.conversation = nil
	s.closed = true
	s.mu.Unlock()

	if conversation == nil {
		return nil
	}

	cctx, cancel := s.mgr.detached(ctx)
	defer cancel()
	return s.mgr.uowFactory.NewUnitOfWork(cctx).ConversationRepository().Close(cctx, s.tenantId, conversation.Id, time.Now())
}
