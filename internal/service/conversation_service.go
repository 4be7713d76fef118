package service

import (
	"context"
	"time"

	"supportly-be/internal/dto"
	"supportly-be/internal/entity"
	"supportly-be/internal/pkg/logger"
	"supportly-be/internal/repository/specification"
	"supportly-be/internal/repository/unitofwork"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ConversationNotifier tells live sessions, on this and other instances,
// that a conversation was closed out from under them.
type ConversationNotifier interface {
	PublishConversationClosed(ctx context.Context, tenantId, conversationId uuid.UUID)
}

type IConversationService interface {
	Close(ctx context.Context, tenantId, id uuid.UUID) (*dto.ConversationResponse, error)
	Transcript(ctx context.Context, tenantId, id uuid.UUID) (*dto.TranscriptResponse, error)
	Reply(ctx context.Context, tenantId, id uuid.UUID, req *dto.AgentReplyRequest) (*dto.MessageResponse, error)
}

type conversationService struct {
	uowFactory unitofwork.RepositoryFactory
	notifier   ConversationNotifier
	logger     logger.ILogger
}

func NewConversationService(uowFactory unitofwork.RepositoryFactory, notifier ConversationNotifier, log logger.ILogger) IConversationService {
	return &conversationService{
		uowFactory: uowFactory,
		notifier:   notifier,
		logger:     log,
	}
}

func (s *conversationService) Close(ctx context.Context, tenantId, id uuid.UUID) (*dto.ConversationResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.ConversationRepository()

	if _, err := s.findOwned(ctx, uow, tenantId, id); err != nil {
		return nil, err
	}

	if err := repo.Close(ctx, tenantId, id, time.Now()); err != nil {
		return nil, err
	}

	conv, err := repo.FindOne(ctx, specification.ByID{ID: id}, specification.ByTenant{TenantID: tenantId})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.PublishConversationClosed(ctx, tenantId, id)
	}

	s.logger.Info("CONVERSATION", "Conversation closed by tenant", map[string]interface{}{
		"tenant_id":       tenantId,
		"conversation_id": id,
	})

	res := toConversationResponse(conv)
	return &res, nil
}

// Transcript returns the conversation with its messages, oldest first.
func (s *conversationService) Transcript(ctx context.Context, tenantId, id uuid.UUID) (*dto.TranscriptResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	conv, err := s.findOwned(ctx, uow, tenantId, id)
	if err != nil {
		return nil, err
	}

	messages, err := uow.MessageRepository().FindAll(ctx, specification.ByConversationID{ConversationID: id})
	if err != nil {
		return nil, err
	}

	res := &dto.TranscriptResponse{
		Conversation: toConversationResponse(conv),
		Messages:     make([]dto.MessageResponse, 0, len(messages)),
	}
	for _, m := range messages {
		res.Messages = append(res.Messages, toMessageResponse(m))
	}
	return res, nil
}

// Reply appends a human agent message. Closed conversations still accept
// replies so a transcript can be annotated after the visitor left.
func (s *conversationService) Reply(ctx context.Context, tenantId, id uuid.UUID, req *dto.AgentReplyRequest) (*dto.MessageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if _, err := s.findOwned(ctx, uow, tenantId, id); err != nil {
		return nil, err
	}

	message := &entity.Message{
		ConversationId: id,
		SenderType:     entity.SenderAgent,
		Text:           req.Text,
	}
	if err := uow.MessageRepository().Create(ctx, message); err != nil {
		return nil, err
	}

	s.logger.Info("CONVERSATION", "Agent reply stored", map[string]interface{}{
		"tenant_id":       tenantId,
		"conversation_id": id,
		"message_id":      message.Id,
	})

	res := toMessageResponse(message)
	return &res, nil
}

func (s *conversationService) findOwned(ctx context.Context, uow unitofwork.UnitOfWork, tenantId, id uuid.UUID) (*entity.Conversation, error) {
	conv, err := uow.ConversationRepository().FindOne(ctx, specification.ByID{ID: id}, specification.ByTenant{TenantID: tenantId})
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Conversation not found")
	}
	return conv, nil
}

func toConversationResponse(c *entity.Conversation) dto.ConversationResponse {
	return dto.ConversationResponse{
		Id:        c.Id,
		BotId:     c.BotId,
		VisitorId: c.VisitorId,
		Status:    string(c.Status),
		StartedAt: c.StartedAt,
		EndedAt:   c.EndedAt,
	}
}

func toMessageResponse(m *entity.Message) dto.MessageResponse {
	return dto.MessageResponse{
		Id:         m.Id,
		SenderType: string(m.SenderType),
		Text:       m.Text,
		CreatedAt:  m.CreatedAt,
	}
}
