package mapper

import (
	"supportly-be/internal/entity"
	"supportly-be/internal/model"
)

type ConversationMapper struct{}

func NewConversationMapper() *ConversationMapper {
	return &ConversationMapper{}
}

func (m *ConversationMapper) ToEntity(c *model.Conversation) *entity.Conversation {
	if c == nil {
		return nil
	}
	return &entity.Conversation{
		Id:        c.Id,
		TenantId:  c.TenantId,
		BotId:     c.BotId,
		VisitorId: c.VisitorId,
		Status:    entity.ConversationStatus(c.Status),
		StartedAt: c.StartedAt,
		EndedAt:   c.EndedAt,
	}
}

func (m *ConversationMapper) ToModel(c *entity.Conversation) *model.Conversation {
	if c == nil {
		return nil
	}
	return &model.Conversation{
		Id:        c.Id,
		TenantId:  c.TenantId,
		BotId:     c.BotId,
		VisitorId: c.VisitorId,
		Status:    string(c.Status),
		StartedAt: c.StartedAt,
		EndedAt:   c.EndedAt,
	}
}

func (m *ConversationMapper) MessageToEntity(msg *model.Message) *entity.Message {
	if msg == nil {
		return nil
	}
	return &entity.Message{
		Id:             msg.Id,
		ConversationId: msg.ConversationId,
		SenderType:     entity.SenderType(msg.SenderType),
		Text:           msg.Text,
		CreatedAt:      msg.CreatedAt,
	}
}

func (m *ConversationMapper) MessageToModel(msg *entity.Message) *model.Message {
	if msg == nil {
		return nil
	}
	return &model.Message{
		Id:             msg.Id,
		ConversationId: msg.ConversationId,
		SenderType:     string(msg.SenderType),
		Text:           msg.Text,
		CreatedAt:      msg.CreatedAt,
	}
}
