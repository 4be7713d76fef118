package dto

import (
	"time"

	"github.com/google/uuid"
)

const (
	WireTypeVisitorMessage = "visitor.message"
	WireTypeBotMessage     = "bot.message"
)

// VisitorMessage is the only inbound frame a widget sends.
type VisitorMessage struct {
	Type  string    `json:"type" validate:"required,eq=visitor.message"`
	Text  string    `json:"text" validate:"required"`
	BotId uuid.UUID `json:"botId" validate:"required"`
}

// BotMessage is sent once per generation delta, and for fallback lines.
type BotMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func NewBotMessage(text string) BotMessage {
	return BotMessage{Type: WireTypeBotMessage, Text: text}
}

type ConversationResponse struct {
	Id        uuid.UUID  `json:"id"`
	BotId     uuid.UUID  `json:"botId"`
	VisitorId string     `json:"visitorId"`
	Status    string     `json:"status"`
	StartedAt time.Time  `json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
}

// ConversationEvent travels over the Redis conversation_events channel.
type ConversationEvent struct {
	Type           string    `json:"type"`
	TenantId       uuid.UUID `json:"tenantId"`
	ConversationId uuid.UUID `json:"conversationId"`
}

const ConversationEventClosed = "conversation.closed"

type MessageResponse struct {
	Id         uuid.UUID `json:"id"`
	SenderType string    `json:"senderType"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"createdAt"`
}

type TranscriptResponse struct {
	Conversation ConversationResponse `json:"conversation"`
	Messages     []MessageResponse    `json:"messages"`
}

// AgentReplyRequest is a human agent answering inside a conversation.
type AgentReplyRequest struct {
	Text string `json:"text" validate:"required"`
}
