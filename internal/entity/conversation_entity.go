package entity

import (
	"time"

	"github.com/google/uuid"
)

type ConversationStatus string

const (
	ConversationStatusOpen   ConversationStatus = "open"
	ConversationStatusClosed ConversationStatus = "closed"
)

type Conversation struct {
	Id        uuid.UUID
	TenantId  uuid.UUID
	BotId     uuid.UUID
	VisitorId string
	Status    ConversationStatus
	StartedAt time.Time
	EndedAt   *time.Time
}

type SenderType string

const (
	SenderVisitor SenderType = "visitor"
	SenderBot     SenderType = "bot"
	SenderAgent   SenderType = "agent"
)

type Message struct {
	Id             uuid.UUID
	ConversationId uuid.UUID
	SenderType     SenderType
	Text           string
	CreatedAt      time.Time
}
