package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Conversation struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantId  uuid.UUID `gorm:"type:uuid;not null;index"` // fixed at creation
	BotId     uuid.UUID `gorm:"type:uuid;not null;index"`
	VisitorId string    `gorm:"type:text"`
	Status    string    `gorm:"type:text;not null;default:'open'"`
	StartedAt time.Time `gorm:"not null"`
	EndedAt   *time.Time
}

func (Conversation) TableName() string {
	return "conversations"
}

func (m *Conversation) BeforeCreate(tx *gorm.DB) error {
	if m.Id == uuid.Nil {
		m.Id = uuid.New()
	}
	return nil
}

type Message struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey"`
	ConversationId uuid.UUID `gorm:"type:uuid;not null;index"`
	SenderType     string    `gorm:"type:text;not null"`
	Text           string    `gorm:"type:text"`
	CreatedAt      time.Time `gorm:"not null;index"`
}

func (Message) TableName() string {
	return "messages"
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.Id == uuid.Nil {
		m.Id = uuid.New()
	}
	return nil
}
