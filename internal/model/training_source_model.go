package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TrainingSource struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantId  uuid.UUID `gorm:"type:uuid;not null;index"`
	BotId     uuid.UUID `gorm:"type:uuid;not null;index"`
	Type      string    `gorm:"type:text;not null"` // url | file
	SourceUrl *string   `gorm:"type:text"`
	Status    string    `gorm:"type:text;not null;default:'pending';index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (TrainingSource) TableName() string {
	return "training_sources"
}

func (m *TrainingSource) BeforeCreate(tx *gorm.DB) error {
	if m.Id == uuid.Nil {
		m.Id = uuid.New()
	}
	return nil
}
