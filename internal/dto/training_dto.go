package dto

import (
	"time"

	"github.com/google/uuid"
)

type ScrapeRequest struct {
	BotId uuid.UUID `json:"botId" validate:"required"`
	Url   string    `json:"url" validate:"required,url"`
}

type UploadRequest struct {
	BotId    uuid.UUID `validate:"required"`
	FileName string    `validate:"required"`
	Data     []byte    `validate:"required"`
}

type TrainingSourceResponse struct {
	Id        uuid.UUID  `json:"id"`
	BotId     uuid.UUID  `json:"botId"`
	Type      string     `json:"type"`
	SourceUrl *string    `json:"sourceUrl,omitempty"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}
