package contract

import (
	"context"
	"time"

	"supportly-be/internal/entity"
	"supportly-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ConversationRepository interface {
	Create(ctx context.Context, conversation *entity.Conversation) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Conversation, error)
	// Close marks an open conversation closed; closing twice is a no-op.
	Close(ctx context.Context, tenantId, id uuid.UUID, endedAt time.Time) error
}

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error)
}
