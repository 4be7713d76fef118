package unitofwork

import (
	"context"

	"supportly-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	TrainingSourceRepository() contract.TrainingSourceRepository
	ChunkRepository() contract.ChunkRepository
	ConversationRepository() contract.ConversationRepository
	MessageRepository() contract.MessageRepository
}
