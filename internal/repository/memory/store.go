package memory

import (
	"context"
	"sync"

	"supportly-be/internal/entity"
	"supportly-be/internal/repository/contract"
	"supportly-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// Store is a process-local backend for every repository contract. It serves
// STORE_DRIVER=memory and the package tests of the RAG pipeline.
type Store struct {
	mu            sync.RWMutex
	sources       map[uuid.UUID]*entity.TrainingSource
	chunks        map[uuid.UUID]*entity.Chunk
	conversations map[uuid.UUID]*entity.Conversation
	messages      []*entity.Message
}

func NewStore() *Store {
	return &Store{
		sources:       make(map[uuid.UUID]*entity.TrainingSource),
		chunks:        make(map[uuid.UUID]*entity.Chunk),
		conversations: make(map[uuid.UUID]*entity.Conversation),
	}
}

var _ unitofwork.RepositoryFactory = (*Store)(nil)

func (s *Store) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &unitOfWork{store: s}
}

func (s *Store) WithConnection(ctx context.Context, fn func(uow unitofwork.UnitOfWork) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(s.NewUnitOfWork(ctx))
}

// unitOfWork stages writes while a transaction is open and applies them
// under the store lock on Commit.
type unitOfWork struct {
	store  *Store
	staged []func(*Store)
	inTx   bool
}

func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.inTx {
		return errTxStarted
	}
	u.inTx = true
	u.staged = nil
	return nil
}

func (u *unitOfWork) Commit() error {
	if !u.inTx {
		return errNoTx
	}
	u.store.mu.Lock()
	for _, op := range u.staged {
		op(u.store)
	}
	u.store.mu.Unlock()
	u.inTx = false
	u.staged = nil
	return nil
}

func (u *unitOfWork) Rollback() error {
	if !u.inTx {
		return errNoTx
	}
	u.inTx = false
	u.staged = nil
	return nil
}

// write applies op now, or at Commit when a transaction is open.
func (u *unitOfWork) write(op func(*Store)) {
	if u.inTx {
		u.staged = append(u.staged, op)
		return
	}
	u.store.mu.Lock()
	op(u.store)
	u.store.mu.Unlock()
}

func (u *unitOfWork) TrainingSourceRepository() contract.TrainingSourceRepository {
	return &sourceRepository{uow: u}
}

func (u *unitOfWork) ChunkRepository() contract.ChunkRepository {
	return &chunkRepository{uow: u}
}

func (u *unitOfWork) ConversationRepository() contract.ConversationRepository {
	return &conversationRepository{uow: u}
}

func (u *unitOfWork) MessageRepository() contract.MessageRepository {
	return &messageRepository{uow: u}
}
