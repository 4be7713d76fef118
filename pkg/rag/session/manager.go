package session

import (
	"context"
	"time"

	"supportly-be/internal/pkg/logger"
	"supportly-be/internal/repository/unitofwork"
	"supportly-be/pkg/rag/answer"

	"github.com/google/uuid"
)

const (
	DefaultFallback       = "I'm having trouble connecting."
	DefaultPersistTimeout = 5 * time.Second
)

// Answerer is the slice of the answer engine a session needs.
type Answerer interface {
	Answer(ctx context.Context, query string, tenantId, botId uuid.UUID, emit answer.EmitFunc) (string, error)
}

type Config struct {
	Fallback       string
	PersistTimeout time.Duration
}

// Manager opens sessions for authenticated connections and holds what they share.
type Manager struct {
	uowFactory unitofwork.RepositoryFactory
	answerer   Answerer
	cfg        Config
	logger     logger.ILogger
}

func NewManager(uowFactory unitofwork.RepositoryFactory, answerer Answerer, cfg Config, log logger.ILogger) *Manager {
	if cfg.Fallback == "" {
		cfg.Fallback = DefaultFallback
	}
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = DefaultPersistTimeout
	}
	return &Manager{
		uowFactory: uowFactory,
		answerer:   answerer,
		cfg:        cfg,
		logger:     log,
	}
}

// Open starts a session for a connection whose credential decoded to tenantId.
// No conversation exists until the first visitor message.
func (m *Manager) Open(tenantId uuid.UUID, visitorId string) *Session {
	if visitorId == "" {
		visitorId = uuid.NewString()
	}
	return &Session{
		mgr:       m,
		tenantId:  tenantId,
		visitorId: visitorId,
	}
}

func (m *Manager) Fallback() string {
	return m.cfg.Fallback
}

// detached returns a context that survives the connection for best-effort writes.
func (m *Manager) detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), m.cfg.PersistTimeout)
}
