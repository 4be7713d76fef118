package service

import (
	"context"

	"supportly-be/internal/pkg/logger"
	"supportly-be/pkg/queue"
)

// IngestionHandler is satisfied by the ingestion coordinator.
type IngestionHandler interface {
	Handle(ctx context.Context, d queue.Delivery) error
}

type IIngestionService interface {
	// Consume blocks, feeding jobs to the coordinator until ctx is done.
	Consume(ctx context.Context) error
}

type ingestionService struct {
	queue   queue.Queue
	handler IngestionHandler
	logger  logger.ILogger
}

func NewIngestionService(q queue.Queue, handler IngestionHandler, log logger.ILogger) IIngestionService {
	return &ingestionService{
		queue:   q,
		handler: handler,
		logger:  log,
	}
}

func (s *ingestionService) Consume(ctx context.Context) error {
	s.logger.Info("INGEST", "Ingestion consumer started", nil)
	err := s.queue.Run(ctx, s.handler.Handle)
	s.logger.Info("INGEST", "Ingestion consumer stopped", nil)
	if ctx.Err() != nil {
		return nil
	}
	return err
}
