package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"supportly-be/internal/dto"
	"supportly-be/internal/entity"
	"supportly-be/internal/pkg/logger"
	"supportly-be/internal/repository/specification"
	"supportly-be/internal/repository/unitofwork"
	"supportly-be/pkg/content"
	"supportly-be/pkg/queue"
	"supportly-be/pkg/rag"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ITrainingService interface {
	Scrape(ctx context.Context, tenantId uuid.UUID, req *dto.ScrapeRequest) (*dto.TrainingSourceResponse, error)
	Upload(ctx context.Context, tenantId uuid.UUID, req *dto.UploadRequest) (*dto.TrainingSourceResponse, error)
	GetSource(ctx context.Context, tenantId, id uuid.UUID) (*dto.TrainingSourceResponse, error)
}

type trainingService struct {
	uowFactory unitofwork.RepositoryFactory
	publisher  queue.Publisher
	logger     logger.ILogger
}

func NewTrainingService(uowFactory unitofwork.RepositoryFactory, publisher queue.Publisher, log logger.ILogger) ITrainingService {
	return &trainingService{
		uowFactory: uowFactory,
		publisher:  publisher,
		logger:     log,
	}
}

func (s *trainingService) Scrape(ctx context.Context, tenantId uuid.UUID, req *dto.ScrapeRequest) (*dto.TrainingSourceResponse, error) {
	url := req.Url
	source := &entity.TrainingSource{
		Id:        uuid.New(),
		TenantId:  tenantId,
		BotId:     req.BotId,
		Kind:      entity.SourceKindURL,
		SourceUrl: &url,
		Status:    entity.TrainingStatusPending,
		CreatedAt: time.Now(),
	}

	job := queue.Job{
		SourceId: source.Id,
		TenantId: tenantId,
		BotId:    req.BotId,
		URL:      url,
	}
	if err := s.createAndEnqueue(ctx, source, job); err != nil {
		return nil, err
	}
	return toSourceResponse(source), nil
}

func (s *trainingService) Upload(ctx context.Context, tenantId uuid.UUID, req *dto.UploadRequest) (*dto.TrainingSourceResponse, error) {
	// Text is extracted here so unsupported files are rejected before a
	// source row exists.
	text, err := content.ExtractFile(req.FileName, req.Data)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, rag.ExtractionError("upload", fmt.Errorf("no text found in %q", req.FileName))
	}

	source := &entity.TrainingSource{
		Id:        uuid.New(),
		TenantId:  tenantId,
		BotId:     req.BotId,
		Kind:      entity.SourceKindFile,
		Status:    entity.TrainingStatusPending,
		CreatedAt: time.Now(),
	}

	job := queue.Job{
		SourceId: source.Id,
		TenantId: tenantId,
		BotId:    req.BotId,
		Text:     text,
	}
	if err := s.createAndEnqueue(ctx, source, job); err != nil {
		return nil, err
	}

	s.logger.Info("TRAINING", "File accepted for ingestion", map[string]interface{}{
		"source_id":  source.Id,
		"tenant_id":  tenantId,
		"file_name":  req.FileName,
		"characters": len(text),
	})
	return toSourceResponse(source), nil
}

func (s *trainingService) createAndEnqueue(ctx context.Context, source *entity.TrainingSource, job queue.Job) error {
	// The queue's message cap is the real upload limit; reject before a
	// source row exists.
	if err := queue.CheckPayload(s.publisher, job); err != nil {
		if errors.Is(err, queue.ErrPayloadTooLarge) {
			s.logger.Warn("TRAINING", "Ingestion job too large for queue", map[string]interface{}{
				"tenant_id": source.TenantId,
				"error":     err.Error(),
			})
			return fiber.NewError(fiber.StatusRequestEntityTooLarge, "Extracted content is too large to queue")
		}
		return err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.TrainingSourceRepository().Create(ctx, source); err != nil {
		return err
	}

	if err := s.publisher.Enqueue(ctx, job); err != nil {
		s.logger.Error("TRAINING", "Failed to enqueue ingestion job", map[string]interface{}{
			"source_id": source.Id,
			"tenant_id": source.TenantId,
			"error":     err.Error(),
		})
		// A pending row nobody will ever process would look stuck forever.
		if terr := uow.TrainingSourceRepository().TransitionStatus(context.WithoutCancel(ctx), source.Id, entity.TrainingStatusFailed); terr == nil {
			source.Status = entity.TrainingStatusFailed
		}
		return fmt.Errorf("enqueue ingestion job: %w", err)
	}
	return nil
}

func (s *trainingService) GetSource(ctx context.Context, tenantId, id uuid.UUID) (*dto.TrainingSourceResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	source, err := uow.TrainingSourceRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.ByTenant{TenantID: tenantId},
	)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Training source not found")
	}
	return toSourceResponse(source), nil
}

func toSourceResponse(s *entity.TrainingSource) *dto.TrainingSourceResponse {
	return &dto.TrainingSourceResponse{
		Id:        s.Id,
		BotId:     s.BotId,
		Type:      string(s.Kind),
		SourceUrl: s.SourceUrl,
		Status:    string(s.Status),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}
