package mapper

import (
	"time"

	"supportly-be/internal/entity"
	"supportly-be/internal/model"
)

type TrainingSourceMapper struct{}

func NewTrainingSourceMapper() *TrainingSourceMapper {
	return &TrainingSourceMapper{}
}

func (m *TrainingSourceMapper) ToEntity(s *model.TrainingSource) *entity.TrainingSource {
	if s == nil {
		return nil
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.TrainingSource{
		Id:        s.Id,
		TenantId:  s.TenantId,
		BotId:     s.BotId,
		Kind:      entity.SourceKind(s.Type),
		SourceUrl: s.SourceUrl,
		Status:    entity.TrainingStatus(s.Status),
		CreatedAt: s.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *TrainingSourceMapper) ToModel(s *entity.TrainingSource) *model.TrainingSource {
	if s == nil {
		return nil
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	status := s.Status
	if status == "" {
		status = entity.TrainingStatusPending
	}

	return &model.TrainingSource{
		Id:        s.Id,
		TenantId:  s.TenantId,
		BotId:     s.BotId,
		Type:      string(s.Kind),
		SourceUrl: s.SourceUrl,
		Status:    string(status),
		CreatedAt: s.CreatedAt,
		UpdatedAt: updatedAt,
	}
}
