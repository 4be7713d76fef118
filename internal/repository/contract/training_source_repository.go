package contract

import (
	"context"
	"errors"

	"supportly-be/internal/entity"
	"supportly-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ErrStatusTransition is returned when a status update would move a source
// backwards, or the source does not exist.
var ErrStatusTransition = errors.New("training source status transition not allowed")

type TrainingSourceRepository interface {
	Create(ctx context.Context, source *entity.TrainingSource) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.TrainingSource, error)
	// TransitionStatus moves a source to status only from one of status.Predecessors().
	TransitionStatus(ctx context.Context, id uuid.UUID, status entity.TrainingStatus) error
}
