package entity

import (
	"time"

	"github.com/google/uuid"
)

type SourceKind string

const (
	SourceKindURL  SourceKind = "url"
	SourceKindFile SourceKind = "file"
)

type TrainingStatus string

const (
	TrainingStatusPending    TrainingStatus = "pending"
	TrainingStatusProcessing TrainingStatus = "processing"
	TrainingStatusCompleted  TrainingStatus = "completed"
	TrainingStatusFailed     TrainingStatus = "failed"
)

// Predecessors lists the states a source may be in when moving to s.
// processing -> processing is allowed so a redelivered job can resume.
// pending -> failed only happens when the job could not be enqueued.
func (s TrainingStatus) Predecessors() []TrainingStatus {
	switch s {
	case TrainingStatusProcessing:
		return []TrainingStatus{TrainingStatusPending, TrainingStatusProcessing}
	case TrainingStatusCompleted:
		return []TrainingStatus{TrainingStatusProcessing}
	case TrainingStatusFailed:
		return []TrainingStatus{TrainingStatusPending, TrainingStatusProcessing}
	}
	return nil
}

// CanTransitionTo reports whether s -> next keeps the status monotonic.
func (s TrainingStatus) CanTransitionTo(next TrainingStatus) bool {
	for _, p := range next.Predecessors() {
		if p == s {
			return true
		}
	}
	return false
}

func (s TrainingStatus) IsTerminal() bool {
	return s == TrainingStatusCompleted || s == TrainingStatusFailed
}

type TrainingSource struct {
	Id        uuid.UUID
	TenantId  uuid.UUID
	BotId     uuid.UUID
	Kind      SourceKind
	SourceUrl *string
	Status    TrainingStatus
	CreatedAt time.Time
	UpdatedAt *time.Time
}
