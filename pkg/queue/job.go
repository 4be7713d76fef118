package queue

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// Job is the ingestion payload. Exactly one of URL (scrape) or Text (upload)
// is the content origin; URL wins when both are set.
type Job struct {
	SourceId uuid.UUID `json:"sourceId" validate:"required"`
	TenantId uuid.UUID `json:"tenantId" validate:"required"`
	BotId    uuid.UUID `json:"botId" validate:"required"`
	URL      string    `json:"url,omitempty" validate:"omitempty,url"`
	Text     string    `json:"text,omitempty" validate:"required_without=URL"`
}

func (j Job) Validate() error {
	return validate.Struct(j)
}

func (j Job) IsScrape() bool {
	return j.URL != ""
}

func encodeJob(job Job) ([]byte, error) {
	if err := job.Validate(); err != nil {
		return nil, fmt.Errorf("invalid job: %w", err)
	}
	return json.Marshal(job)
}

func decodeJob(data []byte) (Job, error) {
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return Job{}, fmt.Errorf("decode job: %w", err)
	}
	if err := job.Validate(); err != nil {
		return Job{}, fmt.Errorf("invalid job: %w", err)
	}
	return job, nil
}
