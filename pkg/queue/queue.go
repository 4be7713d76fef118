package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"supportly-be/pkg/rag"
)

const (
	DefaultConcurrency = 5
	DefaultMaxDeliver  = 3
	DefaultRetryDelay  = 5 * time.Second
)

// Delivery is one attempt at a job. Attempt starts at 1.
type Delivery struct {
	Job         Job
	Attempt     int
	MaxAttempts int
}

// Final reports whether a failure on this attempt will not be redelivered.
func (d Delivery) Final() bool {
	return d.Attempt >= d.MaxAttempts
}

// WillRetry reports whether err on this attempt leads to a redelivery.
func (d Delivery) WillRetry(err error) bool {
	return err != nil && rag.IsRetryable(err) && !d.Final()
}

type Handler func(ctx context.Context, d Delivery) error

type Publisher interface {
	Enqueue(ctx context.Context, job Job) error
}

// ErrPayloadTooLarge is returned when an encoded job does not fit in one
// transport message.
var ErrPayloadTooLarge = errors.New("job payload exceeds transport limit")

// PayloadLimiter is implemented by publishers with a per-message size cap.
// A non-positive MaxPayload means the cap is not known yet.
type PayloadLimiter interface {
	MaxPayload() int64
}

// CheckPayload fails with ErrPayloadTooLarge when job would be rejected by
// p for its size. Publishers without a cap accept anything.
func CheckPayload(p Publisher, job Job) error {
	limiter, ok := p.(PayloadLimiter)
	if !ok {
		return nil
	}
	data, err := encodeJob(job)
	if err != nil {
		return err
	}
	return checkSize(data, limiter.MaxPayload())
}

func checkSize(data []byte, max int64) error {
	if max > 0 && int64(len(data)) > max {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrPayloadTooLarge, len(data), max)
	}
	return nil
}

// Queue is a durable job channel with a bounded worker pool. Run blocks
// until ctx is cancelled and in-flight jobs have returned.
type Queue interface {
	Publisher
	Run(ctx context.Context, handler Handler) error
	Close() error
}

type Config struct {
	Concurrency int
	MaxDeliver  int
	RetryDelay  time.Duration
}

func (c Config) withDefaults() Config {
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.MaxDeliver <= 0 {
		c.MaxDeliver = DefaultMaxDeliver
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	return c
}

// backoff grows linearly with the attempt number.
func (c Config) backoff(attempt int) time.Duration {
	return time.Duration(attempt) * c.RetryDelay
}
