package queue

import (
	"context"
	"strconv"
	"sync"
	"time"

	"supportly-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const (
	memoryTopic  = "ingestion.jobs"
	attemptKey   = "attempt"
	outputBuffer = 256
)

// MemoryQueue runs producer and workers in one process on a watermill
// GoChannel. GoChannel waits for an ack before delivering the next message,
// so messages are acked on receipt and retries are republished.
type MemoryQueue struct {
	pubSub   *gochannel.GoChannel
	messages <-chan *message.Message
	cfg      Config
	logger   logger.ILogger

	mu     sync.Mutex
	closed bool
}

// NewMemoryQueue subscribes immediately so jobs enqueued before Run starts
// are buffered instead of dropped.
func NewMemoryQueue(cfg Config, log logger.ILogger) (*MemoryQueue, error) {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: outputBuffer},
		logger.NewWatermillAdapter(log),
	)
	messages, err := pubSub.Subscribe(context.Background(), memoryTopic)
	if err != nil {
		return nil, err
	}
	return &MemoryQueue{
		pubSub:   pubSub,
		messages: messages,
		cfg:      cfg.withDefaults(),
		logger:   log,
	}, nil
}

func (q *MemoryQueue) Enqueue(ctx context.Context, job Job) error {
	data, err := encodeJob(job)
	if err != nil {
		return err
	}
	return q.publish(data, 1)
}

func (q *MemoryQueue) publish(payload []byte, attempt int) error {
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(attemptKey, strconv.Itoa(attempt))
	return q.pubSub.Publish(memoryTopic, msg)
}

func (q *MemoryQueue) Run(ctx context.Context, handler Handler) error {
	sem := make(chan struct{}, q.cfg.Concurrency)
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-q.messages:
			if !ok {
				return nil
			}
			msg.Ack()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return nil
			}

			wg.Add(1)
			go func(msg *message.Message) {
				defer wg.Done()
				defer func() { <-sem }()
				q.handle(ctx, msg, handler)
			}(msg)
		}
	}
}

func (q *MemoryQueue) handle(ctx context.Context, msg *message.Message, handler Handler) {
	job, err := decodeJob(msg.Payload)
	if err != nil {
		q.logger.Error("QUEUE", "Dropping malformed job", map[string]interface{}{"error": err.Error()})
		return
	}

	attempt, _ := strconv.Atoi(msg.Metadata.Get(attemptKey))
	if attempt < 1 {
		attempt = 1
	}
	d := Delivery{Job: job, Attempt: attempt, MaxAttempts: q.cfg.MaxDeliver}

	err = handler(ctx, d)
	if !d.WillRetry(err) {
		return
	}

	payload := msg.Payload
	time.AfterFunc(q.cfg.backoff(attempt), func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		if q.closed {
			return
		}
		if err := q.publish(payload, attempt+1); err != nil {
			q.logger.Error("QUEUE", "Failed to requeue job", map[string]interface{}{
				"source_id": job.SourceId.String(),
				"error":     err.Error(),
			})
		}
	})
}

func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	return q.pubSub.Close()
}
