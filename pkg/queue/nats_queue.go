package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"supportly-be/internal/pkg/logger"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

type NatsConfig struct {
	URL     string
	Stream  string
	Subject string
	Durable string
	AckWait time.Duration
	Config
}

// NatsQueue is the production queue: a JetStream work-queue stream and one
// durable pull consumer shared by every worker process.
type NatsQueue struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	cfg    NatsConfig
	logger logger.ILogger
}

func NewNatsQueue(cfg NatsConfig, log logger.ILogger) (*NatsQueue, error) {
	cfg.Config = cfg.Config.withDefaults()
	if cfg.AckWait <= 0 {
		cfg.AckWait = 5 * time.Minute
	}

	nc, err := nats.Connect(cfg.URL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      cfg.Stream,
		Subjects:  []string{cfg.Subject},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.WorkQueuePolicy,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to ensure stream %s: %w", cfg.Stream, err)
	}

	return &NatsQueue{nc: nc, js: js, cfg: cfg, logger: log}, nil
}

func (q *NatsQueue) Enqueue(ctx context.Context, job Job) error {
	data, err := encodeJob(job)
	if err != nil {
		return err
	}
	if err := checkSize(data, q.MaxPayload()); err != nil {
		return err
	}
	if _, err := q.js.Publish(ctx, q.cfg.Subject, data); err != nil {
		return fmt.Errorf("failed to publish job to subject %s: %w", q.cfg.Subject, err)
	}
	return nil
}

// MaxPayload is the server's max_payload, or 0 before the first connect.
func (q *NatsQueue) MaxPayload() int64 {
	return q.nc.MaxPayload()
}

func (q *NatsQueue) Run(ctx context.Context, handler Handler) error {
	consumer, err := q.js.CreateOrUpdateConsumer(ctx, q.cfg.Stream, jetstream.ConsumerConfig{
		Durable:       q.cfg.Durable,
		FilterSubject: q.cfg.Subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       q.cfg.AckWait,
		MaxDeliver:    q.cfg.MaxDeliver,
		MaxAckPending: q.cfg.Concurrency * 2,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	iter, err := consumer.Messages(jetstream.PullMaxMessages(q.cfg.Concurrency))
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	go func() {
		<-ctx.Done()
		iter.Stop()
	}()

	q.logger.Info("QUEUE", "Consuming ingestion jobs", map[string]interface{}{
		"stream":      q.cfg.Stream,
		"durable":     q.cfg.Durable,
		"concurrency": q.cfg.Concurrency,
	})

	sem := make(chan struct{}, q.cfg.Concurrency)
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		msg, err := iter.Next()
		if err != nil {
			if errors.Is(err, jetstream.ErrMsgIteratorClosed) || ctx.Err() != nil {
				return nil
			}
			q.logger.Warn("QUEUE", "Pull failed", map[string]interface{}{"error": err.Error()})
			continue
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			_ = msg.Nak()
			return nil
		}

		wg.Add(1)
		go func(msg jetstream.Msg) {
			defer wg.Done()
			defer func() { <-sem }()
			q.handle(ctx, msg, handler)
		}(msg)
	}
}

func (q *NatsQueue) handle(ctx context.Context, msg jetstream.Msg, handler Handler) {
	job, err := decodeJob(msg.Data())
	if err != nil {
		q.logger.Error("QUEUE", "Dropping malformed job", map[string]interface{}{"error": err.Error()})
		_ = msg.Term()
		return
	}

	attempt := 1
	if meta, err := msg.Metadata(); err == nil {
		attempt = int(meta.NumDelivered)
	}
	d := Delivery{Job: job, Attempt: attempt, MaxAttempts: q.cfg.MaxDeliver}

	err = handler(ctx, d)
	switch {
	case err == nil:
		_ = msg.Ack()
	case d.WillRetry(err):
		_ = msg.NakWithDelay(q.cfg.backoff(attempt))
	default:
		_ = msg.Term()
	}
}

func (q *NatsQueue) Close() error {
	if q.nc != nil {
		q.nc.Close()
	}
	return nil
}
