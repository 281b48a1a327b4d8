package worker

import (
	"StudyVault/config"
	"StudyVault/internal/mq"
	"StudyVault/internal/task"
	"context"
	"encoding/json"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

type dlqMessage struct {
	Body     json.RawMessage `json:"body"`
	Attempt  int             `json:"attempt"`
	Error    string          `json:"error"`
	FailedAt time.Time       `json:"failed_at"`
}

// requeuer is the part of the broker the worker needs after a failure.
type requeuer interface {
	PublishRetry(ctx context.Context, body []byte, delay time.Duration) error
	PublishDLQ(ctx context.Context, body []byte) error
}

type outcome int

const (
	outcomeAck outcome = iota
	outcomeRequeue
)

type Worker struct {
	processor   *Processor
	limiter     *rate.Limiter
	concurrency int
	prefetch    int
	retryMax    int
	retryDelays []time.Duration
}

func New(cfg config.Config, processor *Processor) *Worker {
	burst := cfg.WorkerBurst
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Inf, burst)
	if cfg.WorkerRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.WorkerRate), burst)
	}
	concurrency := cfg.WorkerConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	prefetch := cfg.RabbitMQPrefetch
	if prefetch <= 0 {
		prefetch = 1
	}
	retryMax := cfg.WorkerRetryMax
	if retryMax < 0 {
		retryMax = 0
	}
	return &Worker{
		processor:   processor,
		limiter:     limiter,
		concurrency: concurrency,
		prefetch:    prefetch,
		retryMax:    retryMax,
		retryDelays: cfg.WorkerRetryDelays,
	}
}

// Run consumes the task queue until ctx is cancelled.
func (w *Worker) Run(ctx context.Context, client *mq.Client) error {
	if err := client.DeclareTopology(); err != nil {
		return err
	}
	if err := client.Channel.Qos(w.prefetch, 0, false); err != nil {
		return err
	}
	deliveries, err := client.Channel.Consume(mq.QueueTasks, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	sem := make(chan struct{}, w.concurrency)
	for {
		select {
		case <-ctx.Done():
			return nil
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("worker: delivery channel closed")
			}
			sem <- struct{}{}
			go func(d amqp.Delivery) {
				defer func() { <-sem }()
				switch w.dispatch(ctx, client, d.Body) {
				case outcomeRequeue:
					_ = d.Nack(false, true)
				default:
					_ = d.Ack(false)
				}
			}(delivery)
		}
	}
}

// dispatch processes one body and schedules a retry or dead-letters it on failure.
func (w *Worker) dispatch(ctx context.Context, broker requeuer, body []byte) outcome {
	msg, err := task.Decode(body)
	if err != nil {
		log.Error().Err(err).Msg("worker: invalid message")
		w.deadLetter(ctx, broker, body, 0, err)
		return outcomeAck
	}

	if err := w.limiter.Wait(ctx); err != nil {
		return outcomeRequeue
	}

	procErr := w.processor.Handle(ctx, msg)
	if procErr == nil {
		return outcomeAck
	}
	if errors.Is(procErr, context.Canceled) || errors.Is(procErr, context.DeadlineExceeded) {
		return outcomeRequeue
	}

	next := msg.Attempt + 1
	if errors.Is(procErr, ErrPermanent) || w.retryMax == 0 || next > w.retryMax {
		log.Error().Err(procErr).Str("task", msg.ID).Str("kind", msg.Kind).Int("attempt", msg.Attempt).Msg("worker: task failed")
		w.deadLetter(ctx, broker, body, msg.Attempt, procErr)
		return outcomeAck
	}

	msg.Attempt = next
	retryBody, err := task.Encode(msg)
	if err != nil {
		return outcomeRequeue
	}
	delay := pickRetryDelay(next, w.retryDelays)
	if err := broker.PublishRetry(ctx, retryBody, delay); err != nil {
		log.Error().Err(err).Str("task", msg.ID).Msg("worker: retry schedule failed")
		return outcomeRequeue
	}
	log.Warn().Err(procErr).Str("task", msg.ID).Int("attempt", next).Dur("delay", delay).Msg("worker: retry scheduled")
	return outcomeAck
}

func (w *Worker) deadLetter(ctx context.Context, broker requeuer, body []byte, attempt int, procErr error) {
	raw := json.RawMessage(body)
	if !json.Valid(body) {
		raw, _ = json.Marshal(string(body))
	}
	out, err := json.Marshal(dlqMessage{
		Body:     raw,
		Attempt:  attempt,
		Error:    procErr.Error(),
		FailedAt: time.Now(),
	})
	if err != nil {
		return
	}
	if err := broker.PublishDLQ(ctx, out); err != nil {
		log.Error().Err(err).Msg("worker: dlq publish failed")
	}
}

func pickRetryDelay(attempt int, delays []time.Duration) time.Duration {
	if len(delays) == 0 {
		return 0
	}
	index := attempt - 1
	if index < 0 {
		index = 0
	}
	if index >= len(delays) {
		return delays[len(delays)-1]
	}
	return delays[index]
}
