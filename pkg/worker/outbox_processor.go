// Package worker contains the background processors run by the worker binary.
package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/careconnect/api/internal/model"
	"github.com/careconnect/api/internal/repository"
	"github.com/careconnect/api/pkg/logger"
	"github.com/careconnect/api/pkg/messaging"
	"github.com/careconnect/api/pkg/metrics"
)

type OutboxConfig struct {
	PollInterval time.Duration
	BatchSize    int
	MaxRetries   int
	Retention    time.Duration
}

// OutboxProcessor drains PENDING outbox rows to the message broker. Multiple
// instances can run concurrently; SKIP LOCKED row claiming keeps them from
// delivering the same event twice.
type OutboxProcessor struct {
	outbox  repository.OutboxRepository
	broker  messaging.Broker
	metrics *metrics.Metrics
	logger  *logger.Logger
	cfg     OutboxConfig
}

func NewOutboxProcessor(
	outbox repository.OutboxRepository,
	broker messaging.Broker,
	m *metrics.Metrics,
	log *logger.Logger,
	cfg OutboxConfig,
) *OutboxProcessor {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	return &OutboxProcessor{
		outbox:  outbox,
		broker:  broker,
		metrics: m,
		logger:  log,
		cfg:     cfg,
	}
}

// Start blocks until ctx is cancelled.
func (p *OutboxProcessor) Start(ctx context.Context) {
	poll := time.NewTicker(p.cfg.PollInterval)
	defer poll.Stop()
	prune := time.NewTicker(time.Hour)
	defer prune.Stop()

	p.logger.Info("outbox processor started", map[string]interface{}{
		"poll_interval": p.cfg.PollInterval.String(),
		"batch_size":    p.cfg.BatchSize,
	})

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("outbox processor stopping")
			return
		case <-poll.C:
			p.processBatch(ctx)
		case <-prune.C:
			p.pruneProcessed(ctx)
		}
	}
}

func (p *OutboxProcessor) processBatch(ctx context.Context) {
	events, err := p.outbox.GetPendingEventsWithLock(ctx, p.cfg.BatchSize)
	if err != nil {
		p.logger.Error(err, "failed to fetch pending events")
		return
	}

	for _, event := range events {
		start := time.Now()
		err := p.broker.Publish(ctx, event.EventType, json.RawMessage(event.Payload))
		p.metrics.OutboxProcessingLatency.Observe(time.Since(start).Seconds())

		if err != nil {
			p.metrics.OutboxEventsFailed.Inc()
			p.metrics.BrokerOperations.WithLabelValues("publish", "error").Inc()
			p.fail(ctx, event, err)
			continue
		}

		p.metrics.OutboxEventsProcessed.Inc()
		p.metrics.BrokerOperations.WithLabelValues("publish", "success").Inc()
		if err := p.outbox.UpdateStatus(ctx, event.ID, model.OutboxStatusProcessed, nil); err != nil {
			p.logger.Error(err, "failed to mark event processed", map[string]interface{}{
				"event_id": event.ID,
			})
		}
	}
}

// fail leaves the event PENDING for another attempt until retries are
// exhausted, then parks it as FAILED for manual inspection.
func (p *OutboxProcessor) fail(ctx context.Context, event *model.OutboxEvent, cause error) {
	status := model.OutboxStatusPending
	if event.RetryCount+1 >= p.cfg.MaxRetries {
		status = model.OutboxStatusFailed
	}
	msg := cause.Error()
	if err := p.outbox.UpdateStatus(ctx, event.ID, status, &msg); err != nil {
		p.logger.Error(err, "failed to record event failure", map[string]interface{}{
			"event_id": event.ID,
		})
		return
	}
	p.logger.Error(cause, "event delivery failed", map[string]interface{}{
		"event_id":   event.ID,
		"event_type": event.EventType,
		"retries":    event.RetryCount + 1,
		"status":     status,
	})
}

func (p *OutboxProcessor) pruneProcessed(ctx context.Context) {
	if p.cfg.Retention <= 0 {
		return
	}
	deleted, err := p.outbox.DeleteProcessedBefore(ctx, time.Now().Add(-p.cfg.Retention))
	if err != nil {
		p.logger.Error(err, "failed to prune outbox")
		return
	}
	if deleted > 0 {
		p.logger.Info("pruned processed events", map[string]interface{}{"deleted": deleted})
	}
}
