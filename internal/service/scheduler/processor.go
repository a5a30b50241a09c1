package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwalitptl/notify-api/internal/model"
	"github.com/jwalitptl/notify-api/internal/repository"
	"github.com/jwalitptl/notify-api/pkg/logger"
	"github.com/jwalitptl/notify-api/pkg/metrics"
)

// Dispatcher attempts delivery of one notification through its channels.
type Dispatcher interface {
	Dispatch(ctx context.Context, n *model.Notification) error
}

type ProcessorConfig struct {
	BatchSize    int
	MaxRetries   int
	RetryBackoff time.Duration
}

// CycleStats reports one processor invocation. Processed counts
// transitions to sent, Failed counts transitions to failed, Total is the
// batch size fetched.
type CycleStats struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
	Total     int `json:"total"`
}

// Processor drains due notifications: dispatch each, then mark it sent,
// rescheduled with an advanced retry counter, or terminally failed.
type Processor struct {
	repo       repository.NotificationRepository
	dispatcher Dispatcher
	config     ProcessorConfig
	logger     *logger.Logger
	metrics    *metrics.Metrics
}

func NewProcessor(
	repo repository.NotificationRepository,
	dispatcher Dispatcher,
	config ProcessorConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Processor {
	if config.BatchSize <= 0 {
		panic("BatchSize must be greater than 0")
	}
	if config.MaxRetries <= 0 {
		panic("MaxRetries must be greater than 0")
	}
	if config.RetryBackoff <= 0 {
		panic("RetryBackoff must be greater than 0")
	}

	return &Processor{
		repo:       repo,
		dispatcher: dispatcher,
		config:     config,
		logger:     logger,
		metrics:    metrics,
	}
}

// Run claims and processes one batch of due notifications. A failed claim
// aborts the cycle; a failure on any single record is recorded on that
// record and never stops the others. Overlapping cycles work disjoint
// batches because each record is claimed before dispatch.
func (p *Processor) Run(ctx context.Context, now time.Time) (CycleStats, error) {
	timer := prometheus.NewTimer(p.metrics.ProcessingLatency)
	defer timer.ObserveDuration()

	var stats CycleStats

	due, err := p.repo.ClaimDue(ctx, now, p.config.BatchSize)
	if err != nil {
		p.metrics.DatabaseOperations.WithLabelValues("claim_due", "error").Inc()
		return stats, fmt.Errorf("failed to claim due notifications: %w", err)
	}
	p.metrics.DatabaseOperations.WithLabelValues("claim_due", "success").Inc()

	stats.Total = len(due)

	for _, n := range due {
		if err := p.dispatcher.Dispatch(ctx, n); err != nil {
			p.handleFailure(ctx, n, err, now, &stats)
			continue
		}

		if err := p.repo.MarkSent(ctx, n.ID, now); err != nil {
			p.logger.Error(err, "failed to mark notification sent",
				"notification_id", n.ID.String())
			continue
		}

		stats.Processed++
		p.metrics.NotificationsSent.Inc()
	}

	return stats, nil
}

func (p *Processor) handleFailure(ctx context.Context, n *model.Notification, dispatchErr error, now time.Time, stats *CycleStats) {
	retryCount := n.RetryCount + 1

	if retryCount >= p.config.MaxRetries {
		if err := p.repo.MarkFailed(ctx, n.ID, retryCount, dispatchErr.Error()); err != nil {
			p.logger.Error(err, "failed to mark notification failed",
				"notification_id", n.ID.String())
			return
		}
		stats.Failed++
		p.metrics.NotificationsFailed.Inc()
		p.logger.Error(dispatchErr, "notification failed permanently",
			"notification_id", n.ID.String(),
			"retry_count", retryCount)
		return
	}

	nextAttempt := now.Add(p.config.RetryBackoff)
	if err := p.repo.MarkRetry(ctx, n.ID, retryCount, nextAttempt, dispatchErr.Error()); err != nil {
		p.logger.Error(err, "failed to reschedule notification",
			"notification_id", n.ID.String())
		return
	}
	p.metrics.NotificationsRetried.Inc()
	p.logger.Warn("notification dispatch failed, rescheduled",
		"notification_id", n.ID.String(),
		"retry_count", retryCount,
		"next_attempt", nextAttempt)
}
