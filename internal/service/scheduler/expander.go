package scheduler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwalitptl/notify-api/internal/model"
	"github.com/jwalitptl/notify-api/internal/repository"
	"github.com/jwalitptl/notify-api/pkg/logger"
	"github.com/jwalitptl/notify-api/pkg/metrics"
)

// ExpansionStats reports one expander invocation.
type ExpansionStats struct {
	RemindersChecked     int `json:"reminders_checked"`
	NotificationsCreated int `json:"notifications_created"`
}

// Expander turns active deadline reminders into concrete notification
// records, one per (recipient, lead interval) whose fire time is still in
// the future. Lead times that have already elapsed when the expander runs
// are dropped, never fired late.
type Expander struct {
	reminders     repository.ReminderRepository
	notifications repository.NotificationRepository
	recipients    repository.RecipientRepository
	messages      messageBuilder
	logger        *logger.Logger
	metrics       *metrics.Metrics
}

func NewExpander(
	reminders repository.ReminderRepository,
	notifications repository.NotificationRepository,
	recipients repository.RecipientRepository,
	locale string,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Expander {
	return &Expander{
		reminders:     reminders,
		notifications: notifications,
		recipients:    recipients,
		messages:      newMessageBuilder(locale),
		logger:        logger,
		metrics:       metrics,
	}
}

// Run expands every active, not-yet-passed reminder. A reminder whose
// recipients cannot be resolved is skipped; only a failure of the initial
// reminder fetch aborts the cycle.
func (e *Expander) Run(ctx context.Context, now time.Time) (ExpansionStats, error) {
	timer := prometheus.NewTimer(e.metrics.ExpansionLatency)
	defer timer.ObserveDuration()

	var stats ExpansionStats

	reminders, err := e.reminders.ListActiveUpcoming(ctx, now)
	if err != nil {
		e.metrics.DatabaseOperations.WithLabelValues("list_reminders", "error").Inc()
		return stats, fmt.Errorf("failed to list reminders: %w", err)
	}
	e.metrics.DatabaseOperations.WithLabelValues("list_reminders", "success").Inc()

	for _, reminder := range reminders {
		stats.RemindersChecked++
		e.metrics.RemindersChecked.Inc()

		created, err := e.expand(ctx, reminder, now)
		if err != nil {
			e.logger.Error(err, "skipping reminder",
				"reminder_id", reminder.ID.String(),
				"entity_type", string(reminder.EntityType))
			continue
		}
		stats.NotificationsCreated += created
	}

	return stats, nil
}

func (e *Expander) expand(ctx context.Context, reminder *model.DeadlineReminder, now time.Time) (int, error) {
	recipients, err := e.resolveRecipients(ctx, reminder)
	if err != nil {
		return 0, err
	}

	created := 0
	entityType := string(reminder.EntityType)

	for _, interval := range reminder.Intervals {
		fireAt := reminder.Deadline.Add(-time.Duration(interval) * time.Second)
		if !fireAt.After(now) {
			continue
		}

		title, body := e.messages.build(reminder.EntityType, interval)

		for _, recipient := range recipients {
			dedupKey := reminderDedupKey(reminder, recipient.ID, interval)
			entityID := reminder.EntityID
			n := &model.Notification{
				RecipientID:  recipient.ID,
				Kind:         "deadline",
				Title:        title,
				Body:         body,
				EntityType:   &entityType,
				EntityID:     &entityID,
				ScheduledFor: fireAt,
				Channels:     []string{model.ChannelDatabase, model.ChannelPush, model.ChannelEmail},
				DedupKey:     &dedupKey,
			}

			inserted, err := e.notifications.CreateIfAbsent(ctx, n)
			if err != nil {
				e.logger.Error(err, "failed to materialize reminder notification",
					"reminder_id", reminder.ID.String(),
					"recipient_id", recipient.ID.String())
				continue
			}
			if inserted {
				created++
				e.metrics.NotificationsCreated.Inc()
			}
		}
	}

	return created, nil
}

// resolveRecipients is the closed entity-type switch: one resolver per
// supported type. Anything else skips the reminder.
func (e *Expander) resolveRecipients(ctx context.Context, reminder *model.DeadlineReminder) ([]*model.Recipient, error) {
	switch reminder.EntityType {
	case model.EntityTypeTest:
		return e.recipients.ListTestAssignees(ctx, reminder.EntityID)
	case model.EntityTypeCourse:
		return e.recipients.ListCourseEnrollees(ctx, reminder.EntityID)
	case model.EntityTypeTask:
		assignee, err := e.recipients.GetTaskAssignee(ctx, reminder.EntityID)
		if err != nil {
			return nil, err
		}
		return []*model.Recipient{assignee}, nil
	default:
		return nil, fmt.Errorf("unsupported entity type: %q", reminder.EntityType)
	}
}

// reminderDedupKey ties a materialized notification back to its
// (entity, recipient, interval) origin so overlapping expansion runs
// cannot insert the same notification twice.
func reminderDedupKey(reminder *model.DeadlineReminder, recipientID uuid.UUID, interval int64) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%s:%d",
		reminder.EntityType, reminder.EntityID, recipientID.String(), interval)))
	return hex.EncodeToString(sum[:])
}
