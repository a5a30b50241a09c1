package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/notify-api/internal/model"
	"github.com/jwalitptl/notify-api/internal/repository"
	apperrors "github.com/jwalitptl/notify-api/pkg/errors"
	"github.com/jwalitptl/notify-api/pkg/logger"
)

// ProcessResult is the combined cycle report returned to the caller.
type ProcessResult struct {
	Scheduled CycleStats     `json:"scheduled"`
	Deadlines ExpansionStats `json:"deadlines"`
}

// Service is the subsystem's entry point: direct scheduling, reminder
// upserts, and the combined processing cycle.
type Service struct {
	notifications repository.NotificationRepository
	reminders     repository.ReminderRepository
	processor     *Processor
	expander      *Expander
	logger        *logger.Logger
}

func NewService(
	notifications repository.NotificationRepository,
	reminders repository.ReminderRepository,
	processor *Processor,
	expander *Expander,
	logger *logger.Logger,
) *Service {
	return &Service{
		notifications: notifications,
		reminders:     reminders,
		processor:     processor,
		expander:      expander,
		logger:        logger,
	}
}

// ProcessDue runs one full cycle: drain due notifications first, then
// expand reminders into new work for the next cycle. Only a failed batch
// fetch surfaces as an error; per-record failures are already counted.
func (s *Service) ProcessDue(ctx context.Context, now time.Time) (*ProcessResult, error) {
	scheduled, err := s.processor.Run(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("scheduled notification cycle: %w", err)
	}

	deadlines, err := s.expander.Run(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("deadline expansion cycle: %w", err)
	}

	s.logger.Info("processing cycle complete",
		"processed", scheduled.Processed,
		"failed", scheduled.Failed,
		"total", scheduled.Total,
		"reminders_checked", deadlines.RemindersChecked,
		"notifications_created", deadlines.NotificationsCreated)

	return &ProcessResult{Scheduled: scheduled, Deadlines: deadlines}, nil
}

// ScheduleNotification persists a one-off notification for future delivery.
func (s *Service) ScheduleNotification(ctx context.Context, req *model.ScheduleNotificationRequest) (*model.Notification, error) {
	if err := validateScheduleRequest(req); err != nil {
		return nil, apperrors.BadRequest("invalid notification", err)
	}

	kind := req.Kind
	if kind == "" {
		kind = "info"
	}
	channels := req.Channels
	if len(channels) == 0 {
		channels = []string{model.ChannelDatabase}
	}

	n := &model.Notification{
		ID:           uuid.New(),
		RecipientID:  req.RecipientID,
		Kind:         kind,
		Title:        req.Title,
		Body:         req.Body,
		EntityType:   req.EntityType,
		EntityID:     req.EntityID,
		ScheduledFor: req.ScheduledFor,
		Channels:     channels,
		Status:       model.NotificationStatusPending,
	}

	if err := s.notifications.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	return n, nil
}

// SetDeadlineReminder upserts the reminder for (entityType, entityID). A
// second call replaces the deadline and intervals and reactivates the row.
// Omitted intervals default to a day, an hour, and the deadline itself.
func (s *Service) SetDeadlineReminder(ctx context.Context, req *model.SetReminderRequest) (uuid.UUID, error) {
	entityType, err := model.ParseEntityType(req.EntityType)
	if err != nil {
		return uuid.Nil, apperrors.BadRequest("invalid reminder", err)
	}
	if req.EntityID == uuid.Nil {
		return uuid.Nil, apperrors.BadRequest("invalid reminder", fmt.Errorf("entity ID is required"))
	}
	if req.Deadline.IsZero() {
		return uuid.Nil, apperrors.BadRequest("invalid reminder", fmt.Errorf("deadline is required"))
	}

	intervals := req.Intervals
	if len(intervals) == 0 {
		intervals = model.DefaultReminderIntervals
	}
	for _, interval := range intervals {
		if interval < 0 {
			return uuid.Nil, apperrors.BadRequest("invalid reminder", fmt.Errorf("negative interval %d", interval))
		}
	}

	reminder := &model.DeadlineReminder{
		EntityType: entityType,
		EntityID:   req.EntityID,
		Deadline:   req.Deadline,
		Intervals:  intervals,
		IsActive:   true,
	}

	id, err := s.reminders.Upsert(ctx, reminder)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to set reminder: %w", err)
	}
	return id, nil
}

// DeactivateReminder stops future expansion without deleting history.
func (s *Service) DeactivateReminder(ctx context.Context, entityTypeTag string, entityID uuid.UUID) error {
	entityType, err := model.ParseEntityType(entityTypeTag)
	if err != nil {
		return apperrors.BadRequest("invalid reminder", err)
	}
	if err := s.reminders.Deactivate(ctx, entityType, entityID); err != nil {
		if errors.Is(err, repository.ErrReminderNotFound) {
			return apperrors.NotFound("reminder", err)
		}
		return fmt.Errorf("failed to deactivate reminder: %w", err)
	}
	return nil
}

// ListNotifications returns recent notifications for one recipient.
func (s *Service) ListNotifications(ctx context.Context, recipientID uuid.UUID, limit int) ([]*model.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.notifications.ListForRecipient(ctx, recipientID, limit)
}

func validateScheduleRequest(req *model.ScheduleNotificationRequest) error {
	if req.RecipientID == uuid.Nil {
		return fmt.Errorf("recipient ID is required")
	}
	if req.Title == "" {
		return fmt.Errorf("title is required")
	}
	if req.Body == "" {
		return fmt.Errorf("body is required")
	}
	if req.ScheduledFor.IsZero() {
		return fmt.Errorf("scheduled time is required")
	}
	if (req.EntityType == nil) != (req.EntityID == nil) {
		return fmt.Errorf("entity type and entity ID must be set together")
	}
	return nil
}
