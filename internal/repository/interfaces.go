package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/notify-api/internal/model"
)

// ErrReminderNotFound reports a deactivation against an entity that has no
// reminder row.
var ErrReminderNotFound = errors.New("reminder not found")

// All repository interfaces in one file
type (
	// NotificationRepository is the notification record store. Mutations are
	// single-row and conditional on status, so applying them twice is a no-op.
	NotificationRepository interface {
		Create(ctx context.Context, n *model.Notification) error
		// CreateIfAbsent inserts unless a row with the same dedup key already
		// exists; it reports whether a row was created.
		CreateIfAbsent(ctx context.Context, n *model.Notification) (bool, error)
		Get(ctx context.Context, id uuid.UUID) (*model.Notification, error)
		// ClaimDue atomically moves up to limit due records from pending to
		// processing and returns them. A claimed record stays invisible to
		// other cycles until a mark resolves it or its claim lease expires.
		ClaimDue(ctx context.Context, now time.Time, limit int) ([]*model.Notification, error)
		ListForRecipient(ctx context.Context, recipientID uuid.UUID, limit int) ([]*model.Notification, error)
		MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error
		MarkRetry(ctx context.Context, id uuid.UUID, retryCount int, nextScheduledFor time.Time, lastError string) error
		MarkFailed(ctx context.Context, id uuid.UUID, retryCount int, lastError string) error
	}

	// ReminderRepository is the deadline reminder store.
	ReminderRepository interface {
		Upsert(ctx context.Context, r *model.DeadlineReminder) (uuid.UUID, error)
		ListActiveUpcoming(ctx context.Context, now time.Time) ([]*model.DeadlineReminder, error)
		Deactivate(ctx context.Context, entityType model.EntityType, entityID uuid.UUID) error
	}

	// RecipientRepository resolves who should hear about an entity's deadline.
	// The tables behind it are owned by the wider backend, read-only here.
	RecipientRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Recipient, error)
		ListTestAssignees(ctx context.Context, testID uuid.UUID) ([]*model.Recipient, error)
		ListCourseEnrollees(ctx context.Context, courseID uuid.UUID) ([]*model.Recipient, error)
		GetTaskAssignee(ctx context.Context, taskID uuid.UUID) (*model.Recipient, error)
	}
)
