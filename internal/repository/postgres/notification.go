package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/notify-api/internal/model"
	"github.com/jwalitptl/notify-api/internal/repository"
)

type notificationRepository struct {
	*BaseRepository
}

func NewNotificationRepository(base *BaseRepository) repository.NotificationRepository {
	return &notificationRepository{
		BaseRepository: base,
	}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	query := `
		INSERT INTO scheduled_notifications (
			id, recipient_id, kind, title, body,
			entity_type, entity_id, scheduled_for, channels,
			status, retry_count, dedup_key, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	r.prepare(n)

	_, err := r.db.ExecContext(ctx, query,
		n.ID,
		n.RecipientID,
		n.Kind,
		n.Title,
		n.Body,
		n.EntityType,
		n.EntityID,
		n.ScheduledFor,
		n.Channels,
		n.Status,
		n.RetryCount,
		n.DedupKey,
		n.CreatedAt,
		n.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) CreateIfAbsent(ctx context.Context, n *model.Notification) (bool, error) {
	query := `
		INSERT INTO scheduled_notifications (
			id, recipient_id, kind, title, body,
			entity_type, entity_id, scheduled_for, channels,
			status, retry_count, dedup_key, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (dedup_key) WHERE dedup_key IS NOT NULL DO NOTHING
	`
	r.prepare(n)

	result, err := r.db.ExecContext(ctx, query,
		n.ID,
		n.RecipientID,
		n.Kind,
		n.Title,
		n.Body,
		n.EntityType,
		n.EntityID,
		n.ScheduledFor,
		n.Channels,
		n.Status,
		n.RetryCount,
		n.DedupKey,
		n.CreatedAt,
		n.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to create notification: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *notificationRepository) prepare(n *model.Notification) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.Status == "" {
		n.Status = model.NotificationStatusPending
	}
	if len(n.Channels) == 0 {
		n.Channels = []string{model.ChannelDatabase}
	}
	n.CreatedAt = time.Now()
	n.UpdatedAt = time.Now()
}

func (r *notificationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	query := `
		SELECT id, recipient_id, kind, title, body,
			   entity_type, entity_id, scheduled_for, channels,
			   status, retry_count, last_error, dedup_key, sent_at,
			   created_at, updated_at
		FROM scheduled_notifications
		WHERE id = $1
	`
	var n model.Notification
	err := r.db.GetContext(ctx, &n, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return &n, nil
}

// claimLease bounds how long a processing claim is honored. A cycle that
// dies mid-batch leaves its rows in processing; once the lease passes they
// become claimable again.
const claimLease = 10 * time.Minute

// ClaimDue selects due records FOR UPDATE SKIP LOCKED and flips them to
// processing in the same transaction. Overlapping cycles skip each other's
// locked rows during the claim, and the status flip keeps the batch
// invisible to them after the transaction commits. Row locks are held only
// for the claim, never across dispatch.
func (r *notificationRepository) ClaimDue(ctx context.Context, now time.Time, limit int) ([]*model.Notification, error) {
	selectQuery := `
		SELECT id
		FROM scheduled_notifications
		WHERE (status = $1 AND scheduled_for <= $2)
		   OR (status = $3 AND updated_at <= $4)
		ORDER BY scheduled_for ASC
		LIMIT $5
		FOR UPDATE SKIP LOCKED
	`
	claimQuery := `
		UPDATE scheduled_notifications
		SET status = $1, updated_at = NOW()
		WHERE id = ANY($2::uuid[])
		RETURNING id, recipient_id, kind, title, body,
			   entity_type, entity_id, scheduled_for, channels,
			   status, retry_count, last_error, dedup_key, sent_at,
			   created_at, updated_at
	`
	var claimed []*model.Notification
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		var ids []string
		if err := tx.SelectContext(ctx, &ids, selectQuery,
			model.NotificationStatusPending, now,
			model.NotificationStatusProcessing, now.Add(-claimLease),
			limit,
		); err != nil && err != sql.ErrNoRows {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		return tx.SelectContext(ctx, &claimed, claimQuery,
			model.NotificationStatusProcessing, pq.Array(ids))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to claim due notifications: %w", err)
	}

	sort.Slice(claimed, func(i, j int) bool {
		return claimed[i].ScheduledFor.Before(claimed[j].ScheduledFor)
	})
	return claimed, nil
}

func (r *notificationRepository) ListForRecipient(ctx context.Context, recipientID uuid.UUID, limit int) ([]*model.Notification, error) {
	query := `
		SELECT id, recipient_id, kind, title, body,
			   entity_type, entity_id, scheduled_for, channels,
			   status, retry_count, last_error, dedup_key, sent_at,
			   created_at, updated_at
		FROM scheduled_notifications
		WHERE recipient_id = $1
		ORDER BY scheduled_for DESC
		LIMIT $2
	`
	var notifications []*model.Notification
	err := r.db.SelectContext(ctx, &notifications, query, recipientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// MarkSent transitions a live record to sent. The status guard makes the
// call idempotent: applying it to a record already sent or failed affects
// zero rows and leaves sent_at alone.
func (r *notificationRepository) MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	query := `
		UPDATE scheduled_notifications
		SET status = $1, sent_at = $2, updated_at = NOW()
		WHERE id = $3 AND status IN ($4, $5)
	`
	_, err := r.db.ExecContext(ctx, query, model.NotificationStatusSent, sentAt, id,
		model.NotificationStatusPending, model.NotificationStatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to mark notification sent: %w", err)
	}
	return nil
}

// MarkRetry releases the claim: the record goes back to pending with an
// advanced retry counter and a fire time pushed past the backoff.
func (r *notificationRepository) MarkRetry(ctx context.Context, id uuid.UUID, retryCount int, nextScheduledFor time.Time, lastError string) error {
	query := `
		UPDATE scheduled_notifications
		SET status = $1, retry_count = $2, scheduled_for = $3, last_error = $4, updated_at = NOW()
		WHERE id = $5 AND status IN ($6, $7)
	`
	_, err := r.db.ExecContext(ctx, query, model.NotificationStatusPending, retryCount, nextScheduledFor, lastError, id,
		model.NotificationStatusPending, model.NotificationStatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to mark notification for retry: %w", err)
	}
	return nil
}

func (r *notificationRepository) MarkFailed(ctx context.Context, id uuid.UUID, retryCount int, lastError string) error {
	query := `
		UPDATE scheduled_notifications
		SET status = $1, retry_count = $2, last_error = $3, updated_at = NOW()
		WHERE id = $4 AND status IN ($5, $6)
	`
	_, err := r.db.ExecContext(ctx, query, model.NotificationStatusFailed, retryCount, lastError, id,
		model.NotificationStatusPending, model.NotificationStatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to mark notification failed: %w", err)
	}
	return nil
}
