package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/notify-api/internal/model"
	"github.com/jwalitptl/notify-api/internal/repository"
)

type reminderRepository struct {
	*BaseRepository
}

func NewReminderRepository(base *BaseRepository) repository.ReminderRepository {
	return &reminderRepository{
		BaseRepository: base,
	}
}

// Upsert inserts a reminder or, on conflict with an existing
// (entity_type, entity_id) row, replaces its deadline and intervals and
// reactivates it.
func (r *reminderRepository) Upsert(ctx context.Context, reminder *model.DeadlineReminder) (uuid.UUID, error) {
	query := `
		INSERT INTO deadline_reminders (
			id, entity_type, entity_id, deadline, intervals,
			is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, true, $6, $7)
		ON CONFLICT (entity_type, entity_id) DO UPDATE
		SET deadline = EXCLUDED.deadline,
			intervals = EXCLUDED.intervals,
			is_active = true,
			updated_at = EXCLUDED.updated_at
		RETURNING id
	`
	if reminder.ID == uuid.Nil {
		reminder.ID = uuid.New()
	}
	reminder.CreatedAt = time.Now()
	reminder.UpdatedAt = time.Now()

	var id uuid.UUID
	err := r.db.QueryRowxContext(ctx, query,
		reminder.ID,
		reminder.EntityType,
		reminder.EntityID,
		reminder.Deadline,
		reminder.Intervals,
		reminder.CreatedAt,
		reminder.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to upsert reminder: %w", err)
	}

	reminder.ID = id
	return id, nil
}

func (r *reminderRepository) ListActiveUpcoming(ctx context.Context, now time.Time) ([]*model.DeadlineReminder, error) {
	query := `
		SELECT id, entity_type, entity_id, deadline, intervals,
			   is_active, created_at, updated_at
		FROM deadline_reminders
		WHERE is_active = true AND deadline > $1
		ORDER BY deadline ASC
	`
	var reminders []*model.DeadlineReminder
	err := r.db.SelectContext(ctx, &reminders, query, now)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming reminders: %w", err)
	}
	return reminders, nil
}

func (r *reminderRepository) Deactivate(ctx context.Context, entityType model.EntityType, entityID uuid.UUID) error {
	query := `
		UPDATE deadline_reminders
		SET is_active = false, updated_at = NOW()
		WHERE entity_type = $1 AND entity_id = $2
	`
	result, err := r.db.ExecContext(ctx, query, entityType, entityID)
	if err != nil {
		return fmt.Errorf("failed to deactivate reminder: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrReminderNotFound
	}
	return nil
}
