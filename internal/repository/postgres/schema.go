package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Schema for the two tables this subsystem owns. Recipient tables
// (employees, test_assignments, course_enrollments, tasks) belong to the
// wider backend and are only read here.
const schema = `
CREATE TABLE IF NOT EXISTS scheduled_notifications (
    id UUID PRIMARY KEY,
    recipient_id UUID NOT NULL,
    kind VARCHAR(50) NOT NULL DEFAULT 'info',
    title VARCHAR(255) NOT NULL,
    body TEXT NOT NULL,
    entity_type VARCHAR(50),
    entity_id UUID,
    scheduled_for TIMESTAMPTZ NOT NULL,
    channels TEXT[] NOT NULL DEFAULT '{database}',
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    retry_count INT NOT NULL DEFAULT 0,
    last_error TEXT,
    dedup_key VARCHAR(64),
    sent_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_scheduled_notifications_due
    ON scheduled_notifications(scheduled_for) WHERE status IN ('pending', 'processing');

CREATE INDEX IF NOT EXISTS idx_scheduled_notifications_recipient
    ON scheduled_notifications(recipient_id);

CREATE UNIQUE INDEX IF NOT EXISTS idx_scheduled_notifications_dedup
    ON scheduled_notifications(dedup_key) WHERE dedup_key IS NOT NULL;

CREATE TABLE IF NOT EXISTS deadline_reminders (
    id UUID PRIMARY KEY,
    entity_type VARCHAR(50) NOT NULL,
    entity_id UUID NOT NULL,
    deadline TIMESTAMPTZ NOT NULL,
    intervals BIGINT[] NOT NULL DEFAULT '{86400,3600,0}',
    is_active BOOLEAN NOT NULL DEFAULT true,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (entity_type, entity_id)
);

CREATE INDEX IF NOT EXISTS idx_deadline_reminders_upcoming
    ON deadline_reminders(deadline) WHERE is_active = true;
`

// InitSchema applies the schema at startup. All statements are idempotent.
func InitSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
