package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type EntityType string

const (
	EntityTypeTest   EntityType = "test"
	EntityTypeCourse EntityType = "course"
	EntityTypeTask   EntityType = "task"
)

// ParseEntityType validates an entity type tag coming in over the wire.
func ParseEntityType(s string) (EntityType, error) {
	switch EntityType(s) {
	case EntityTypeTest, EntityTypeCourse, EntityTypeTask:
		return EntityType(s), nil
	}
	return "", fmt.Errorf("unknown entity type: %q", s)
}

// DeadlineReminder is a deadline subscription. One row per
// (entity_type, entity_id); upserts replace deadline and intervals.
type DeadlineReminder struct {
	ID         uuid.UUID     `db:"id" json:"id"`
	EntityType EntityType    `db:"entity_type" json:"entity_type"`
	EntityID   uuid.UUID     `db:"entity_id" json:"entity_id"`
	Deadline   time.Time     `db:"deadline" json:"deadline"`
	Intervals  pq.Int64Array `db:"intervals" json:"intervals"`
	IsActive   bool          `db:"is_active" json:"is_active"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time     `db:"updated_at" json:"updated_at"`
}

// DefaultReminderIntervals is used when an upsert omits intervals:
// a day before, an hour before, and at the deadline itself.
var DefaultReminderIntervals = []int64{86400, 3600, 0}
