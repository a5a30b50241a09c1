package model

import (
	"time"

	"github.com/google/uuid"
)

type ScheduleNotificationRequest struct {
	RecipientID  uuid.UUID  `json:"recipient_id" binding:"required"`
	Kind         string     `json:"kind"`
	Title        string     `json:"title" binding:"required"`
	Body         string     `json:"body" binding:"required"`
	EntityType   *string    `json:"entity_type,omitempty"`
	EntityID     *uuid.UUID `json:"entity_id,omitempty"`
	ScheduledFor time.Time  `json:"scheduled_for" binding:"required"`
	Channels     []string   `json:"channels"`
}

type SetReminderRequest struct {
	EntityType string    `json:"entity_type" binding:"required,entity_type"`
	EntityID   uuid.UUID `json:"entity_id" binding:"required"`
	Deadline   time.Time `json:"deadline" binding:"required"`
	Intervals  []int64   `json:"intervals"`
}
