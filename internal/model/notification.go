package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type NotificationStatus string

const (
	NotificationStatusPending    NotificationStatus = "pending"
	NotificationStatusProcessing NotificationStatus = "processing"
	NotificationStatusSent       NotificationStatus = "sent"
	NotificationStatusFailed     NotificationStatus = "failed"
)

const (
	ChannelDatabase = "database"
	ChannelEmail    = "email"
	ChannelPush     = "push"
)

// Notification is a durable delivery work item. A row with status pending
// whose scheduled_for has passed is due for dispatch; processing marks a
// record claimed by a running cycle until it is marked sent, rescheduled,
// or the claim lease expires.
type Notification struct {
	ID           uuid.UUID          `db:"id" json:"id"`
	RecipientID  uuid.UUID          `db:"recipient_id" json:"recipient_id"`
	Kind         string             `db:"kind" json:"kind"`
	Title        string             `db:"title" json:"title"`
	Body         string             `db:"body" json:"body"`
	EntityType   *string            `db:"entity_type" json:"entity_type,omitempty"`
	EntityID     *uuid.UUID         `db:"entity_id" json:"entity_id,omitempty"`
	ScheduledFor time.Time          `db:"scheduled_for" json:"scheduled_for"`
	Channels     pq.StringArray     `db:"channels" json:"channels"`
	Status       NotificationStatus `db:"status" json:"status"`
	RetryCount   int                `db:"retry_count" json:"retry_count"`
	LastError    *string            `db:"last_error" json:"last_error,omitempty"`
	DedupKey     *string            `db:"dedup_key" json:"-"`
	SentAt       *time.Time         `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt    time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `db:"updated_at" json:"updated_at"`
}

// HasChannel reports whether the notification requested the given channel.
func (n *Notification) HasChannel(channel string) bool {
	for _, c := range n.Channels {
		if c == channel {
			return true
		}
	}
	return false
}

// Recipient is the subset of the externally owned employees table this
// subsystem reads for delivery.
type Recipient struct {
	ID    uuid.UUID `db:"id"`
	Name  string    `db:"name"`
	Email string    `db:"email"`
}
