package scheduler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/notify-api/internal/model"
)

func activeReminder(repo *fakeReminderRepo, entityType model.EntityType, entityID uuid.UUID, deadline time.Time, intervals []int64) {
	_, _ = repo.Upsert(context.Background(), &model.DeadlineReminder{
		EntityType: entityType,
		EntityID:   entityID,
		Deadline:   deadline,
		Intervals:  intervals,
		IsActive:   true,
	})
}

func TestExpanderMaterializesFutureIntervals(t *testing.T) {
	reminders := newFakeReminderRepo()
	notifications := newFakeNotificationRepo()
	recipients := newFakeRecipientRepo()

	now := time.Now()
	deadline := now.Add(2 * time.Hour)
	testID := uuid.New()
	employee := &model.Recipient{ID: uuid.New(), Name: "Ivan", Email: "ivan@example.com"}
	recipients.assignees[testID] = []*model.Recipient{employee}

	// Both the 1h lead and the at-deadline fire times are still ahead.
	activeReminder(reminders, model.EntityTypeTest, testID, deadline, []int64{3600, 0})

	stats, err := newExpander(reminders, notifications, recipients).Run(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, ExpansionStats{RemindersChecked: 1, NotificationsCreated: 2}, stats)

	created, err := notifications.ListForRecipient(context.Background(), employee.ID, 10)
	require.NoError(t, err)
	require.Len(t, created, 2)

	var fireTimes []time.Time
	for _, n := range created {
		fireTimes = append(fireTimes, n.ScheduledFor)
		assert.Equal(t, "deadline", n.Kind)
		assert.ElementsMatch(t, []string{model.ChannelDatabase, model.ChannelPush, model.ChannelEmail}, []string(n.Channels))
		require.NotNil(t, n.EntityType)
		assert.Equal(t, "test", *n.EntityType)
		assert.True(t, n.ScheduledFor.After(now), "expansion must never create already-due records")
	}
	assert.ElementsMatch(t, []time.Time{deadline, deadline.Add(-time.Hour)}, fireTimes)
}

func TestExpanderDropsElapsedIntervals(t *testing.T) {
	reminders := newFakeReminderRepo()
	notifications := newFakeNotificationRepo()
	recipients := newFakeRecipientRepo()

	now := time.Now()
	taskID := uuid.New()
	recipients.taskOwner[taskID] = &model.Recipient{ID: uuid.New(), Email: "a@example.com"}

	// Deadline in 30 minutes: the 24h and 1h leads already elapsed and are
	// dropped, never fired late. Only the at-deadline interval remains.
	activeReminder(reminders, model.EntityTypeTask, taskID, now.Add(30*time.Minute), []int64{86400, 3600, 0})

	stats, err := newExpander(reminders, notifications, recipients).Run(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, ExpansionStats{RemindersChecked: 1, NotificationsCreated: 1}, stats)
}

func TestExpanderSkipsPassedDeadlines(t *testing.T) {
	reminders := newFakeReminderRepo()
	notifications := newFakeNotificationRepo()
	recipients := newFakeRecipientRepo()

	now := time.Now()
	taskID := uuid.New()
	recipients.taskOwner[taskID] = &model.Recipient{ID: uuid.New(), Email: "a@example.com"}
	activeReminder(reminders, model.EntityTypeTask, taskID, now.Add(-time.Minute), []int64{0})

	stats, err := newExpander(reminders, notifications, recipients).Run(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, ExpansionStats{}, stats)
}

func TestExpanderIsIdempotentAcrossRuns(t *testing.T) {
	reminders := newFakeReminderRepo()
	notifications := newFakeNotificationRepo()
	recipients := newFakeRecipientRepo()

	now := time.Now()
	courseID := uuid.New()
	recipients.enrollees[courseID] = []*model.Recipient{
		{ID: uuid.New(), Email: "a@example.com"},
		{ID: uuid.New(), Email: "b@example.com"},
	}
	activeReminder(reminders, model.EntityTypeCourse, courseID, now.Add(48*time.Hour), []int64{86400, 3600})

	e := newExpander(reminders, notifications, recipients)

	stats, err := e.Run(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.NotificationsCreated) // 2 recipients x 2 intervals

	// Overlapping run: the dedup keys suppress every insert.
	stats, err = e.Run(context.Background(), now.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.RemindersChecked)
	assert.Equal(t, 0, stats.NotificationsCreated)
}

func TestExpanderSkipsUnknownEntityType(t *testing.T) {
	reminders := newFakeReminderRepo()
	notifications := newFakeNotificationRepo()
	recipients := newFakeRecipientRepo()

	now := time.Now()
	// Forced past the service-level validation, as a row written by an
	// older deployment might be.
	activeReminder(reminders, model.EntityType("meeting"), uuid.New(), now.Add(time.Hour), []int64{0})

	stats, err := newExpander(reminders, notifications, recipients).Run(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, ExpansionStats{RemindersChecked: 1, NotificationsCreated: 0}, stats)
}

func TestExpanderResolutionFailureSkipsOnlyThatReminder(t *testing.T) {
	reminders := newFakeReminderRepo()
	notifications := newFakeNotificationRepo()
	recipients := newFakeRecipientRepo()

	now := time.Now()
	brokenTaskID := uuid.New() // no assignee configured -> resolution fails
	courseID := uuid.New()
	recipients.enrollees[courseID] = []*model.Recipient{{ID: uuid.New(), Email: "a@example.com"}}

	activeReminder(reminders, model.EntityTypeTask, brokenTaskID, now.Add(time.Hour), []int64{0})
	activeReminder(reminders, model.EntityTypeCourse, courseID, now.Add(2*time.Hour), []int64{0})

	stats, err := newExpander(reminders, notifications, recipients).Run(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, ExpansionStats{RemindersChecked: 2, NotificationsCreated: 1}, stats)
}

func TestExpanderFetchErrorAbortsCycle(t *testing.T) {
	reminders := newFakeReminderRepo()
	reminders.listErr = fmt.Errorf("connection refused")

	_, err := newExpander(reminders, newFakeNotificationRepo(), newFakeRecipientRepo()).Run(context.Background(), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list reminders")
}
