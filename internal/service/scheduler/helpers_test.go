package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/notify-api/internal/model"
	"github.com/jwalitptl/notify-api/internal/repository"
	"github.com/jwalitptl/notify-api/pkg/logger"
	"github.com/jwalitptl/notify-api/pkg/metrics"
)

// Shared across the package's tests: prometheus collectors register
// globally, so they are created exactly once per test binary.
var (
	testMetrics = metrics.New("scheduler_test")
	testLogger  = logger.NewLogger(nil)
)

type fakeNotificationRepo struct {
	mu        sync.Mutex
	records   map[uuid.UUID]*model.Notification
	dedup     map[string]uuid.UUID
	claimErr  error
	createErr error
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{
		records: make(map[uuid.UUID]*model.Notification),
		dedup:   make(map[string]uuid.UUID),
	}
}

func (f *fakeNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.store(n)
	return nil
}

func (f *fakeNotificationRepo) CreateIfAbsent(_ context.Context, n *model.Notification) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return false, f.createErr
	}
	if n.DedupKey != nil {
		if _, exists := f.dedup[*n.DedupKey]; exists {
			return false, nil
		}
	}
	f.store(n)
	if n.DedupKey != nil {
		f.dedup[*n.DedupKey] = n.ID
	}
	return true, nil
}

func (f *fakeNotificationRepo) store(n *model.Notification) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.Status == "" {
		n.Status = model.NotificationStatusPending
	}
	cp := *n
	f.records[n.ID] = &cp
}

func (f *fakeNotificationRepo) Get(_ context.Context, id uuid.UUID) (*model.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.records[id]
	if !ok {
		return nil, fmt.Errorf("notification not found")
	}
	cp := *n
	return &cp, nil
}

// ClaimDue mirrors the store's semantics: claimed records flip to
// processing and stay invisible to later claims until a mark resolves them.
func (f *fakeNotificationRepo) ClaimDue(_ context.Context, now time.Time, limit int) ([]*model.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.claimErr != nil {
		return nil, f.claimErr
	}
	var due []*model.Notification
	for _, n := range f.records {
		if n.Status == model.NotificationStatusPending && !n.ScheduledFor.After(now) {
			due = append(due, n)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ScheduledFor.Before(due[j].ScheduledFor) })
	if len(due) > limit {
		due = due[:limit]
	}
	claimed := make([]*model.Notification, 0, len(due))
	for _, n := range due {
		n.Status = model.NotificationStatusProcessing
		cp := *n
		claimed = append(claimed, &cp)
	}
	return claimed, nil
}

func (f *fakeNotificationRepo) ListForRecipient(_ context.Context, recipientID uuid.UUID, limit int) ([]*model.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Notification
	for _, n := range f.records {
		if n.RecipientID == recipientID {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledFor.After(out[j].ScheduledFor) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeNotificationRepo) MarkSent(_ context.Context, id uuid.UUID, sentAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.records[id]
	if !ok || terminal(n.Status) {
		return nil
	}
	n.Status = model.NotificationStatusSent
	n.SentAt = &sentAt
	return nil
}

func (f *fakeNotificationRepo) MarkRetry(_ context.Context, id uuid.UUID, retryCount int, nextScheduledFor time.Time, lastError string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.records[id]
	if !ok || terminal(n.Status) {
		return nil
	}
	n.Status = model.NotificationStatusPending
	n.RetryCount = retryCount
	n.ScheduledFor = nextScheduledFor
	n.LastError = &lastError
	return nil
}

func (f *fakeNotificationRepo) MarkFailed(_ context.Context, id uuid.UUID, retryCount int, lastError string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.records[id]
	if !ok || terminal(n.Status) {
		return nil
	}
	n.Status = model.NotificationStatusFailed
	n.RetryCount = retryCount
	n.LastError = &lastError
	return nil
}

func terminal(s model.NotificationStatus) bool {
	return s == model.NotificationStatusSent || s == model.NotificationStatusFailed
}

type reminderKey struct {
	entityType model.EntityType
	entityID   uuid.UUID
}

type fakeReminderRepo struct {
	mu        sync.Mutex
	reminders map[reminderKey]*model.DeadlineReminder
	listErr   error
}

func newFakeReminderRepo() *fakeReminderRepo {
	return &fakeReminderRepo{reminders: make(map[reminderKey]*model.DeadlineReminder)}
}

func (f *fakeReminderRepo) Upsert(_ context.Context, r *model.DeadlineReminder) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := reminderKey{r.EntityType, r.EntityID}
	if existing, ok := f.reminders[key]; ok {
		existing.Deadline = r.Deadline
		existing.Intervals = r.Intervals
		existing.IsActive = true
		return existing.ID, nil
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	cp := *r
	f.reminders[key] = &cp
	return r.ID, nil
}

func (f *fakeReminderRepo) ListActiveUpcoming(_ context.Context, now time.Time) ([]*model.DeadlineReminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*model.DeadlineReminder
	for _, r := range f.reminders {
		if r.IsActive && r.Deadline.After(now) {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Deadline.Before(out[j].Deadline) })
	return out, nil
}

func (f *fakeReminderRepo) Deactivate(_ context.Context, entityType model.EntityType, entityID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reminders[reminderKey{entityType, entityID}]
	if !ok {
		return repository.ErrReminderNotFound
	}
	r.IsActive = false
	return nil
}

func (f *fakeReminderRepo) get(entityType model.EntityType, entityID uuid.UUID) *model.DeadlineReminder {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reminders[reminderKey{entityType, entityID}]
}

func (f *fakeReminderRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reminders)
}

type fakeRecipientRepo struct {
	assignees map[uuid.UUID][]*model.Recipient // test id -> assignees
	enrollees map[uuid.UUID][]*model.Recipient // course id -> enrollees
	taskOwner map[uuid.UUID]*model.Recipient   // task id -> assignee
	err       error
}

func newFakeRecipientRepo() *fakeRecipientRepo {
	return &fakeRecipientRepo{
		assignees: make(map[uuid.UUID][]*model.Recipient),
		enrollees: make(map[uuid.UUID][]*model.Recipient),
		taskOwner: make(map[uuid.UUID]*model.Recipient),
	}
}

func (f *fakeRecipientRepo) Get(_ context.Context, id uuid.UUID) (*model.Recipient, error) {
	return &model.Recipient{ID: id, Email: "employee@example.com"}, nil
}

func (f *fakeRecipientRepo) ListTestAssignees(_ context.Context, testID uuid.UUID) ([]*model.Recipient, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.assignees[testID], nil
}

func (f *fakeRecipientRepo) ListCourseEnrollees(_ context.Context, courseID uuid.UUID) ([]*model.Recipient, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.enrollees[courseID], nil
}

func (f *fakeRecipientRepo) GetTaskAssignee(_ context.Context, taskID uuid.UUID) (*model.Recipient, error) {
	if f.err != nil {
		return nil, f.err
	}
	owner, ok := f.taskOwner[taskID]
	if !ok {
		return nil, fmt.Errorf("task assignee not found")
	}
	return owner, nil
}

// fakeDispatcher fails the first failures dispatches, then succeeds.
type fakeDispatcher struct {
	mu       sync.Mutex
	failures int
	calls    int
	err      error
}

func (f *fakeDispatcher) Dispatch(_ context.Context, _ *model.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failures > 0 {
		f.failures--
		if f.err != nil {
			return f.err
		}
		return fmt.Errorf("dispatch failed")
	}
	return nil
}

func newProcessor(repo *fakeNotificationRepo, d Dispatcher) *Processor {
	return NewProcessor(repo, d, ProcessorConfig{
		BatchSize:    100,
		MaxRetries:   3,
		RetryBackoff: 5 * time.Minute,
	}, testLogger, testMetrics)
}

func newExpander(reminders *fakeReminderRepo, notifications *fakeNotificationRepo, recipients *fakeRecipientRepo) *Expander {
	return NewExpander(reminders, notifications, recipients, "ru", testLogger, testMetrics)
}
