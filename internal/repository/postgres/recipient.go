package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/notify-api/internal/model"
	"github.com/jwalitptl/notify-api/internal/repository"
)

// recipientRepository reads the employee-facing tables owned by the wider
// backend. No writes happen here.
type recipientRepository struct {
	*BaseRepository
}

func NewRecipientRepository(base *BaseRepository) repository.RecipientRepository {
	return &recipientRepository{
		BaseRepository: base,
	}
}

func (r *recipientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Recipient, error) {
	query := `
		SELECT id, name, email
		FROM employees
		WHERE id = $1
	`
	var recipient model.Recipient
	err := r.db.GetContext(ctx, &recipient, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipient: %w", err)
	}
	return &recipient, nil
}

// ListTestAssignees returns employees with an open assignment of the test.
func (r *recipientRepository) ListTestAssignees(ctx context.Context, testID uuid.UUID) ([]*model.Recipient, error) {
	query := `
		SELECT e.id, e.name, e.email
		FROM employees e
		JOIN test_assignments ta ON ta.employee_id = e.id
		WHERE ta.test_id = $1 AND ta.completed_at IS NULL
	`
	var recipients []*model.Recipient
	err := r.db.SelectContext(ctx, &recipients, query, testID)
	if err != nil {
		return nil, fmt.Errorf("failed to list test assignees: %w", err)
	}
	return recipients, nil
}

// ListCourseEnrollees returns employees actively enrolled in the course.
func (r *recipientRepository) ListCourseEnrollees(ctx context.Context, courseID uuid.UUID) ([]*model.Recipient, error) {
	query := `
		SELECT e.id, e.name, e.email
		FROM employees e
		JOIN course_enrollments ce ON ce.employee_id = e.id
		WHERE ce.course_id = $1 AND ce.status = 'active'
	`
	var recipients []*model.Recipient
	err := r.db.SelectContext(ctx, &recipients, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list course enrollees: %w", err)
	}
	return recipients, nil
}

// GetTaskAssignee returns the single employee the task is assigned to.
func (r *recipientRepository) GetTaskAssignee(ctx context.Context, taskID uuid.UUID) (*model.Recipient, error) {
	query := `
		SELECT e.id, e.name, e.email
		FROM employees e
		JOIN tasks t ON t.assignee_id = e.id
		WHERE t.id = $1
	`
	var recipient model.Recipient
	err := r.db.GetContext(ctx, &recipient, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task assignee: %w", err)
	}
	return &recipient, nil
}
