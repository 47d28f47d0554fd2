package tasks

import (
	"context"
	"errors"
	"strings"

	"github.com/taskboard/backend/internal/db"
)

// Task statuses. All transitions between them are allowed; the workflow
// order is not enforced.
const (
	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
)

var (
	ErrTitleRequired = errors.New("title is required")
	ErrInvalidStatus = errors.New("invalid status")
)

// TaskStore is the slice of the resource store the service needs.
// *db.TaskRepository satisfies it. Every method is owner-scoped; there
// is no way to reach another owner's rows through this interface.
type TaskStore interface {
	Create(ctx context.Context, task *db.Task) error
	ListByOwner(ctx context.Context, ownerID int64) ([]db.Task, error)
	GetByIDAndOwner(ctx context.Context, id, ownerID int64) (*db.Task, error)
	UpdateByIDAndOwner(ctx context.Context, task *db.Task) error
	DeleteByIDAndOwner(ctx context.Context, id, ownerID int64) error
}

type Service struct {
	store TaskStore
}

func NewService(store TaskStore) *Service {
	return &Service{store: store}
}

// List returns the owner's tasks, newest first. No tasks is an empty
// slice, not an error.
func (s *Service) List(ctx context.Context, ownerID int64) ([]db.Task, error) {
	return s.store.ListByOwner(ctx, ownerID)
}

// Get returns one task. A task owned by someone else reports not found,
// exactly like a task that does not exist.
func (s *Service) Get(ctx context.Context, id, ownerID int64) (*db.Task, error) {
	return s.store.GetByIDAndOwner(ctx, id, ownerID)
}

// Create validates the title and inserts a pending task for the owner.
func (s *Service) Create(ctx context.Context, ownerID int64, title, description string) (*db.Task, error) {
	if strings.TrimSpace(title) == "" {
		return nil, ErrTitleRequired
	}

	task := &db.Task{
		Title:       title,
		Description: description,
		UserID:      ownerID,
	}

	if err := s.store.Create(ctx, task); err != nil {
		return nil, err
	}

	return task, nil
}

// Update replaces title, description and status on the owner's task.
func (s *Service) Update(ctx context.Context, id, ownerID int64, title, description, status string) (*db.Task, error) {
	if strings.TrimSpace(title) == "" {
		return nil, ErrTitleRequired
	}
	if !ValidStatus(status) {
		return nil, ErrInvalidStatus
	}

	task := &db.Task{
		ID:          id,
		Title:       title,
		Description: description,
		Status:      status,
		UserID:      ownerID,
	}

	if err := s.store.UpdateByIDAndOwner(ctx, task); err != nil {
		return nil, err
	}

	return task, nil
}

// Delete removes the owner's task.
func (s *Service) Delete(ctx context.Context, id, ownerID int64) error {
	return s.store.DeleteByIDAndOwner(ctx, id, ownerID)
}

// ValidStatus reports whether status is one of the three known values.
func ValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}
