package db

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrTaskNotFound covers both a missing row and a row owned by someone
// else. The two cases are deliberately indistinguishable to callers.
var ErrTaskNotFound = errors.New("task not found")

type Task struct {
	ID          int64
	Title       string
	Description string
	Status      string
	UserID      int64
	CreatedAt   time.Time
}

type TaskRepository struct {
	db *DB
}

func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts a new task and fills in the server-assigned id, status
// and creation timestamp.
func (r *TaskRepository) Create(ctx context.Context, task *Task) error {
	ctx, cancel := r.db.opContext(ctx)
	defer cancel()

	query := `
		INSERT INTO tasks (title, description, user_id)
		VALUES ($1, $2, $3)
		RETURNING id, status, created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		task.Title, task.Description, task.UserID,
	).Scan(&task.ID, &task.Status, &task.CreatedAt)

	return mapError(err)
}

// ListByOwner returns the owner's tasks, newest first. An owner with no
// tasks gets an empty slice, not an error.
func (r *TaskRepository) ListByOwner(ctx context.Context, ownerID int64) ([]Task, error) {
	ctx, cancel := r.db.opContext(ctx)
	defer cancel()

	query := `
		SELECT id, title, description, status, user_id, created_at
		FROM tasks
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	tasks := []Task{}
	for rows.Next() {
		var t Task
		var description sql.NullString
		err := rows.Scan(&t.ID, &t.Title, &description, &t.Status, &t.UserID, &t.CreatedAt)
		if err != nil {
			return nil, mapError(err)
		}
		t.Description = description.String
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return tasks, nil
}

// GetByIDAndOwner retrieves one task scoped to its owner.
func (r *TaskRepository) GetByIDAndOwner(ctx context.Context, id, ownerID int64) (*Task, error) {
	ctx, cancel := r.db.opContext(ctx)
	defer cancel()

	query := `
		SELECT id, title, description, status, user_id, created_at
		FROM tasks
		WHERE id = $1 AND user_id = $2
	`

	var t Task
	var description sql.NullString
	err := r.db.QueryRowContext(ctx, query, id, ownerID).Scan(
		&t.ID, &t.Title, &description, &t.Status, &t.UserID, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, mapError(err)
	}
	t.Description = description.String

	return &t, nil
}

// UpdateByIDAndOwner applies the new field values to the owner's row.
// The ownership check and the mutation are a single statement, so they
// cannot observe different rows. Concurrent updates to the same task
// are last-writer-wins; there is no version column.
func (r *TaskRepository) UpdateByIDAndOwner(ctx context.Context, task *Task) error {
	ctx, cancel := r.db.opContext(ctx)
	defer cancel()

	query := `
		UPDATE tasks
		SET title = $1, description = $2, status = $3
		WHERE id = $4 AND user_id = $5
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		task.Title, task.Description, task.Status, task.ID, task.UserID,
	).Scan(&task.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTaskNotFound
		}
		return mapError(err)
	}

	return nil
}

// DeleteByIDAndOwner deletes the owner's row; deleting nothing reports
// not found.
func (r *TaskRepository) DeleteByIDAndOwner(ctx context.Context, id, ownerID int64) error {
	ctx, cancel := r.db.opContext(ctx)
	defer cancel()

	query := `DELETE FROM tasks WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return mapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrTaskNotFound
	}

	return nil
}
