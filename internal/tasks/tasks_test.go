package tasks

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/taskboard/backend/internal/db"
)

// fakeTaskStore mimics the repository's behavior in memory: assigned
// ids, the pending default, and owner-scoped lookups.
type fakeTaskStore struct {
	mu     sync.Mutex
	nextID int64
	now    time.Time
	tasks  map[int64]db.Task
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{nextID: 1, now: time.Now(), tasks: make(map[int64]db.Task)}
}

func (f *fakeTaskStore) Create(ctx context.Context, task *db.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	task.ID = f.nextID
	f.nextID++
	if task.Status == "" {
		task.Status = StatusPending
	}
	// Strictly increasing timestamps so creation order is observable
	f.now = f.now.Add(time.Millisecond)
	task.CreatedAt = f.now
	f.tasks[task.ID] = *task
	return nil
}

func (f *fakeTaskStore) ListByOwner(ctx context.Context, ownerID int64) ([]db.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	result := []db.Task{}
	for _, t := range f.tasks {
		if t.UserID == ownerID {
			result = append(result, t)
		}
	}
	// Newest first, id breaking timestamp ties, like the repository
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

func (f *fakeTaskStore) GetByIDAndOwner(ctx context.Context, id, ownerID int64) (*db.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.tasks[id]
	if !ok || t.UserID != ownerID {
		return nil, db.ErrTaskNotFound
	}
	return &t, nil
}

func (f *fakeTaskStore) UpdateByIDAndOwner(ctx context.Context, task *db.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	existing, ok := f.tasks[task.ID]
	if !ok || existing.UserID != task.UserID {
		return db.ErrTaskNotFound
	}
	task.CreatedAt = existing.CreatedAt
	f.tasks[task.ID] = *task
	return nil
}

func (f *fakeTaskStore) DeleteByIDAndOwner(ctx context.Context, id, ownerID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.tasks[id]
	if !ok || t.UserID != ownerID {
		return db.ErrTaskNotFound
	}
	delete(f.tasks, id)
	return nil
}

func (f *fakeTaskStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tasks)
}

func TestCreateDefaults(t *testing.T) {
	svc := NewService(newFakeTaskStore())
	ctx := context.Background()

	task, err := svc.Create(ctx, 1, "Buy milk", "")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if task.ID == 0 {
		t.Error("expected an assigned id")
	}
	if task.Status != StatusPending {
		t.Errorf("status = %q, want %q", task.Status, StatusPending)
	}
	if task.Description != "" {
		t.Errorf("description = %q, want empty", task.Description)
	}
	if task.UserID != 1 {
		t.Errorf("user id = %d, want 1", task.UserID)
	}
}

func TestCreateTitleRequired(t *testing.T) {
	store := newFakeTaskStore()
	svc := NewService(store)
	ctx := context.Background()

	for _, title := range []string{"", "   ", "\t\n"} {
		if _, err := svc.Create(ctx, 1, title, "desc"); !errors.Is(err, ErrTitleRequired) {
			t.Errorf("create(%q) error = %v, want ErrTitleRequired", title, err)
		}
	}
	if store.count() != 0 {
		t.Errorf("store has %d tasks, want 0 after rejected creates", store.count())
	}
}

// Tasks belonging to one owner must be invisible to every other owner,
// through list, get, update and delete alike.
func TestOwnerScoping(t *testing.T) {
	svc := NewService(newFakeTaskStore())
	ctx := context.Background()

	const ownerA, ownerB int64 = 1, 2

	task, err := svc.Create(ctx, ownerA, "A's task", "private")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	listed, err := svc.List(ctx, ownerB)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(listed) != 0 {
		t.Errorf("owner B sees %d tasks, want 0", len(listed))
	}

	if _, err := svc.Get(ctx, task.ID, ownerB); !errors.Is(err, db.ErrTaskNotFound) {
		t.Errorf("get as owner B error = %v, want ErrTaskNotFound", err)
	}
	if _, err := svc.Update(ctx, task.ID, ownerB, "stolen", "", StatusCompleted); !errors.Is(err, db.ErrTaskNotFound) {
		t.Errorf("update as owner B error = %v, want ErrTaskNotFound", err)
	}
	if err := svc.Delete(ctx, task.ID, ownerB); !errors.Is(err, db.ErrTaskNotFound) {
		t.Errorf("delete as owner B error = %v, want ErrTaskNotFound", err)
	}

	// Owner A is unaffected by B's attempts
	got, err := svc.Get(ctx, task.ID, ownerA)
	if err != nil {
		t.Fatalf("get as owner A failed: %v", err)
	}
	if got.Title != "A's task" || got.Status != StatusPending {
		t.Errorf("task changed: %+v", got)
	}
}

func TestListEmpty(t *testing.T) {
	svc := NewService(newFakeTaskStore())

	listed, err := svc.List(context.Background(), 42)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if listed == nil {
		t.Error("list returned nil, want empty slice")
	}
	if len(listed) != 0 {
		t.Errorf("list returned %d tasks, want 0", len(listed))
	}
}

func TestListNewestFirst(t *testing.T) {
	svc := NewService(newFakeTaskStore())
	ctx := context.Background()

	titles := []string{"first", "second", "third"}
	for _, title := range titles {
		if _, err := svc.Create(ctx, 1, title, ""); err != nil {
			t.Fatalf("create %q failed: %v", title, err)
		}
	}

	listed, err := svc.List(ctx, 1)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(listed) != len(titles) {
		t.Fatalf("list returned %d tasks, want %d", len(listed), len(titles))
	}
	for i, task := range listed {
		want := titles[len(titles)-1-i]
		if task.Title != want {
			t.Errorf("listed[%d].Title = %q, want %q", i, task.Title, want)
		}
	}
	for i := 1; i < len(listed); i++ {
		if listed[i].CreatedAt.After(listed[i-1].CreatedAt) {
			t.Errorf("listed[%d] created after listed[%d], want newest first", i, i-1)
		}
	}
}

func TestUpdateValidation(t *testing.T) {
	svc := NewService(newFakeTaskStore())
	ctx := context.Background()

	task, err := svc.Create(ctx, 1, "original", "")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	tests := []struct {
		name    string
		title   string
		status  string
		wantErr error
	}{
		{"empty title", "", StatusPending, ErrTitleRequired},
		{"blank title", "  ", StatusPending, ErrTitleRequired},
		{"unknown status", "ok", "done", ErrInvalidStatus},
		{"uppercase status", "ok", "PENDING", ErrInvalidStatus},
		{"empty status", "ok", "", ErrInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Update(ctx, task.ID, 1, tt.title, "", tt.status); !errors.Is(err, tt.wantErr) {
				t.Errorf("update error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	// Rejected updates must leave the task untouched
	got, err := svc.Get(ctx, task.ID, 1)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Title != "original" || got.Status != StatusPending {
		t.Errorf("task changed after rejected updates: %+v", got)
	}
}

func TestUpdateAnyTransition(t *testing.T) {
	svc := NewService(newFakeTaskStore())
	ctx := context.Background()

	task, err := svc.Create(ctx, 1, "hop around", "")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// No enforced workflow order, including backwards moves
	for _, status := range []string{StatusCompleted, StatusPending, StatusInProgress, StatusPending} {
		updated, err := svc.Update(ctx, task.ID, 1, task.Title, "", status)
		if err != nil {
			t.Fatalf("update to %q failed: %v", status, err)
		}
		if updated.Status != status {
			t.Errorf("status = %q, want %q", updated.Status, status)
		}
	}
}

func TestDeleteTwice(t *testing.T) {
	svc := NewService(newFakeTaskStore())
	ctx := context.Background()

	task, err := svc.Create(ctx, 1, "ephemeral", "")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := svc.Delete(ctx, task.ID, 1); err != nil {
		t.Fatalf("first delete failed: %v", err)
	}
	if err := svc.Delete(ctx, task.ID, 1); !errors.Is(err, db.ErrTaskNotFound) {
		t.Errorf("second delete error = %v, want ErrTaskNotFound", err)
	}
	if _, err := svc.Get(ctx, task.ID, 1); !errors.Is(err, db.ErrTaskNotFound) {
		t.Errorf("get after delete error = %v, want ErrTaskNotFound", err)
	}
}

// Concurrent full-row updates resolve to one writer's complete row, never
// a blend of both.
func TestUpdateLastWriterWins(t *testing.T) {
	svc := NewService(newFakeTaskStore())
	ctx := context.Background()

	task, err := svc.Create(ctx, 1, "contended", "")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := svc.Update(ctx, task.ID, 1, "first", "from writer one", StatusInProgress); err != nil {
		t.Fatalf("first update failed: %v", err)
	}
	if _, err := svc.Update(ctx, task.ID, 1, "second", "from writer two", StatusCompleted); err != nil {
		t.Fatalf("second update failed: %v", err)
	}

	got, err := svc.Get(ctx, task.ID, 1)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Title != "second" || got.Description != "from writer two" || got.Status != StatusCompleted {
		t.Errorf("got %+v, want the second writer's full row", got)
	}
}
