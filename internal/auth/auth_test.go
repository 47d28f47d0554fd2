package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/taskboard/backend/internal/db"
)

type fakeUserStore struct {
	mu      sync.Mutex
	users   map[int64]*db.User
	byEmail map[string]*db.User
	nextID  int64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users:   make(map[int64]*db.User),
		byEmail: make(map[string]*db.User),
	}
}

func (s *fakeUserStore) Create(ctx context.Context, user *db.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[user.Email]; ok {
		return db.ErrEmailExists
	}

	s.nextID++
	user.ID = s.nextID
	stored := *user
	s.users[user.ID] = &stored
	s.byEmail[user.Email] = &stored
	return nil
}

func (s *fakeUserStore) GetByEmail(ctx context.Context, email string) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byEmail[email]
	if !ok {
		return nil, db.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *fakeUserStore) GetByID(ctx context.Context, id int64) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, db.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *fakeUserStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// fakeHasher avoids bcrypt cost in tests that do not exercise hashing.
type fakeHasher struct{}

func (fakeHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }
func (fakeHasher) Compare(digest, plain string) bool { return digest == "hashed:"+plain }

func newTestService(store UserStore) *Service {
	return NewService(store, fakeHasher{}, "test-secret", nil)
}

func TestPasswordHashing(t *testing.T) {
	password := "testpassword123"

	hasher := NewBcryptHasher()
	digest, err := hasher.Hash(password)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	if digest == password {
		t.Fatal("digest must not equal the plaintext password")
	}
	if !hasher.Compare(digest, password) {
		t.Error("comparison failed for correct password")
	}
	if hasher.Compare(digest, "wrongpassword") {
		t.Error("comparison should fail for wrong password")
	}

	// The digest is a real bcrypt hash, not a reversible encoding
	if err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)); err != nil {
		t.Errorf("digest is not a valid bcrypt hash: %v", err)
	}
}

func TestRegisterThenLogin(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(store)
	ctx := context.Background()

	if err := svc.Register(ctx, "u1@example.com", "pw12345"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	token, err := svc.Login(ctx, "u1@example.com", "pw12345")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	claims, err := svc.VerifyToken(token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	user, err := store.GetByEmail(ctx, "u1@example.com")
	if err != nil {
		t.Fatalf("user lookup failed: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("token subject = %d, want registered user id %d", claims.UserID, user.ID)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(store)
	ctx := context.Background()

	if err := svc.Register(ctx, "known@example.com", "rightpassword"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "known@example.com", "wrongpassword"},
		{"unregistered email", "unknown@example.com", "rightpassword"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(ctx, tt.email, tt.password)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(store)
	ctx := context.Background()

	if err := svc.Register(ctx, "dup@example.com", "pw12345"); err != nil {
		t.Fatalf("first register failed: %v", err)
	}

	err := svc.Register(ctx, "dup@example.com", "otherpassword")
	if !errors.Is(err, db.ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}

	if got := store.count(); got != 1 {
		t.Errorf("store has %d users, want exactly 1", got)
	}
}

func TestVerifyToken_ExpiryBoundary(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(store)
	ctx := context.Background()

	if err := svc.Register(ctx, "clock@example.com", "pw12345"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	issuedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issuedAt }

	token, err := svc.Login(ctx, "clock@example.com", "pw12345")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	tests := []struct {
		name    string
		at      time.Time
		wantErr bool
	}{
		{"immediately after issuance", issuedAt, false},
		{"just before expiry", issuedAt.Add(TokenTTL - time.Second), false},
		{"exactly at expiry", issuedAt.Add(TokenTTL), true},
		{"after expiry", issuedAt.Add(TokenTTL + time.Minute), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc.now = func() time.Time { return tt.at }
			_, err := svc.VerifyToken(token)
			if tt.wantErr && !errors.Is(err, ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected token to verify, got %v", err)
			}
		})
	}
}

func TestVerifyToken_Invalid(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(store)
	other := NewService(newFakeUserStore(), fakeHasher{}, "different-secret", nil)
	ctx := context.Background()

	if err := svc.Register(ctx, "sig@example.com", "pw12345"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := other.Register(ctx, "sig@example.com", "pw12345"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	signedElsewhere, err := other.Login(ctx, "sig@example.com", "pw12345")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"wrong secret", signedElsewhere},
		{"malformed", "not-a-token"},
		{"empty", ""},
		{"truncated", "eyJhbGciOiJIUzI1NiJ9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.VerifyToken(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestCurrentUser(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(store)
	ctx := context.Background()

	if err := svc.Register(ctx, "me@example.com", "pw12345"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	user, err := store.GetByEmail(ctx, "me@example.com")
	if err != nil {
		t.Fatalf("user lookup failed: %v", err)
	}

	info, err := svc.CurrentUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("current user failed: %v", err)
	}
	if info.ID != user.ID || info.Email != "me@example.com" {
		t.Errorf("unexpected user info: %+v", info)
	}

	if _, err := svc.CurrentUser(ctx, 9999); !errors.Is(err, db.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound for unknown id, got %v", err)
	}
}

func TestEnsureDefaultUser_Idempotent(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(store)
	ctx := context.Background()

	created, err := svc.EnsureDefaultUser(ctx, "admin@email.com", "admin123")
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if !created {
		t.Error("first run should create the admin user")
	}

	created, err = svc.EnsureDefaultUser(ctx, "admin@email.com", "admin123")
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if created {
		t.Error("second run should be a no-op")
	}

	if got := store.count(); got != 1 {
		t.Errorf("store has %d users, want exactly 1", got)
	}

	// The bootstrap account works like a regular one
	if _, err := svc.Login(ctx, "admin@email.com", "admin123"); err != nil {
		t.Errorf("admin login failed: %v", err)
	}
}
