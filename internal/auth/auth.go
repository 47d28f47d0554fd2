package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/taskboard/backend/internal/cache"
	"github.com/taskboard/backend/internal/db"
)

// TokenTTL is the fixed lifetime of an access token. There is no
// refresh or revocation: a leaked token stays valid until it expires.
const TokenTTL = time.Hour

// userCacheTTL bounds the identity-lookup cache. Users are never
// updated or deleted, so a cached entry can only go stale by TTL.
const userCacheTTL = 5 * time.Minute

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// UserStore is the slice of the credential store the service needs.
// *db.UserRepository satisfies it.
type UserStore interface {
	Create(ctx context.Context, user *db.User) error
	GetByEmail(ctx context.Context, email string) (*db.User, error)
	GetByID(ctx context.Context, id int64) (*db.User, error)
}

// Claims carries the token's subject identity. The user id travels as
// the "id" claim; clients decode it directly.
type Claims struct {
	UserID int64 `json:"id"`
	jwt.RegisteredClaims
}

// UserInfo is the public projection of a user. The password hash never
// leaves the service.
type UserInfo struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

type Service struct {
	users     UserStore
	hasher    Hasher
	jwtSecret []byte
	cache     *cache.Cache

	// now is replaced in tests to pin the clock.
	now func() time.Time
}

// NewService builds the credential issuer/verifier. userCache may be
// nil; the service then always hits the store.
func NewService(users UserStore, hasher Hasher, jwtSecret string, userCache *cache.Cache) *Service {
	return &Service{
		users:     users,
		hasher:    hasher,
		jwtSecret: []byte(jwtSecret),
		cache:     userCache,
		now:       time.Now,
	}
}

// Register hashes the password and persists a new user. The raw
// password is never stored or logged.
func (s *Service) Register(ctx context.Context, email, password string) error {
	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}

	user := &db.User{
		Email:        email,
		PasswordHash: passwordHash,
	}

	return s.users.Create(ctx, user)
}

// Login verifies the email/password pair and mints a signed token. An
// unknown email and a wrong password are deliberately the same error,
// so the endpoint does not reveal which emails are registered.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if !s.hasher.Compare(user.PasswordHash, password) {
		return "", ErrInvalidCredentials
	}

	return s.generateToken(user.ID)
}

// VerifyToken validates signature and expiry and extracts the subject
// identity. It is a pure function of the token, the clock and the
// secret; it never touches the store.
func (s *Service) VerifyToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))

	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// CurrentUser resolves a verified identity to its public user record.
// Lookups are cached briefly; the record is immutable so the cache can
// never serve a wrong answer, only an absent one.
func (s *Service) CurrentUser(ctx context.Context, id int64) (*UserInfo, error) {
	cacheKey := fmt.Sprintf("user:%d", id)

	if s.cache != nil {
		if raw, ok := s.cache.Get(ctx, cacheKey); ok {
			var info UserInfo
			if err := json.Unmarshal([]byte(raw), &info); err == nil {
				return &info, nil
			}
		}
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	info := &UserInfo{ID: user.ID, Email: user.Email}

	if s.cache != nil {
		if raw, err := json.Marshal(info); err == nil {
			s.cache.Set(ctx, cacheKey, string(raw), userCacheTTL)
		}
	}

	return info, nil
}

// EnsureDefaultUser creates the bootstrap admin account if its email is
// not registered yet. Safe to run on every startup.
func (s *Service) EnsureDefaultUser(ctx context.Context, email, password string) (bool, error) {
	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, db.ErrUserNotFound) {
		return false, err
	}

	if err := s.Register(ctx, email, password); err != nil {
		// Lost a startup race with another replica; the account exists.
		if errors.Is(err, db.ErrEmailExists) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

func (s *Service) generateToken(userID int64) (string, error) {
	issuedAt := s.now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
