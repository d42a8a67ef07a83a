package identity

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"shelfmark/internal/errs"
	"shelfmark/internal/store"
)

// service implements the Service interface.
type service struct {
	users   *store.Collection[User]
	limiter *rate.Limiter
}

// Option configures the service.
type Option func(*service)

// WithLimiter overrides the register/login rate limiter.
func WithLimiter(l *rate.Limiter) Option {
	return func(s *service) { s.limiter = l }
}

// NewService creates a new identity service instance.
func NewService(users *store.Collection[User], opts ...Option) Service {
	s := &service{
		users:   users,
		limiter: rate.NewLimiter(rate.Every(time.Second), 25),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a new MEMBER account.
func (s *service) Register(ctx context.Context, username, password, email string) (*User, error) {
	if !s.limiter.Allow() {
		return nil, errs.New(errs.RateLimited, "too many registration attempts")
	}

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, errs.New(errs.Validation, "username and password are required")
	}

	return s.createUser(ctx, username, password, email, RoleMember)
}

func (s *service) createUser(ctx context.Context, username, password, email string, role Role) (*User, error) {
	hash, salt, err := hashPassword(password)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "hash password", err)
	}

	user := User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		Role:         role,
		PasswordHash: hash,
		Salt:         salt,
		CreatedAt:    time.Now().UTC(),
	}

	err = s.users.Update(ctx, func(users []User) ([]User, error) {
		for _, u := range users {
			if u.Username == username {
				return nil, errs.Newf(errs.Conflict, "username %q already exists", username)
			}
		}
		return append(users, user), nil
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// Authenticate verifies a user's credentials.
func (s *service) Authenticate(ctx context.Context, username, password string) (*AuthPayload, error) {
	if !s.limiter.Allow() {
		return nil, errs.New(errs.RateLimited, "too many login attempts")
	}

	user, err := s.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	ok, err := verifyPassword(password, user.Salt, user.PasswordHash)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "verify password", err)
	}
	if !ok {
		return nil, errs.New(errs.Unauthorized, "invalid credentials")
	}

	return &AuthPayload{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	}, nil
}

// GetUser retrieves a user by id.
func (s *service) GetUser(_ context.Context, id uuid.UUID) (*User, error) {
	var found *User
	s.users.View(func(users []User) error {
		for _, u := range users {
			if u.ID == id {
				cp := u
				found = &cp
				return nil
			}
		}
		return nil
	})
	if found == nil {
		return nil, errs.Newf(errs.NotFound, "user %s not found", id)
	}
	return found, nil
}

// GetUserByUsername retrieves a user by username.
func (s *service) GetUserByUsername(_ context.Context, username string) (*User, error) {
	var found *User
	s.users.View(func(users []User) error {
		for _, u := range users {
			if u.Username == username {
				cp := u
				found = &cp
				return nil
			}
		}
		return nil
	})
	if found == nil {
		return nil, errs.Newf(errs.NotFound, "user %q not found", username)
	}
	return found, nil
}

// ListUsers returns the outward-facing view of every account.
func (s *service) ListUsers(_ context.Context) ([]Account, error) {
	accounts := make([]Account, 0)
	s.users.View(func(users []User) error {
		for _, u := range users {
			accounts = append(accounts, u.Account())
		}
		return nil
	})
	return accounts, nil
}

// EnsureAdmin creates an ADMIN account unless the username is already
// taken. Used by the first-run bootstrap.
func (s *service) EnsureAdmin(ctx context.Context, username, password string) error {
	if _, err := s.GetUserByUsername(ctx, username); err == nil {
		return nil
	}
	_, err := s.createUser(ctx, username, password, "", RoleAdmin)
	return err
}
