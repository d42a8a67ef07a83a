package identity

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for the identity service.
type Service interface {
	Register(ctx context.Context, username, password, email string) (*User, error)
	Authenticate(ctx context.Context, username, password string) (*AuthPayload, error)
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	ListUsers(ctx context.Context) ([]Account, error)
	EnsureAdmin(ctx context.Context, username, password string) error
}
