package report

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for the reporting service.
type Service interface {
	Profile(ctx context.Context, userID uuid.UUID) (*Profile, error)
}
