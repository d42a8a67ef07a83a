package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for the catalog service.
type Service interface {
	AddBook(ctx context.Context, title, author, category string) (*Book, error)
	GetBook(ctx context.Context, id uuid.UUID) (*Book, error)
	ListBooks(ctx context.Context, filter Filter) ([]Book, error)
	UpdateBook(ctx context.Context, id uuid.UUID, params UpdateParams) (*Book, error)
	DeleteBook(ctx context.Context, id uuid.UUID) (bool, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to Status) error
}
