package loan

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for the loan service.
type Service interface {
	Borrow(ctx context.Context, bookID, userID uuid.UUID) (*Loan, error)
	Return(ctx context.Context, bookID, userID uuid.UUID) (*Loan, error)
	ListLoans(ctx context.Context) ([]Loan, error)
	LoansForUser(ctx context.Context, userID uuid.UUID) ([]Loan, error)
}
