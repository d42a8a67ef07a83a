package report

import (
	"context"

	"github.com/google/uuid"

	"shelfmark/internal/catalog"
	"shelfmark/internal/identity"
	"shelfmark/internal/loan"
)

// service implements the Service interface. It holds no state of its
// own; everything is derived from the other services on each call.
type service struct {
	identity identity.Service
	loans    loan.Service
	catalog  catalog.Service
}

// NewService creates a new reporting service instance.
func NewService(identitySvc identity.Service, loanSvc loan.Service, catalogSvc catalog.Service) Service {
	return &service{
		identity: identitySvc,
		loans:    loanSvc,
		catalog:  catalogSvc,
	}
}

// Profile joins a user's loans against the catalog.
func (s *service) Profile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	user, err := s.identity.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	loans, err := s.loans.LoansForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := &Profile{
		UserID:      user.ID,
		Username:    user.Username,
		Email:       user.Email,
		Role:        user.Role,
		TotalLoans:  len(loans),
		ActiveLoans: make([]ActiveLoan, 0),
	}

	for _, l := range loans {
		if !l.Open() {
			continue
		}
		// Borrowed books cannot be deleted, so the lookup only fails on
		// a genuinely broken store.
		book, err := s.catalog.GetBook(ctx, l.BookID)
		if err != nil {
			return nil, err
		}
		profile.ActiveLoans = append(profile.ActiveLoans, ActiveLoan{
			LoanID:  l.ID,
			BookID:  l.BookID,
			Title:   book.Title,
			Author:  book.Author,
			DueDate: l.DueDate,
		})
	}

	return profile, nil
}
