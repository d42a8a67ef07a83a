package loan

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"shelfmark/internal/catalog"
	"shelfmark/internal/errs"
	"shelfmark/internal/identity"
	"shelfmark/internal/store"
)

// service implements the Service interface.
type service struct {
	loans    *store.Collection[Loan]
	catalog  catalog.Service
	identity identity.Service
}

// NewService creates a new loan service instance.
func NewService(loans *store.Collection[Loan], catalogSvc catalog.Service, identitySvc identity.Service) Service {
	return &service{
		loans:    loans,
		catalog:  catalogSvc,
		identity: identitySvc,
	}
}

// Borrow moves a book from AVAILABLE to BORROWED and records the loan.
func (s *service) Borrow(ctx context.Context, bookID, userID uuid.UUID) (*Loan, error) {
	if _, err := s.identity.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	// The status flip is the exclusion point: two concurrent borrows of
	// the same book cannot both pass this compare-and-set.
	if err := s.catalog.TransitionStatus(ctx, bookID, catalog.StatusAvailable, catalog.StatusBorrowed); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	ln := Loan{
		ID:         uuid.New(),
		BookID:     bookID,
		UserID:     userID,
		BorrowedAt: now,
		DueDate:    now.AddDate(0, 0, LoanPeriodDays),
	}

	err := s.loans.Update(ctx, func(loans []Loan) ([]Loan, error) {
		for _, l := range loans {
			if l.BookID == bookID && l.Open() {
				return nil, errs.Newf(errs.Conflict, "book %s already has an open loan", bookID)
			}
		}
		return append(loans, ln), nil
	})
	if err != nil {
		// Roll the status flip back so the book does not stay BORROWED
		// without an open loan.
		if rbErr := s.catalog.TransitionStatus(ctx, bookID, catalog.StatusBorrowed, catalog.StatusAvailable); rbErr != nil {
			log.Printf("loan: failed to roll back status of book %s: %v", bookID, rbErr)
		}
		return nil, err
	}

	return &ln, nil
}

// Return closes the open loan for the book/user pair and moves the
// book back to AVAILABLE. Loans are closed, never deleted.
func (s *service) Return(ctx context.Context, bookID, userID uuid.UUID) (*Loan, error) {
	var closed Loan
	err := s.loans.Update(ctx, func(loans []Loan) ([]Loan, error) {
		for i, l := range loans {
			if l.BookID == bookID && l.UserID == userID && l.Open() {
				now := time.Now().UTC()
				loans[i].ReturnedAt = &now
				closed = loans[i]
				return loans, nil
			}
		}
		return nil, errs.Newf(errs.NotFound, "no open loan for book %s and user %s", bookID, userID)
	})
	if err != nil {
		return nil, err
	}

	if err := s.catalog.TransitionStatus(ctx, bookID, catalog.StatusBorrowed, catalog.StatusAvailable); err != nil {
		// Reopen the loan so the book status and the open loan stay in
		// lockstep.
		if rbErr := s.reopenLoan(ctx, closed.ID); rbErr != nil {
			log.Printf("loan: failed to reopen loan %s: %v", closed.ID, rbErr)
		}
		return nil, err
	}

	return &closed, nil
}

func (s *service) reopenLoan(ctx context.Context, id uuid.UUID) error {
	return s.loans.Update(ctx, func(loans []Loan) ([]Loan, error) {
		for i, l := range loans {
			if l.ID == id {
				loans[i].ReturnedAt = nil
				return loans, nil
			}
		}
		return nil, errs.Newf(errs.NotFound, "loan %s not found", id)
	})
}

// ListLoans returns every loan, open and closed.
func (s *service) ListLoans(_ context.Context) ([]Loan, error) {
	all := make([]Loan, 0)
	s.loans.View(func(loans []Loan) error {
		all = append(all, loans...)
		return nil
	})
	return all, nil
}

// LoansForUser returns every loan held by the user.
func (s *service) LoansForUser(_ context.Context, userID uuid.UUID) ([]Loan, error) {
	matched := make([]Loan, 0)
	s.loans.View(func(loans []Loan) error {
		for _, l := range loans {
			if l.UserID == userID {
				matched = append(matched, l)
			}
		}
		return nil
	})
	return matched, nil
}
