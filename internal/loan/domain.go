package loan

import (
	"time"

	"github.com/google/uuid"
)

// LoanPeriodDays is the lending period: dueDate = borrowedAt + 7 days.
const LoanPeriodDays = 7

// Loan links a user to a borrowed book. A loan with no ReturnedAt is
// open; at most one open loan exists per book.
type Loan struct {
	ID         uuid.UUID  `json:"id"`
	BookID     uuid.UUID  `json:"book_id"`
	UserID     uuid.UUID  `json:"user_id"`
	BorrowedAt time.Time  `json:"borrowed_at"`
	DueDate    time.Time  `json:"due_date"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
}

// Open reports whether the loan has not been returned yet.
func (l Loan) Open() bool { return l.ReturnedAt == nil }
