package report

import (
	"time"

	"github.com/google/uuid"

	"shelfmark/internal/identity"
)

// Profile is the read-side view of a user: contact fields plus their
// lending history joined against the catalog.
type Profile struct {
	UserID      uuid.UUID     `json:"user_id"`
	Username    string        `json:"username"`
	Email       string        `json:"email,omitempty"`
	Role        identity.Role `json:"role"`
	TotalLoans  int           `json:"total_loans"`
	ActiveLoans []ActiveLoan  `json:"active_loans"`
}

// ActiveLoan is one currently borrowed book in a Profile.
type ActiveLoan struct {
	LoanID  uuid.UUID `json:"loan_id"`
	BookID  uuid.UUID `json:"book_id"`
	Title   string    `json:"title"`
	Author  string    `json:"author"`
	DueDate time.Time `json:"due_date"`
}
