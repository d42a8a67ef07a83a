package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Status of a book in the catalog.
type Status string

const (
	StatusAvailable Status = "AVAILABLE"
	StatusBorrowed  Status = "BORROWED"
)

// Book is a catalog record. Status is only ever flipped through
// TransitionStatus, which keeps it in lockstep with the open loans.
type Book struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Category  string    `json:"category"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Filter narrows ListBooks results. Zero values match everything;
// Limit 0 means no limit.
type Filter struct {
	Category string
	Status   Status
	Offset   int
	Limit    int
}

// UpdateParams carries the fields of a partial update; nil pointers
// leave the current value untouched.
type UpdateParams struct {
	Title    *string `json:"title"`
	Author   *string `json:"author"`
	Category *string `json:"category"`
}
