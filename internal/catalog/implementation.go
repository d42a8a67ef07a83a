package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"shelfmark/internal/errs"
	"shelfmark/internal/store"
)

// service implements the Service interface.
type service struct {
	books *store.Collection[Book]
}

// NewService creates a new catalog service instance.
func NewService(books *store.Collection[Book]) Service {
	return &service{books: books}
}

// AddBook creates a new book with status AVAILABLE.
func (s *service) AddBook(ctx context.Context, title, author, category string) (*Book, error) {
	title = strings.TrimSpace(title)
	author = strings.TrimSpace(author)
	category = strings.TrimSpace(category)
	if title == "" || author == "" || category == "" {
		return nil, errs.New(errs.Validation, "title, author and category are required")
	}

	now := time.Now().UTC()
	book := Book{
		ID:        uuid.New(),
		Title:     title,
		Author:    author,
		Category:  category,
		Status:    StatusAvailable,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.books.Update(ctx, func(books []Book) ([]Book, error) {
		return append(books, book), nil
	})
	if err != nil {
		return nil, err
	}

	return &book, nil
}

// GetBook retrieves a book by id.
func (s *service) GetBook(_ context.Context, id uuid.UUID) (*Book, error) {
	var found *Book
	s.books.View(func(books []Book) error {
		for _, b := range books {
			if b.ID == id {
				cp := b
				found = &cp
				return nil
			}
		}
		return nil
	})
	if found == nil {
		return nil, errs.Newf(errs.NotFound, "book %s not found", id)
	}
	return found, nil
}

// ListBooks returns books matching the filter, sliced by offset/limit.
func (s *service) ListBooks(_ context.Context, filter Filter) ([]Book, error) {
	matched := make([]Book, 0)
	s.books.View(func(books []Book) error {
		for _, b := range books {
			if filter.Category != "" && b.Category != filter.Category {
				continue
			}
			if filter.Status != "" && b.Status != filter.Status {
				continue
			}
			matched = append(matched, b)
		}
		return nil
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return []Book{}, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

// UpdateBook merges the provided fields into an existing book.
func (s *service) UpdateBook(ctx context.Context, id uuid.UUID, params UpdateParams) (*Book, error) {
	var updated Book
	err := s.books.Update(ctx, func(books []Book) ([]Book, error) {
		for i, b := range books {
			if b.ID != id {
				continue
			}
			if params.Title != nil {
				books[i].Title = *params.Title
			}
			if params.Author != nil {
				books[i].Author = *params.Author
			}
			if params.Category != nil {
				books[i].Category = *params.Category
			}
			books[i].UpdatedAt = time.Now().UTC()
			updated = books[i]
			return books, nil
		}
		return nil, errs.Newf(errs.NotFound, "book %s not found", id)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteBook removes a book. It reports false without error when the
// book does not exist, and refuses to delete a borrowed book so an
// open loan can never point at a missing record.
func (s *service) DeleteBook(ctx context.Context, id uuid.UUID) (bool, error) {
	err := s.books.Update(ctx, func(books []Book) ([]Book, error) {
		for i, b := range books {
			if b.ID != id {
				continue
			}
			if b.Status == StatusBorrowed {
				return nil, errs.Newf(errs.Conflict, "book %s cannot be deleted while borrowed", id)
			}
			return append(books[:i], books[i+1:]...), nil
		}
		return nil, errs.Newf(errs.NotFound, "book %s not found", id)
	})
	if errs.IsKind(err, errs.NotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// TransitionStatus flips a book's status with a compare-and-set. It is
// the mutual-exclusion point of the lending workflow: under the
// collection write lock at most one caller can move a book from one
// status to the next.
func (s *service) TransitionStatus(ctx context.Context, id uuid.UUID, from, to Status) error {
	return s.books.Update(ctx, func(books []Book) ([]Book, error) {
		for i, b := range books {
			if b.ID != id {
				continue
			}
			if b.Status != from {
				return nil, errs.Newf(errs.Conflict, "book %s is %s", id, b.Status)
			}
			books[i].Status = to
			books[i].UpdatedAt = time.Now().UTC()
			return books, nil
		}
		return nil, errs.Newf(errs.NotFound, "book %s not found", id)
	})
}
