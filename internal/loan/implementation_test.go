package loan

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
	"pgregory.net/rapid"

	"shelfmark/internal/catalog"
	"shelfmark/internal/errs"
	"shelfmark/internal/identity"
	"shelfmark/internal/store"
)

type fixture struct {
	loans    Service
	catalog  catalog.Service
	identity identity.Service
}

func newFixture(tb testing.TB) *fixture {
	tb.Helper()
	ctx := context.Background()
	engine := store.NewMemoryEngine()

	users, err := store.Open[identity.User](ctx, engine, "users")
	require.NoError(tb, err)
	books, err := store.Open[catalog.Book](ctx, engine, "books")
	require.NoError(tb, err)
	loans, err := store.Open[Loan](ctx, engine, "loans")
	require.NoError(tb, err)

	identitySvc := identity.NewService(users, identity.WithLimiter(rate.NewLimiter(rate.Inf, 0)))
	catalogSvc := catalog.NewService(books)

	return &fixture{
		loans:    NewService(loans, catalogSvc, identitySvc),
		catalog:  catalogSvc,
		identity: identitySvc,
	}
}

func (f *fixture) addBook(tb testing.TB, title string) uuid.UUID {
	tb.Helper()
	book, err := f.catalog.AddBook(context.Background(), title, "Author", "fiction")
	require.NoError(tb, err)
	return book.ID
}

func (f *fixture) addUser(tb testing.TB, username string) uuid.UUID {
	tb.Helper()
	user, err := f.identity.Register(context.Background(), username, "pw123456", "")
	require.NoError(tb, err)
	return user.ID
}

func TestBorrow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bookID := f.addBook(t, "Dune")
	userID := f.addUser(t, "alice")

	ln, err := f.loans.Borrow(ctx, bookID, userID)
	require.NoError(t, err)

	assert.Equal(t, bookID, ln.BookID)
	assert.Equal(t, userID, ln.UserID)
	assert.True(t, ln.Open())
	assert.True(t, ln.DueDate.Equal(ln.BorrowedAt.AddDate(0, 0, 7)),
		"due date must be exactly 7 days after borrowedAt")

	book, err := f.catalog.GetBook(ctx, bookID)
	require.NoError(t, err)
	assert.Equal(t, catalog.StatusBorrowed, book.Status)
}

func TestBorrowMissingBookOrUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bookID := f.addBook(t, "Dune")
	userID := f.addUser(t, "alice")

	_, err := f.loans.Borrow(ctx, uuid.New(), userID)
	assert.True(t, errs.IsKind(err, errs.NotFound), "missing book: got %v", err)

	_, err = f.loans.Borrow(ctx, bookID, uuid.New())
	assert.True(t, errs.IsKind(err, errs.NotFound), "missing user: got %v", err)
}

func TestDoubleBorrowConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bookID := f.addBook(t, "Dune")
	alice := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")

	_, err := f.loans.Borrow(ctx, bookID, alice)
	require.NoError(t, err)

	_, err = f.loans.Borrow(ctx, bookID, bob)
	assert.True(t, errs.IsKind(err, errs.Conflict), "expected conflict, got %v", err)

	// Never a second open loan for the book.
	loans, err := f.loans.ListLoans(ctx)
	require.NoError(t, err)
	open := 0
	for _, l := range loans {
		if l.BookID == bookID && l.Open() {
			open++
		}
	}
	assert.Equal(t, 1, open)
}

func TestReturn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bookID := f.addBook(t, "Dune")
	userID := f.addUser(t, "alice")

	_, err := f.loans.Borrow(ctx, bookID, userID)
	require.NoError(t, err)

	closed, err := f.loans.Return(ctx, bookID, userID)
	require.NoError(t, err)
	assert.False(t, closed.Open())
	assert.NotNil(t, closed.ReturnedAt)

	book, err := f.catalog.GetBook(ctx, bookID)
	require.NoError(t, err)
	assert.Equal(t, catalog.StatusAvailable, book.Status)
}

func TestReturnSucceedsExactlyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bookID := f.addBook(t, "Dune")
	userID := f.addUser(t, "alice")

	_, err := f.loans.Borrow(ctx, bookID, userID)
	require.NoError(t, err)

	_, err = f.loans.Return(ctx, bookID, userID)
	require.NoError(t, err)

	_, err = f.loans.Return(ctx, bookID, userID)
	assert.True(t, errs.IsKind(err, errs.NotFound), "second return: got %v", err)
}

func TestReturnWithoutOpenLoan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bookID := f.addBook(t, "Dune")
	userID := f.addUser(t, "alice")

	_, err := f.loans.Return(ctx, bookID, userID)
	assert.True(t, errs.IsKind(err, errs.NotFound))
}

func TestBorrowAgainAfterReturn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bookID := f.addBook(t, "Dune")
	alice := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")

	_, err := f.loans.Borrow(ctx, bookID, alice)
	require.NoError(t, err)
	_, err = f.loans.Return(ctx, bookID, alice)
	require.NoError(t, err)

	_, err = f.loans.Borrow(ctx, bookID, bob)
	require.NoError(t, err)

	loans, err := f.loans.ListLoans(ctx)
	require.NoError(t, err)
	assert.Len(t, loans, 2)
}

func TestConcurrentBorrowSingleWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bookID := f.addBook(t, "The Great Gatsby")

	userIDs := make([]uuid.UUID, 10)
	for i := range userIDs {
		userIDs[i] = f.addUser(t, fmt.Sprintf("member%d", i))
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	successCount := 0

	for _, userID := range userIDs {
		wg.Add(1)
		go func(uid uuid.UUID) {
			defer wg.Done()
			if _, err := f.loans.Borrow(ctx, bookID, uid); err == nil {
				mu.Lock()
				successCount++
				mu.Unlock()
			}
		}(userID)
	}
	wg.Wait()

	assert.Equal(t, 1, successCount, "only one concurrent borrow should succeed")
	assertInvariant(t, f)
}

// assertInvariant checks that a book is BORROWED iff exactly one open
// loan references it.
func assertInvariant(tb testing.TB, f *fixture) {
	tb.Helper()
	ctx := context.Background()

	books, err := f.catalog.ListBooks(ctx, catalog.Filter{})
	require.NoError(tb, err)
	loans, err := f.loans.ListLoans(ctx)
	require.NoError(tb, err)

	openByBook := make(map[uuid.UUID]int)
	for _, l := range loans {
		if l.Open() {
			openByBook[l.BookID]++
		}
	}

	for _, b := range books {
		open := openByBook[b.ID]
		require.LessOrEqual(tb, open, 1, "book %s has %d open loans", b.ID, open)
		if b.Status == catalog.StatusBorrowed {
			require.Equal(tb, 1, open, "book %s is BORROWED without an open loan", b.ID)
		} else {
			require.Equal(tb, 0, open, "book %s is AVAILABLE with an open loan", b.ID)
		}
	}
}

func TestBorrowReturnInvariantProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := newFixture(t)
		ctx := context.Background()

		books := make([]uuid.UUID, 3)
		for i := range books {
			books[i] = f.addBook(t, fmt.Sprintf("Book %d", i))
		}
		users := make([]uuid.UUID, 3)
		for i := range users {
			users[i] = f.addUser(t, fmt.Sprintf("user%d", i))
		}

		steps := rapid.IntRange(1, 50).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			bookID := books[rapid.IntRange(0, len(books)-1).Draw(rt, "book")]
			userID := users[rapid.IntRange(0, len(users)-1).Draw(rt, "user")]

			// Borrow and return are allowed to fail (Conflict/NotFound);
			// the invariant must hold regardless.
			if rapid.Bool().Draw(rt, "borrow") {
				f.loans.Borrow(ctx, bookID, userID)
			} else {
				f.loans.Return(ctx, bookID, userID)
			}
			assertInvariant(t, f)
		}
	})
}
