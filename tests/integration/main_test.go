package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"shelfmark/internal/catalog"
	"shelfmark/internal/identity"
	"shelfmark/internal/loan"
	"shelfmark/internal/report"
	"shelfmark/internal/server"
	"shelfmark/internal/store"
)

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()
	engine := store.NewMemoryEngine()

	users, err := store.Open[identity.User](ctx, engine, "users")
	require.NoError(t, err)
	books, err := store.Open[catalog.Book](ctx, engine, "books")
	require.NoError(t, err)
	loans, err := store.Open[loan.Loan](ctx, engine, "loans")
	require.NoError(t, err)

	identitySvc := identity.NewService(users, identity.WithLimiter(rate.NewLimiter(rate.Inf, 0)))
	catalogSvc := catalog.NewService(books)
	loanSvc := loan.NewService(loans, catalogSvc, identitySvc)
	reportSvc := report.NewService(identitySvc, loanSvc, catalogSvc)

	router := server.NewRouter(
		identity.NewHandler(identitySvc),
		catalog.NewHandler(catalogSvc),
		loan.NewHandler(loanSvc),
		report.NewHandler(reportSvc),
	)

	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewBuffer(raw))
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestLendingFlow(t *testing.T) {
	ts := setupServer(t)

	// Register alice.
	resp := postJSON(t, ts.URL+"/register", map[string]string{
		"username": "alice",
		"password": "pw123456",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var account struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Role     string `json:"role"`
	}
	decode(t, resp, &account)
	assert.Equal(t, "alice", account.Username)
	assert.Equal(t, "MEMBER", account.Role)

	// Login succeeds with a role-bearing payload.
	resp = postJSON(t, ts.URL+"/login", map[string]string{
		"username": "alice",
		"password": "pw123456",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var auth struct {
		UserID   string `json:"user_id"`
		Username string `json:"username"`
		Role     string `json:"role"`
	}
	decode(t, resp, &auth)
	assert.Equal(t, account.ID, auth.UserID)
	assert.Equal(t, "MEMBER", auth.Role)

	// Add a book.
	resp = postJSON(t, ts.URL+"/books", map[string]string{
		"title":    "Pride and Prejudice",
		"author":   "Jane Austen",
		"category": "classics",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var book struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decode(t, resp, &book)
	assert.Equal(t, "AVAILABLE", book.Status)

	// Borrow it.
	resp = postJSON(t, ts.URL+"/loans/borrow", map[string]string{
		"book_id": book.ID,
		"user_id": account.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// The books query shows it BORROWED.
	resp, err := http.Get(fmt.Sprintf("%s/books/%s", ts.URL, book.ID))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &book)
	assert.Equal(t, "BORROWED", book.Status)

	// Return it.
	resp = postJSON(t, ts.URL+"/loans/return", map[string]string{
		"book_id": book.ID,
		"user_id": account.ID,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Status reverts to AVAILABLE.
	resp, err = http.Get(fmt.Sprintf("%s/books/%s", ts.URL, book.ID))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &book)
	assert.Equal(t, "AVAILABLE", book.Status)

	// The profile reflects the closed loan.
	resp, err = http.Get(fmt.Sprintf("%s/users/%s/profile", ts.URL, account.ID))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var profile struct {
		TotalLoans  int   `json:"total_loans"`
		ActiveLoans []any `json:"active_loans"`
	}
	decode(t, resp, &profile)
	assert.Equal(t, 1, profile.TotalLoans)
	assert.Empty(t, profile.ActiveLoans)
}

func TestErrorPayloadsCarryKinds(t *testing.T) {
	ts := setupServer(t)

	// Duplicate registration.
	resp := postJSON(t, ts.URL+"/register", map[string]string{"username": "alice", "password": "pw123456"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/register", map[string]string{"username": "alice", "password": "other"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	var payload struct {
		Error string `json:"error"`
		Kind  string `json:"kind"`
	}
	decode(t, resp, &payload)
	assert.Equal(t, "conflict", payload.Kind)

	// Bad credentials.
	resp = postJSON(t, ts.URL+"/login", map[string]string{"username": "alice", "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	decode(t, resp, &payload)
	assert.Equal(t, "unauthorized", payload.Kind)

	// Unknown username.
	resp = postJSON(t, ts.URL+"/login", map[string]string{"username": "ghost", "password": "wrong"})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	decode(t, resp, &payload)
	assert.Equal(t, "not_found", payload.Kind)

	// Missing book fields.
	resp = postJSON(t, ts.URL+"/books", map[string]string{"title": "No Author"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	decode(t, resp, &payload)
	assert.Equal(t, "validation", payload.Kind)
}
