// Package server assembles the HTTP API from the per-service handlers.
package server

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"shelfmark/internal/catalog"
	"shelfmark/internal/identity"
	"shelfmark/internal/loan"
	"shelfmark/internal/report"
)

// NewRouter wires every route of the API.
func NewRouter(identityH *identity.Handler, catalogH *catalog.Handler, loanH *loan.Handler, reportH *report.Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Post("/register", identityH.HandleRegister)
	r.Post("/login", identityH.HandleLogin)

	r.Route("/books", func(r chi.Router) {
		r.Get("/", catalogH.HandleListBooks)
		r.Post("/", catalogH.HandleAddBook)
		r.Get("/{id}", catalogH.HandleGetBook)
		r.Patch("/{id}", catalogH.HandleUpdateBook)
		r.Delete("/{id}", catalogH.HandleDeleteBook)
	})

	r.Route("/loans", func(r chi.Router) {
		r.Get("/", loanH.HandleListLoans)
		r.Post("/borrow", loanH.HandleBorrow)
		r.Post("/return", loanH.HandleReturn)
	})

	r.Route("/users", func(r chi.Router) {
		r.Get("/", identityH.HandleListUsers)
		r.Get("/{id}", identityH.HandleGetUser)
		r.Get("/{id}/profile", reportH.HandleProfile)
	})

	return r
}
