package loan

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"shelfmark/internal/errs"
	"shelfmark/internal/web"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) HandleBorrow(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BookID uuid.UUID `json:"book_id"`
		UserID uuid.UUID `json:"user_id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Error(w, errs.Wrap(errs.Validation, "decode request", err))
		return
	}

	ln, err := h.service.Borrow(r.Context(), req.BookID, req.UserID)
	if err != nil {
		web.Error(w, err)
		return
	}

	web.JSON(w, http.StatusCreated, ln)
}

func (h *Handler) HandleReturn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BookID uuid.UUID `json:"book_id"`
		UserID uuid.UUID `json:"user_id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Error(w, errs.Wrap(errs.Validation, "decode request", err))
		return
	}

	ln, err := h.service.Return(r.Context(), req.BookID, req.UserID)
	if err != nil {
		web.Error(w, err)
		return
	}

	web.JSON(w, http.StatusOK, ln)
}

func (h *Handler) HandleListLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.service.ListLoans(r.Context())
	if err != nil {
		web.Error(w, err)
		return
	}

	web.JSON(w, http.StatusOK, loans)
}
