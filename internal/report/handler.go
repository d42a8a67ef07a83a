package report

import (
	"net/http"

	"github.com/go-chi/chi/v5"
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

func (h *Handler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.Error(w, errs.New(errs.Validation, "invalid user ID"))
		return
	}

	profile, err := h.service.Profile(r.Context(), id)
	if err != nil {
		web.Error(w, err)
		return
	}

	web.JSON(w, http.StatusOK, profile)
}
