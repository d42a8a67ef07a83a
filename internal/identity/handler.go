package identity

import (
	"encoding/json"
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

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Email    string `json:"email"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Error(w, errs.Wrap(errs.Validation, "decode request", err))
		return
	}

	user, err := h.service.Register(r.Context(), req.Username, req.Password, req.Email)
	if err != nil {
		web.Error(w, err)
		return
	}

	web.JSON(w, http.StatusCreated, user.Account())
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Error(w, errs.Wrap(errs.Validation, "decode request", err))
		return
	}

	payload, err := h.service.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		web.Error(w, err)
		return
	}

	web.JSON(w, http.StatusOK, payload)
}

func (h *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.ListUsers(r.Context())
	if err != nil {
		web.Error(w, err)
		return
	}

	web.JSON(w, http.StatusOK, accounts)
}

func (h *Handler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.Error(w, errs.New(errs.Validation, "invalid user ID"))
		return
	}

	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		web.Error(w, err)
		return
	}

	web.JSON(w, http.StatusOK, user.Account())
}
