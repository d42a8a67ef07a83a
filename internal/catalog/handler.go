package catalog

import (
	"encoding/json"
	"net/http"
	"strconv"

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

func (h *Handler) HandleListBooks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := Filter{
		Category: q.Get("category"),
		Status:   Status(q.Get("status")),
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			web.Error(w, errs.New(errs.Validation, "invalid offset"))
			return
		}
		filter.Offset = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			web.Error(w, errs.New(errs.Validation, "invalid limit"))
			return
		}
		filter.Limit = n
	}

	books, err := h.service.ListBooks(r.Context(), filter)
	if err != nil {
		web.Error(w, err)
		return
	}

	web.JSON(w, http.StatusOK, books)
}

func (h *Handler) HandleAddBook(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title    string `json:"title"`
		Author   string `json:"author"`
		Category string `json:"category"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Error(w, errs.Wrap(errs.Validation, "decode request", err))
		return
	}

	book, err := h.service.AddBook(r.Context(), req.Title, req.Author, req.Category)
	if err != nil {
		web.Error(w, err)
		return
	}

	web.JSON(w, http.StatusCreated, book)
}

func (h *Handler) HandleGetBook(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.Error(w, errs.New(errs.Validation, "invalid book ID"))
		return
	}

	book, err := h.service.GetBook(r.Context(), id)
	if err != nil {
		web.Error(w, err)
		return
	}

	web.JSON(w, http.StatusOK, book)
}

func (h *Handler) HandleUpdateBook(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.Error(w, errs.New(errs.Validation, "invalid book ID"))
		return
	}

	var params UpdateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		web.Error(w, errs.Wrap(errs.Validation, "decode request", err))
		return
	}

	book, err := h.service.UpdateBook(r.Context(), id, params)
	if err != nil {
		web.Error(w, err)
		return
	}

	web.JSON(w, http.StatusOK, book)
}

func (h *Handler) HandleDeleteBook(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.Error(w, errs.New(errs.Validation, "invalid book ID"))
		return
	}

	deleted, err := h.service.DeleteBook(r.Context(), id)
	if err != nil {
		web.Error(w, err)
		return
	}

	web.JSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}
