// Package web holds the small shared pieces of the HTTP layer.
package web

import (
	"encoding/json"
	"net/http"

	"shelfmark/internal/errs"
)

// JSON writes v as the JSON response body.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Error renders err with the HTTP status and machine-readable kind of
// its error taxonomy entry.
func Error(w http.ResponseWriter, err error) {
	JSON(w, errs.HTTPStatus(err), map[string]string{
		"error": err.Error(),
		"kind":  string(errs.KindOf(err)),
	})
}
