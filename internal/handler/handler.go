// Package handler exposes the HTTP API.
//
// All routes live under /v1 and speak JSON. Domain errors carry a stable
// numeric code and are written with their own HTTP status; everything else
// becomes a 500 with a generic body.
package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"netdrift/internal/domain"
)

const defaultPageSize = 100

func writeJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode JSON: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	if apiErr, ok := domain.AsError(err); ok {
		writeJSON(w, apiErr, apiErr.Status)
		return
	}
	log.Printf("Unhandled error: %v", err)
	writeJSON(w, &domain.Error{
		Reason:  "InternalError",
		Message: "An internal error occurred.",
		Status:  http.StatusInternalServerError,
	}, http.StatusInternalServerError)
}

// decodeBody parses a JSON request body, mapping failures onto the
// malformed-document error so clients see the usual error shape.
func decodeBody(r *http.Request, into any) error {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		return domain.ErrMalformedDocument(err.Error())
	}
	return nil
}

// pagination reads skip/limit query parameters with defaults.
func pagination(r *http.Request) (skip, limit int) {
	limit = defaultPageSize
	if v := r.URL.Query().Get("skip"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			skip = n
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	return skip, limit
}
