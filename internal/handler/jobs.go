package handler

import (
	"fmt"
	"net/http"

	"netdrift/internal/domain"
	"netdrift/internal/queue"
)

// JobHandler handles job API requests
type JobHandler struct {
	queue *queue.Queue
}

// NewJobHandler creates a new job handler
func NewJobHandler(q *queue.Queue) *JobHandler {
	return &JobHandler{queue: q}
}

// List returns job records newest first
func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	skip, limit := pagination(r)
	jobs, err := h.queue.Results(r.Context(), skip, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if jobs == nil {
		jobs = []domain.Job{}
	}
	writeJSON(w, jobs, http.StatusOK)
}

// Get returns a single job record
func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	job, err := h.queue.Status(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if job == nil {
		writeError(w, domain.ErrNotFound(fmt.Sprintf("job '%s'", id)))
		return
	}
	writeJSON(w, job, http.StatusOK)
}

// Abort stops a queued or running job
func (h *JobHandler) Abort(w http.ResponseWriter, r *http.Request) {
	if err := h.queue.Abort(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Flush deletes all finished job records
func (h *JobHandler) Flush(w http.ResponseWriter, r *http.Request) {
	removed, err := h.queue.Flush(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]int64{"flushed": removed}, http.StatusOK)
}
