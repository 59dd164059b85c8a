package handler

import (
	"net/http"

	"netdrift/internal/domain"
	"netdrift/internal/service"
)

// GroupHandler handles intent group API requests
type GroupHandler struct {
	svc *service.GroupService
}

// NewGroupHandler creates a new group handler
func NewGroupHandler(svc *service.GroupService) *GroupHandler {
	return &GroupHandler{svc: svc}
}

// Create validates and materializes a new group
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.IntentGroupCreate
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	group, err := h.svc.CreateGroup(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, group, http.StatusCreated)
}

// List returns groups
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	skip, limit := pagination(r)
	groups, err := h.svc.ListGroups(r.Context(), skip, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if groups == nil {
		groups = []domain.IntentGroup{}
	}
	writeJSON(w, groups, http.StatusOK)
}

// Get returns a single group
func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	group, err := h.svc.GetGroup(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, group, http.StatusOK)
}

// Update always reports not implemented; replace the group instead
func (h *GroupHandler) Update(w http.ResponseWriter, r *http.Request) {
	_, err := h.svc.UpdateGroup(r.Context(), r.PathValue("id"))
	writeError(w, err)
}

// Delete removes a group, leaving its member intents in place
func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteGroup(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
