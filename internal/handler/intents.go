package handler

import (
	"context"
	"net/http"

	"netdrift/internal/domain"
	"netdrift/internal/service"
)

// IntentHandler handles intent API requests
type IntentHandler struct {
	svc *service.IntentService
}

// NewIntentHandler creates a new intent handler
func NewIntentHandler(svc *service.IntentService) *IntentHandler {
	return &IntentHandler{svc: svc}
}

// CreateRequest is the combined creation request: the intent's baseline
// configuration is discovered from the device.
type CreateRequest struct {
	Hostname    string `json:"hostname"`
	Description string `json:"description,omitempty"`
	Username    string `json:"username"`
	Password    string `json:"password"`
}

// CreateResponse pairs the created intent with its discovery job.
type CreateResponse struct {
	Intent *domain.Intent `json:"intent"`
	Job    *domain.Job    `json:"job"`
}

// FullCreateRequest carries an operator-supplied full configuration.
type FullCreateRequest struct {
	Hostname    string `json:"hostname"`
	Description string `json:"description,omitempty"`
	Config      string `json:"config"`
}

// PartialCreateRequest carries a subtree configuration and its filter.
type PartialCreateRequest struct {
	Hostname    string `json:"hostname,omitempty"`
	Description string `json:"description,omitempty"`
	Config      string `json:"config"`
	Filter      string `json:"filter"`
}

// DiscoveryRequest carries device credentials for diff and sync jobs.
type DiscoveryRequest struct {
	Username string          `json:"username"`
	Password string          `json:"password"`
	Webhook  *domain.Webhook `json:"webhook,omitempty"`
}

// Create registers an intent discovered from the device
func (h *IntentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	auth := domain.DeviceAuthentication{Username: req.Username, Password: req.Password}
	intent, job, err := h.svc.CreateIntent(r.Context(), req.Hostname, req.Description, auth)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, CreateResponse{Intent: intent, Job: job}, http.StatusCreated)
}

// CreateFull registers an operator-supplied full intent
func (h *IntentHandler) CreateFull(w http.ResponseWriter, r *http.Request) {
	var req FullCreateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	intent, err := h.svc.CreateFullIntent(r.Context(), req.Hostname, req.Description, req.Config)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, intent, http.StatusCreated)
}

// CreatePartial registers an operator-supplied partial intent
func (h *IntentHandler) CreatePartial(w http.ResponseWriter, r *http.Request) {
	var req PartialCreateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	intent, err := h.svc.CreatePartialIntent(r.Context(), req.Hostname, req.Description, req.Config, req.Filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, intent, http.StatusCreated)
}

// List returns intents, optionally filtered by hostname and type
func (h *IntentHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "")
}

// ListFull returns full intents
func (h *IntentHandler) ListFull(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, domain.IntentTypeFull)
}

// ListPartial returns partial intents
func (h *IntentHandler) ListPartial(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, domain.IntentTypePartial)
}

func (h *IntentHandler) list(w http.ResponseWriter, r *http.Request, intentType domain.IntentType) {
	query := domain.IntentQuery{Type: intentType}
	if r.URL.Query().Has("hostname") {
		query = domain.ByHostname(r.URL.Query().Get("hostname"))
		query.Type = intentType
	}

	skip, limit := pagination(r)
	intents, err := h.svc.ListIntents(r.Context(), skip, limit, query)
	if err != nil {
		writeError(w, err)
		return
	}
	if intents == nil {
		intents = []domain.Intent{}
	}
	writeJSON(w, intents, http.StatusOK)
}

// Get returns a single intent of either type
func (h *IntentHandler) Get(w http.ResponseWriter, r *http.Request) {
	intent, err := h.svc.GetIntent(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, intent, http.StatusOK)
}

// GetFull returns a single full intent
func (h *IntentHandler) GetFull(w http.ResponseWriter, r *http.Request) {
	intent, err := h.svc.GetFullIntent(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, intent, http.StatusOK)
}

// GetPartial returns a single partial intent
func (h *IntentHandler) GetPartial(w http.ResponseWriter, r *http.Request) {
	intent, err := h.svc.GetPartialIntent(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, intent, http.StatusOK)
}

// Update patches an intent of either type
func (h *IntentHandler) Update(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, h.svc.UpdateIntent)
}

// UpdateFull patches a full intent
func (h *IntentHandler) UpdateFull(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, h.svc.UpdateFullIntent)
}

// UpdatePartial patches a partial intent
func (h *IntentHandler) UpdatePartial(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, h.svc.UpdatePartialIntent)
}

func (h *IntentHandler) update(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, id string, patch domain.IntentUpdate) (*domain.Intent, error)) {
	var patch domain.IntentUpdate
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, err)
		return
	}

	intent, err := apply(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, intent, http.StatusOK)
}

// Delete removes an intent
func (h *IntentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteIntent(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListDiffs returns recorded drift diffs for an intent
func (h *IntentHandler) ListDiffs(w http.ResponseWriter, r *http.Request) {
	skip, limit := pagination(r)
	diffs, err := h.svc.ListDiffs(r.Context(), skip, limit, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if diffs == nil {
		diffs = []domain.IntentDiff{}
	}
	writeJSON(w, diffs, http.StatusOK)
}

// Diff enqueues a drift check against the device
func (h *IntentHandler) Diff(w http.ResponseWriter, r *http.Request) {
	var req DiscoveryRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	auth := domain.DeviceAuthentication{Username: req.Username, Password: req.Password}
	job, err := h.svc.DiffIntent(r.Context(), r.PathValue("id"), auth, req.Webhook)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, job, http.StatusAccepted)
}

// Sync enqueues a resync of the intent from the device
func (h *IntentHandler) Sync(w http.ResponseWriter, r *http.Request) {
	var req DiscoveryRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	auth := domain.DeviceAuthentication{Username: req.Username, Password: req.Password}
	job, err := h.svc.SyncIntent(r.Context(), r.PathValue("id"), auth)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, job, http.StatusAccepted)
}
