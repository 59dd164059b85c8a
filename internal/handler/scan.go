package handler

import (
	"context"
	"net/http"

	"netdrift/internal/domain"
	"netdrift/internal/scan"
)

// DeviceScanner probes the network for NETCONF-capable hosts.
type DeviceScanner interface {
	Scan(ctx context.Context, targets []string, ports string) ([]scan.Device, error)
}

// ScanHandler handles device discovery requests
type ScanHandler struct {
	scanner DeviceScanner
}

// NewScanHandler creates a new scan handler
func NewScanHandler(scanner DeviceScanner) *ScanHandler {
	return &ScanHandler{scanner: scanner}
}

// ScanRequest names the targets to probe. Targets may be addresses,
// hostnames or CIDR ranges.
type ScanRequest struct {
	Targets []string `json:"targets"`
	Ports   string   `json:"ports,omitempty"`
}

// Scan runs a synchronous device scan and returns the discovered hosts
func (h *ScanHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if len(req.Targets) == 0 {
		writeError(w, domain.ErrMalformedDocument("at least one scan target is required"))
		return
	}

	devices, err := h.scanner.Scan(r.Context(), req.Targets, req.Ports)
	if err != nil {
		writeError(w, err)
		return
	}
	if devices == nil {
		devices = []scan.Device{}
	}
	writeJSON(w, devices, http.StatusOK)
}
