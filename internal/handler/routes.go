package handler

import "net/http"

// RegisterRoutes attaches the v1 API to the mux. Literal segments win over
// wildcards, so /v1/intents/full and friends take precedence over
// /v1/intents/{id}.
func RegisterRoutes(mux *http.ServeMux, intents *IntentHandler, groups *GroupHandler, jobs *JobHandler, scanner *ScanHandler) {
	// Combined intent API
	mux.HandleFunc("GET /v1/intents", intents.List)
	mux.HandleFunc("POST /v1/intents", intents.Create)
	mux.HandleFunc("GET /v1/intents/{id}", intents.Get)
	mux.HandleFunc("PATCH /v1/intents/{id}", intents.Update)
	mux.HandleFunc("DELETE /v1/intents/{id}", intents.Delete)
	mux.HandleFunc("GET /v1/intents/{id}/diffs", intents.ListDiffs)
	mux.HandleFunc("POST /v1/intents/{id}/diff", intents.Diff)
	mux.HandleFunc("POST /v1/intents/{id}/sync", intents.Sync)

	// Full intents
	mux.HandleFunc("GET /v1/intents/full", intents.ListFull)
	mux.HandleFunc("POST /v1/intents/full", intents.CreateFull)
	mux.HandleFunc("GET /v1/intents/full/{id}", intents.GetFull)
	mux.HandleFunc("PATCH /v1/intents/full/{id}", intents.UpdateFull)
	mux.HandleFunc("DELETE /v1/intents/full/{id}", intents.Delete)

	// Partial intents
	mux.HandleFunc("GET /v1/intents/partial", intents.ListPartial)
	mux.HandleFunc("POST /v1/intents/partial", intents.CreatePartial)
	mux.HandleFunc("GET /v1/intents/partial/{id}", intents.GetPartial)
	mux.HandleFunc("PATCH /v1/intents/partial/{id}", intents.UpdatePartial)
	mux.HandleFunc("DELETE /v1/intents/partial/{id}", intents.Delete)

	// Groups
	mux.HandleFunc("GET /v1/intents/groups", groups.List)
	mux.HandleFunc("POST /v1/intents/groups", groups.Create)
	mux.HandleFunc("GET /v1/intents/groups/{id}", groups.Get)
	mux.HandleFunc("PATCH /v1/intents/groups/{id}", groups.Update)
	mux.HandleFunc("DELETE /v1/intents/groups/{id}", groups.Delete)

	// Jobs
	mux.HandleFunc("GET /v1/jobs", jobs.List)
	mux.HandleFunc("GET /v1/jobs/{id}", jobs.Get)
	mux.HandleFunc("DELETE /v1/jobs/{id}", jobs.Abort)
	mux.HandleFunc("DELETE /v1/jobs/flush", jobs.Flush)

	// Discovery
	if scanner != nil {
		mux.HandleFunc("POST /v1/scan", scanner.Scan)
	}
}
