package domain

import (
	"encoding/json"
	"time"
)

// JobFunction names the worker function a queued job executes
type JobFunction string

const (
	// JobFunctionCreateIntent fetches the device configuration and stores
	// it as the intent's canonical config (creation and resync path).
	JobFunctionCreateIntent JobFunction = "create_intent"
	// JobFunctionIntentDiff fetches the filtered device configuration and
	// compares it against the stored intent (drift check path).
	JobFunctionIntentDiff JobFunction = "intent_diff"
)

// JobStatus is the queue-level lifecycle of a job
type JobStatus string

const (
	JobStatusQueued   JobStatus = "queued"
	JobStatusRunning  JobStatus = "running"
	JobStatusComplete JobStatus = "complete"
	JobStatusFailed   JobStatus = "failed"
	JobStatusAborted  JobStatus = "aborted"
)

// JobStage tracks how far a running discovery job has progressed. Steps
// within one job are strictly sequential; there is no ordering between
// jobs.
type JobStage string

const (
	JobStageDispatched JobStage = "dispatched"
	JobStageConnecting JobStage = "connecting"
	JobStageFetched    JobStage = "fetched"
	JobStageCompared   JobStage = "compared"
	JobStageSucceeded  JobStage = "succeeded"
	JobStageFailed     JobStage = "failed"
)

// Job is a queue record for an asynchronous discovery/diff task
type Job struct {
	ID         string          `json:"id"`
	Function   JobFunction     `json:"function"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Status     JobStatus       `json:"status"`
	Stage      JobStage        `json:"stage"`
	Result     string          `json:"result,omitempty"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
	StartedAt  *time.Time      `json:"started_at,omitempty"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
}

// DeviceAuthentication carries the credentials a discovery job uses to open
// a device session. Supplied per request, never persisted with the intent.
type DeviceAuthentication struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// IntentJob is the payload of a discovery/diff job
type IntentJob struct {
	Intent  Intent               `json:"intent"`
	Auth    DeviceAuthentication `json:"auth"`
	Webhook *Webhook             `json:"webhook,omitempty"`
}
