package worker

import (
	"context"
	"fmt"
	"log"

	"netdrift/internal/canonical"
	"netdrift/internal/domain"
	"netdrift/internal/drift"
)

const resyncedMessage = "Intent resynced and updated config hash."

// runCreateIntent fetches the device's running configuration and stores it
// as the intent's new baseline.
func (r *Runner) runCreateIntent(ctx context.Context, job *domain.Job, payload *domain.IntentJob) {
	intent := payload.Intent

	live, ok := r.fetch(ctx, job, payload)
	if !ok {
		return
	}

	config, hash, err := canonical.Canonicalize(live)
	if err != nil {
		msg := fmt.Sprintf("Device '%s' returned a configuration that could not be normalized: %v", intent.Hostname, err)
		r.recordDiscovery(ctx, intent.ID, job.ID, domain.DiscoveryStatusFailed, msg)
		r.fail(ctx, job.ID, msg)
		return
	}

	if _, err := r.intents.Update(ctx, intent.ID, domain.IntentUpdate{
		Config:               domain.StringPtr(string(config)),
		ConfigHash:           domain.StringPtr(hash),
		LastDiscoveryID:      domain.StringPtr(job.ID),
		LastDiscoveryStatus:  domain.StatusPtr(domain.DiscoveryStatusSuccess),
		LastDiscoveryMessage: domain.StringPtr(resyncedMessage),
	}); err != nil {
		log.Printf("Failed to store resynced config for intent %s: %v", intent.ID, err)
	}
	r.complete(ctx, job.ID, resyncedMessage)
}

// runIntentDiff compares the device's live configuration against the
// stored intent and records a diff when they disagree.
func (r *Runner) runIntentDiff(ctx context.Context, job *domain.Job, payload *domain.IntentJob) {
	intent := payload.Intent

	live, ok := r.fetch(ctx, job, payload)
	if !ok {
		return
	}

	_, liveHash, err := canonical.Canonicalize(live)
	if err != nil {
		r.fail(ctx, job.ID, fmt.Sprintf("Device '%s' returned a configuration that could not be normalized: %v", intent.Hostname, err))
		return
	}

	if !r.advance(ctx, job.ID, domain.JobStageCompared) {
		return
	}

	if liveHash == intent.ConfigHash {
		r.complete(ctx, job.ID, fmt.Sprintf("Intent %s is in sync.", intent.ID))
		return
	}

	lineDiff, err := drift.LineDiff(live, intent.Config)
	if err != nil {
		r.fail(ctx, job.ID, fmt.Sprintf("Failed to compute diff for intent %s: %v", intent.ID, err))
		return
	}

	record := domain.NewIntentDiff(intent.ID, lineDiff, intent.Config)
	patch, err := drift.ReconcileIntent(intent.Config, live)
	if err != nil {
		log.Printf("Failed to build restore patch for intent %s: %v", intent.ID, err)
	} else {
		record.Patch = patch
	}
	if _, err := r.diffs.Create(ctx, record); err != nil {
		r.fail(ctx, job.ID, fmt.Sprintf("Drift detected but diff could not be stored: %v", err))
		return
	}

	if payload.Webhook != nil {
		if err := r.notifier.Notify(ctx, payload.Webhook, &intent, record); err != nil {
			// The diff is already stored, the delivery failure is only
			// reported through the job result.
			r.fail(ctx, job.ID, fmt.Sprintf("Drift recorded as diff %s, but webhook delivery failed: %v", record.ID, err))
			return
		}
	}
	r.complete(ctx, job.ID, fmt.Sprintf("Drift detected, recorded diff %s.", record.ID))
}

// fetch connects to the device and retrieves the configuration the intent
// covers. On transport failure the intent's discovery fields are updated,
// the job is failed and false is returned.
func (r *Runner) fetch(ctx context.Context, job *domain.Job, payload *domain.IntentJob) (string, bool) {
	intent := payload.Intent

	if !r.advance(ctx, job.ID, domain.JobStageConnecting) {
		return "", false
	}

	session, err := r.provider.Connect(ctx, intent.Hostname, payload.Auth.Username, payload.Auth.Password)
	if err != nil {
		msg := fmt.Sprintf("Unable to setup transport to '%s' due to error: %v", intent.Hostname, err)
		r.recordDiscovery(ctx, intent.ID, job.ID, domain.DiscoveryStatusFailed, msg)
		r.fail(ctx, job.ID, msg)
		return "", false
	}
	defer session.Close()

	live, err := session.GetConfig(ctx, intent.Filter)
	if err != nil {
		msg := fmt.Sprintf("Unable to setup transport to '%s' due to error: %v", intent.Hostname, err)
		r.recordDiscovery(ctx, intent.ID, job.ID, domain.DiscoveryStatusFailed, msg)
		r.fail(ctx, job.ID, msg)
		return "", false
	}

	if !r.advance(ctx, job.ID, domain.JobStageFetched) {
		return "", false
	}
	return live, true
}

func (r *Runner) recordDiscovery(ctx context.Context, intentID, jobID string, status domain.DiscoveryStatus, message string) {
	if _, err := r.intents.Update(ctx, intentID, domain.IntentUpdate{
		LastDiscoveryID:      domain.StringPtr(jobID),
		LastDiscoveryStatus:  domain.StatusPtr(status),
		LastDiscoveryMessage: domain.StringPtr(message),
	}); err != nil {
		log.Printf("Failed to record discovery outcome for intent %s: %v", intentID, err)
	}
}
