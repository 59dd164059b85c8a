package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"netdrift/internal/domain"
	"netdrift/internal/netconf"
	"netdrift/internal/queue"
	"netdrift/internal/repository"
)

// Notifier delivers drift webhooks.
type Notifier interface {
	Notify(ctx context.Context, webhook *domain.Webhook, intent *domain.Intent, diff *domain.IntentDiff) error
}

// Runner claims and executes discovery jobs.
type Runner struct {
	intents  repository.Intents
	diffs    repository.Diffs
	queue    *queue.Queue
	provider netconf.Provider
	notifier Notifier

	pollInterval time.Duration
	concurrency  int
}

// NewRunner wires a runner against its collaborators.
func NewRunner(intents repository.Intents, diffs repository.Diffs, q *queue.Queue, provider netconf.Provider, notifier Notifier, pollInterval time.Duration, concurrency int) *Runner {
	if pollInterval == 0 {
		pollInterval = time.Second
	}
	if concurrency == 0 {
		concurrency = 1
	}
	return &Runner{
		intents:      intents,
		diffs:        diffs,
		queue:        q,
		provider:     provider,
		notifier:     notifier,
		pollInterval: pollInterval,
		concurrency:  concurrency,
	}
}

// Run polls the queue until the context is cancelled.
func (r *Runner) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < r.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.poll(ctx)
		}()
	}
	wg.Wait()
}

func (r *Runner) poll(ctx context.Context) {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		job, err := r.queue.Claim(ctx)
		if err != nil {
			log.Printf("Failed to claim job: %v", err)
		}
		if job != nil {
			r.Execute(ctx, job)
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Execute runs a single claimed job to completion.
func (r *Runner) Execute(ctx context.Context, job *domain.Job) {
	var payload domain.IntentJob
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		log.Printf("Job %s carries an undecodable payload: %v", job.ID, err)
		r.fail(ctx, job.ID, fmt.Sprintf("undecodable payload: %v", err))
		return
	}

	switch job.Function {
	case domain.JobFunctionCreateIntent:
		r.runCreateIntent(ctx, job, &payload)
	case domain.JobFunctionIntentDiff:
		r.runIntentDiff(ctx, job, &payload)
	default:
		log.Printf("Job %s requests unknown function %q", job.ID, job.Function)
		r.fail(ctx, job.ID, fmt.Sprintf("unknown job function %q", job.Function))
	}
}

// advance moves the job to the next stage and reports whether it should
// keep running. A false return means the job was aborted.
func (r *Runner) advance(ctx context.Context, jobID string, stage domain.JobStage) bool {
	running, err := r.queue.UpdateStage(ctx, jobID, stage)
	if err != nil {
		log.Printf("Failed to update stage of job %s: %v", jobID, err)
		return true
	}
	if !running {
		log.Printf("Job %s was aborted, stopping", jobID)
	}
	return running
}

func (r *Runner) complete(ctx context.Context, jobID, result string) {
	if err := r.queue.Complete(ctx, jobID, result); err != nil {
		log.Printf("Failed to complete job %s: %v", jobID, err)
	}
}

func (r *Runner) fail(ctx context.Context, jobID, result string) {
	if err := r.queue.Fail(ctx, jobID, result); err != nil {
		log.Printf("Failed to mark job %s failed: %v", jobID, err)
	}
}
