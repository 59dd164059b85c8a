package queue

import (
	"context"
	"path/filepath"
	"testing"

	"netdrift/internal/domain"
	"netdrift/internal/repository/sqlite"
)

func newTestQueue(t *testing.T) *Queue {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "netdrift.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	q, err := New(store.DB())
	if err != nil {
		t.Fatalf("failed to create queue: %v", err)
	}
	return q
}

func TestQueueLifecycle(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	job, err := q.Enqueue(ctx, domain.JobFunctionCreateIntent, map[string]string{"hostname": "edge-01"}, "job-1")
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if job.Status != domain.JobStatusQueued || job.Stage != domain.JobStageDispatched {
		t.Fatalf("unexpected initial state: %s/%s", job.Status, job.Stage)
	}

	claimed, err := q.Claim(ctx)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed == nil || claimed.ID != "job-1" {
		t.Fatalf("expected job-1 claimed, got %+v", claimed)
	}
	if claimed.Status != domain.JobStatusRunning || claimed.StartedAt == nil {
		t.Errorf("expected running job with start time, got %+v", claimed)
	}

	running, err := q.UpdateStage(ctx, "job-1", domain.JobStageConnecting)
	if err != nil {
		t.Fatalf("update stage: %v", err)
	}
	if !running {
		t.Error("expected stage update to report job still running")
	}

	if err := q.Complete(ctx, "job-1", "Intent resynced and updated config hash."); err != nil {
		t.Fatalf("complete: %v", err)
	}

	got, err := q.Status(ctx, "job-1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if got.Status != domain.JobStatusComplete || got.Stage != domain.JobStageSucceeded {
		t.Errorf("unexpected final state: %s/%s", got.Status, got.Stage)
	}
	if got.FinishedAt == nil {
		t.Error("expected finish time set")
	}
}

func TestQueueClaimOrderAndEmpty(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	empty, err := q.Claim(ctx)
	if err != nil {
		t.Fatalf("claim on empty queue: %v", err)
	}
	if empty != nil {
		t.Fatalf("expected nil from empty queue, got %+v", empty)
	}

	if _, err := q.Enqueue(ctx, domain.JobFunctionCreateIntent, nil, "job-a"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := q.Enqueue(ctx, domain.JobFunctionIntentDiff, nil, "job-b"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	first, err := q.Claim(ctx)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if first == nil || first.ID != "job-a" {
		t.Errorf("expected oldest job first, got %+v", first)
	}
}

func TestQueueAbort(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	t.Run("queued job is never claimed after abort", func(t *testing.T) {
		if _, err := q.Enqueue(ctx, domain.JobFunctionIntentDiff, nil, "job-abort"); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
		if err := q.Abort(ctx, "job-abort"); err != nil {
			t.Fatalf("abort: %v", err)
		}

		claimed, err := q.Claim(ctx)
		if err != nil {
			t.Fatalf("claim: %v", err)
		}
		if claimed != nil {
			t.Errorf("expected aborted job to stay unclaimed, got %+v", claimed)
		}
	})

	t.Run("running job observes abort at stage transition", func(t *testing.T) {
		if _, err := q.Enqueue(ctx, domain.JobFunctionIntentDiff, nil, "job-run"); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
		if _, err := q.Claim(ctx); err != nil {
			t.Fatalf("claim: %v", err)
		}
		if err := q.Abort(ctx, "job-run"); err != nil {
			t.Fatalf("abort: %v", err)
		}

		running, err := q.UpdateStage(ctx, "job-run", domain.JobStageFetched)
		if err != nil {
			t.Fatalf("update stage: %v", err)
		}
		if running {
			t.Error("expected stage update to report aborted job")
		}
	})

	t.Run("abort of finished job reports not found", func(t *testing.T) {
		err := q.Abort(ctx, "job-abort")
		apiErr, ok := domain.AsError(err)
		if !ok || apiErr.Code != domain.CodeNotFound {
			t.Fatalf("expected not-found error, got %v", err)
		}
	})
}

func TestQueueFlush(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	if _, err := q.Enqueue(ctx, domain.JobFunctionCreateIntent, nil, "job-done"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := q.Claim(ctx); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := q.Complete(ctx, "job-done", "ok"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := q.Enqueue(ctx, domain.JobFunctionCreateIntent, nil, "job-waiting"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	removed, err := q.Flush(ctx)
	if err != nil {
		t.Fatalf("flush: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 job flushed, got %d", removed)
	}

	remaining, err := q.Results(ctx, 0, 100)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != "job-waiting" {
		t.Errorf("expected only the queued job to remain, got %+v", remaining)
	}
}
