package worker

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"netdrift/internal/canonical"
	"netdrift/internal/domain"
	"netdrift/internal/netconf"
	"netdrift/internal/queue"
	"netdrift/internal/repository/sqlite"
)

type fakeSession struct {
	config string
	err    error
	closed bool
}

func (s *fakeSession) GetConfig(ctx context.Context, filter string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.config, nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type fakeProvider struct {
	session    *fakeSession
	connectErr error
}

func (p *fakeProvider) Connect(ctx context.Context, host, username, password string) (netconf.Session, error) {
	if p.connectErr != nil {
		return nil, p.connectErr
	}
	return p.session, nil
}

type fakeNotifier struct {
	calls int
	diff  *domain.IntentDiff
	err   error
}

func (n *fakeNotifier) Notify(ctx context.Context, webhook *domain.Webhook, intent *domain.Intent, diff *domain.IntentDiff) error {
	n.calls++
	n.diff = diff
	return n.err
}

type fixture struct {
	store    *sqlite.Store
	queue    *queue.Queue
	notifier *fakeNotifier
	runner   *Runner
}

func newFixture(t *testing.T, provider netconf.Provider) *fixture {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "netdrift.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	q, err := queue.New(store.DB())
	if err != nil {
		t.Fatalf("failed to create queue: %v", err)
	}

	notifier := &fakeNotifier{}
	return &fixture{
		store:    store,
		queue:    q,
		notifier: notifier,
		runner:   NewRunner(store.Intents, store.Diffs, q, provider, notifier, time.Second, 1),
	}
}

func (f *fixture) seedIntent(t *testing.T, hostname, config string) *domain.Intent {
	t.Helper()
	intent := domain.NewIntent(hostname, domain.IntentTypeFull)
	canon, hash, err := canonical.Canonicalize(config)
	if err != nil {
		t.Fatalf("failed to canonicalize seed config: %v", err)
	}
	intent.Config = string(canon)
	intent.ConfigHash = hash
	created, err := f.store.Intents.Create(context.Background(), intent)
	if err != nil {
		t.Fatalf("failed to seed intent: %v", err)
	}
	return created
}

func (f *fixture) runJob(t *testing.T, function domain.JobFunction, intent *domain.Intent, webhook *domain.Webhook) *domain.Job {
	t.Helper()
	ctx := context.Background()
	payload := domain.IntentJob{
		Intent:  *intent,
		Auth:    domain.DeviceAuthentication{Username: "admin", Password: "admin"},
		Webhook: webhook,
	}
	if _, err := f.queue.Enqueue(ctx, function, payload, intent.ID+"-job"); err != nil {
		t.Fatalf("failed to enqueue: %v", err)
	}
	job, err := f.queue.Claim(ctx)
	if err != nil || job == nil {
		t.Fatalf("failed to claim: %v", err)
	}
	f.runner.Execute(ctx, job)

	finished, err := f.queue.Status(ctx, job.ID)
	if err != nil {
		t.Fatalf("failed to read job status: %v", err)
	}
	return finished
}

const baseConfig = `<configuration><interfaces><interface><name>ge-0/0/0</name><mtu>1500</mtu></interface></interfaces></configuration>`
const driftedConfig = `<configuration><interfaces><interface><name>ge-0/0/0</name><mtu>9000</mtu></interface></interfaces></configuration>`

func TestCreateIntentJob(t *testing.T) {
	ctx := context.Background()

	t.Run("resync stores the device config", func(t *testing.T) {
		f := newFixture(t, &fakeProvider{session: &fakeSession{config: driftedConfig}})
		intent := f.seedIntent(t, "edge-01", baseConfig)

		job := f.runJob(t, domain.JobFunctionCreateIntent, intent, nil)
		if job.Status != domain.JobStatusComplete {
			t.Fatalf("expected complete job, got %s (%s)", job.Status, job.Result)
		}
		if job.Result != "Intent resynced and updated config hash." {
			t.Errorf("unexpected result: %q", job.Result)
		}

		got, err := f.store.Intents.Get(ctx, intent.ID)
		if err != nil {
			t.Fatalf("get intent: %v", err)
		}
		if got.ConfigHash == intent.ConfigHash {
			t.Error("expected config hash to change after resync")
		}
		if got.LastDiscoveryStatus != domain.DiscoveryStatusSuccess {
			t.Errorf("expected success status, got %s", got.LastDiscoveryStatus)
		}
		if got.LastDiscoveryID != job.ID {
			t.Errorf("expected discovery id %s, got %s", job.ID, got.LastDiscoveryID)
		}
	})

	t.Run("transport failure marks the intent failed", func(t *testing.T) {
		f := newFixture(t, &fakeProvider{connectErr: errors.New("connection refused")})
		intent := f.seedIntent(t, "edge-02", baseConfig)

		job := f.runJob(t, domain.JobFunctionCreateIntent, intent, nil)
		if job.Status != domain.JobStatusFailed {
			t.Fatalf("expected failed job, got %s", job.Status)
		}
		if !strings.Contains(job.Result, "Unable to setup transport to 'edge-02'") {
			t.Errorf("unexpected result: %q", job.Result)
		}

		got, err := f.store.Intents.Get(ctx, intent.ID)
		if err != nil {
			t.Fatalf("get intent: %v", err)
		}
		if got.LastDiscoveryStatus != domain.DiscoveryStatusFailed {
			t.Errorf("expected failed status, got %s", got.LastDiscoveryStatus)
		}
		if got.LastDiscoveryMessage == "" {
			t.Error("expected a discovery message")
		}
		if got.ConfigHash != intent.ConfigHash {
			t.Error("expected stored config untouched on transport failure")
		}
	})
}

func TestIntentDiffJob(t *testing.T) {
	ctx := context.Background()

	t.Run("in-sync device records nothing", func(t *testing.T) {
		f := newFixture(t, &fakeProvider{session: &fakeSession{config: baseConfig}})
		intent := f.seedIntent(t, "edge-03", baseConfig)

		job := f.runJob(t, domain.JobFunctionIntentDiff, intent, nil)
		if job.Status != domain.JobStatusComplete {
			t.Fatalf("expected complete job, got %s (%s)", job.Status, job.Result)
		}
		if !strings.Contains(job.Result, "in sync") {
			t.Errorf("unexpected result: %q", job.Result)
		}

		diffs, err := f.store.Diffs.GetMulti(ctx, 0, 100, intent.ID)
		if err != nil {
			t.Fatalf("list diffs: %v", err)
		}
		if len(diffs) != 0 {
			t.Errorf("expected no diffs, got %d", len(diffs))
		}
	})

	t.Run("drift records exactly one diff", func(t *testing.T) {
		f := newFixture(t, &fakeProvider{session: &fakeSession{config: driftedConfig}})
		intent := f.seedIntent(t, "edge-04", baseConfig)

		job := f.runJob(t, domain.JobFunctionIntentDiff, intent, nil)
		if job.Status != domain.JobStatusComplete {
			t.Fatalf("expected complete job, got %s (%s)", job.Status, job.Result)
		}

		diffs, err := f.store.Diffs.GetMulti(ctx, 0, 100, intent.ID)
		if err != nil {
			t.Fatalf("list diffs: %v", err)
		}
		if len(diffs) != 1 {
			t.Fatalf("expected one diff, got %d", len(diffs))
		}
		if !strings.Contains(diffs[0].Diff, "--- live") || !strings.Contains(diffs[0].Diff, "+++ intent") {
			t.Errorf("expected live-vs-intent diff, got %q", diffs[0].Diff)
		}
		if diffs[0].Intent != intent.Config {
			t.Error("expected stored intent config attached to the diff")
		}
		if !strings.Contains(diffs[0].Patch, "<mtu>1500</mtu>") {
			t.Errorf("expected restore patch carrying intent values, got %q", diffs[0].Patch)
		}
	})

	t.Run("transport failure records no diff", func(t *testing.T) {
		f := newFixture(t, &fakeProvider{connectErr: errors.New("no route to host")})
		intent := f.seedIntent(t, "edge-05", baseConfig)

		job := f.runJob(t, domain.JobFunctionIntentDiff, intent, nil)
		if job.Status != domain.JobStatusFailed {
			t.Fatalf("expected failed job, got %s", job.Status)
		}

		diffs, err := f.store.Diffs.GetMulti(ctx, 0, 100, intent.ID)
		if err != nil {
			t.Fatalf("list diffs: %v", err)
		}
		if len(diffs) != 0 {
			t.Errorf("expected no diffs, got %d", len(diffs))
		}
	})

	t.Run("webhook fires on drift", func(t *testing.T) {
		f := newFixture(t, &fakeProvider{session: &fakeSession{config: driftedConfig}})
		intent := f.seedIntent(t, "edge-06", baseConfig)

		webhook := &domain.Webhook{URL: "http://hooks.internal/drift", Body: map[string]any{"diff": "{ intent_diff }"}}
		job := f.runJob(t, domain.JobFunctionIntentDiff, intent, webhook)
		if job.Status != domain.JobStatusComplete {
			t.Fatalf("expected complete job, got %s (%s)", job.Status, job.Result)
		}
		if f.notifier.calls != 1 {
			t.Errorf("expected one webhook delivery, got %d", f.notifier.calls)
		}
		if f.notifier.diff == nil || f.notifier.diff.IntentID != intent.ID {
			t.Errorf("expected diff handed to notifier, got %+v", f.notifier.diff)
		}
	})

	t.Run("webhook is not fired when in sync", func(t *testing.T) {
		f := newFixture(t, &fakeProvider{session: &fakeSession{config: baseConfig}})
		intent := f.seedIntent(t, "edge-07", baseConfig)

		webhook := &domain.Webhook{URL: "http://hooks.internal/drift", Body: map[string]any{}}
		f.runJob(t, domain.JobFunctionIntentDiff, intent, webhook)
		if f.notifier.calls != 0 {
			t.Errorf("expected no webhook delivery, got %d", f.notifier.calls)
		}
	})

	t.Run("webhook failure keeps the diff", func(t *testing.T) {
		f := newFixture(t, &fakeProvider{session: &fakeSession{config: driftedConfig}})
		f.notifier.err = errors.New("webhook returned status 502")
		intent := f.seedIntent(t, "edge-08", baseConfig)

		webhook := &domain.Webhook{URL: "http://hooks.internal/drift", Body: map[string]any{}}
		job := f.runJob(t, domain.JobFunctionIntentDiff, intent, webhook)
		if job.Status != domain.JobStatusFailed {
			t.Fatalf("expected failed job, got %s", job.Status)
		}
		if !strings.Contains(job.Result, "webhook delivery failed") {
			t.Errorf("unexpected result: %q", job.Result)
		}

		diffs, err := f.store.Diffs.GetMulti(ctx, 0, 100, intent.ID)
		if err != nil {
			t.Fatalf("list diffs: %v", err)
		}
		if len(diffs) != 1 {
			t.Errorf("expected diff kept despite webhook failure, got %d", len(diffs))
		}
	})
}
