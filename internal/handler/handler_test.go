package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"netdrift/internal/domain"
	"netdrift/internal/queue"
	"netdrift/internal/repository/sqlite"
	"netdrift/internal/service"
)

const testToken = "test-token"

func newTestServer(t *testing.T) *httptest.Server {
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

	intentSvc := service.NewIntentService(store.Intents, store.Diffs, q)
	groupSvc := service.NewGroupService(store.Groups, store.Intents)

	mux := http.NewServeMux()
	RegisterRoutes(mux,
		NewIntentHandler(intentSvc),
		NewGroupHandler(groupSvc),
		NewJobHandler(q),
		nil,
	)

	srv := httptest.NewServer(Chain(mux,
		Recover,
		CORS,
		Logger,
		APIKey("x-api-key", testToken),
	))
	t.Cleanup(srv.Close)
	return srv
}

func doRequest(t *testing.T, srv *httptest.Server, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, srv.URL+path, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("x-api-key", testToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	return resp, raw
}

func decodeError(t *testing.T, raw []byte) domain.Error {
	t.Helper()
	var apiErr domain.Error
	if err := json.Unmarshal(raw, &apiErr); err != nil {
		t.Fatalf("failed to decode error body %q: %v", raw, err)
	}
	return apiErr
}

const testConfig = `<configuration><system><host-name>edge</host-name></system></configuration>`
const testFilter = `<configuration><system/></configuration>`

func TestAuthentication(t *testing.T) {
	srv := newTestServer(t)

	t.Run("missing key is rejected", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/v1/intents")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("valid key passes", func(t *testing.T) {
		resp, _ := doRequest(t, srv, http.MethodGet, "/v1/intents", nil)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected 200, got %d", resp.StatusCode)
		}
	})

	t.Run("preflight bypasses auth", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/v1/intents", nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNoContent {
			t.Errorf("expected 204, got %d", resp.StatusCode)
		}
	})
}

func TestFullIntentEndpoints(t *testing.T) {
	srv := newTestServer(t)

	var created domain.Intent

	t.Run("create returns the canonical record", func(t *testing.T) {
		resp, raw := doRequest(t, srv, http.MethodPost, "/v1/intents/full", FullCreateRequest{
			Hostname: "edge-01",
			Config:   testConfig,
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", resp.StatusCode, raw)
		}
		if err := json.Unmarshal(raw, &created); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if created.ID == "" || len(created.ConfigHash) != 64 {
			t.Errorf("unexpected record: %+v", created)
		}
	})

	t.Run("duplicate hostname returns the conflict body", func(t *testing.T) {
		resp, raw := doRequest(t, srv, http.MethodPost, "/v1/intents/full", FullCreateRequest{
			Hostname: "edge-01",
			Config:   testConfig,
		})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.StatusCode)
		}
		apiErr := decodeError(t, raw)
		if apiErr.Code != domain.CodeFullIntentAlreadyExists {
			t.Errorf("expected code %d, got %d", domain.CodeFullIntentAlreadyExists, apiErr.Code)
		}
	})

	t.Run("malformed config returns the parse error", func(t *testing.T) {
		resp, raw := doRequest(t, srv, http.MethodPost, "/v1/intents/full", FullCreateRequest{
			Hostname: "edge-02",
			Config:   "<configuration>",
		})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.StatusCode)
		}
		if apiErr := decodeError(t, raw); apiErr.Code != domain.CodeMalformedDocument {
			t.Errorf("expected code %d, got %d", domain.CodeMalformedDocument, apiErr.Code)
		}
	})

	t.Run("get and patch round-trip", func(t *testing.T) {
		resp, raw := doRequest(t, srv, http.MethodGet, "/v1/intents/full/"+created.ID, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", resp.StatusCode, raw)
		}

		resp, raw = doRequest(t, srv, http.MethodPatch, "/v1/intents/full/"+created.ID, map[string]any{
			"description": "updated",
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", resp.StatusCode, raw)
		}
		var updated domain.Intent
		if err := json.Unmarshal(raw, &updated); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if updated.Description != "updated" {
			t.Errorf("unexpected description: %q", updated.Description)
		}
	})

	t.Run("hostname patch is rejected", func(t *testing.T) {
		resp, raw := doRequest(t, srv, http.MethodPatch, "/v1/intents/full/"+created.ID, map[string]any{
			"hostname": "edge-99",
		})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.StatusCode)
		}
		if apiErr := decodeError(t, raw); apiErr.Code != domain.CodeHostnameLock {
			t.Errorf("expected code %d, got %d", domain.CodeHostnameLock, apiErr.Code)
		}
	})

	t.Run("delete then get reports not found", func(t *testing.T) {
		resp, _ := doRequest(t, srv, http.MethodDelete, "/v1/intents/full/"+created.ID, nil)
		if resp.StatusCode != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", resp.StatusCode)
		}

		resp, raw := doRequest(t, srv, http.MethodGet, "/v1/intents/full/"+created.ID, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.StatusCode)
		}
		if apiErr := decodeError(t, raw); apiErr.Code != domain.CodeFullIntentNotFound {
			t.Errorf("expected code %d, got %d", domain.CodeFullIntentNotFound, apiErr.Code)
		}
	})
}

func TestCombinedIntentEndpoints(t *testing.T) {
	srv := newTestServer(t)

	t.Run("create enqueues a discovery job", func(t *testing.T) {
		resp, raw := doRequest(t, srv, http.MethodPost, "/v1/intents", CreateRequest{
			Hostname: "edge-10",
			Username: "admin",
			Password: "admin",
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", resp.StatusCode, raw)
		}
		var body CreateResponse
		if err := json.Unmarshal(raw, &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Intent.LastDiscoveryID != body.Job.ID {
			t.Errorf("expected matching discovery id, got %s vs %s", body.Intent.LastDiscoveryID, body.Job.ID)
		}

		resp, raw = doRequest(t, srv, http.MethodGet, "/v1/jobs/"+body.Job.ID, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", resp.StatusCode, raw)
		}
	})

	t.Run("diff on a missing intent reports not found", func(t *testing.T) {
		resp, raw := doRequest(t, srv, http.MethodPost, "/v1/intents/no-such-id/diff", DiscoveryRequest{Username: "admin"})
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", resp.StatusCode)
		}
		if apiErr := decodeError(t, raw); apiErr.Code != domain.CodeNotFound {
			t.Errorf("expected code %d, got %d", domain.CodeNotFound, apiErr.Code)
		}
	})

	t.Run("diffs listing starts empty", func(t *testing.T) {
		_, raw := doRequest(t, srv, http.MethodPost, "/v1/intents/full", FullCreateRequest{
			Hostname: "edge-11",
			Config:   testConfig,
		})
		var intent domain.Intent
		if err := json.Unmarshal(raw, &intent); err != nil {
			t.Fatalf("decode: %v", err)
		}

		resp, raw := doRequest(t, srv, http.MethodGet, fmt.Sprintf("/v1/intents/%s/diffs", intent.ID), nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", resp.StatusCode, raw)
		}
		var diffs []domain.IntentDiff
		if err := json.Unmarshal(raw, &diffs); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(diffs) != 0 {
			t.Errorf("expected empty list, got %d", len(diffs))
		}
	})
}

func TestGroupEndpoints(t *testing.T) {
	srv := newTestServer(t)

	_, raw := doRequest(t, srv, http.MethodPost, "/v1/intents/partial", PartialCreateRequest{
		Config: testConfig,
		Filter: testFilter,
	})
	var member domain.Intent
	if err := json.Unmarshal(raw, &member); err != nil {
		t.Fatalf("decode: %v", err)
	}

	var group domain.IntentGroup

	t.Run("create materializes members", func(t *testing.T) {
		resp, raw := doRequest(t, srv, http.MethodPost, "/v1/intents/groups", domain.IntentGroupCreate{
			Label:   "baseline",
			Intents: []string{member.ID},
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", resp.StatusCode, raw)
		}
		if err := json.Unmarshal(raw, &group); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(group.Intents) != 1 || group.Intents[0].ID != member.ID {
			t.Errorf("unexpected members: %+v", group.Intents)
		}
	})

	t.Run("patch reports not implemented", func(t *testing.T) {
		resp, raw := doRequest(t, srv, http.MethodPatch, "/v1/intents/groups/"+group.ID, map[string]any{})
		if resp.StatusCode != http.StatusNotImplemented {
			t.Fatalf("expected 501, got %d", resp.StatusCode)
		}
		if apiErr := decodeError(t, raw); apiErr.Code != domain.CodeNotImplemented {
			t.Errorf("expected code %d, got %d", domain.CodeNotImplemented, apiErr.Code)
		}
	})

	t.Run("duplicate ownership surfaces through the API", func(t *testing.T) {
		resp, raw := doRequest(t, srv, http.MethodPost, "/v1/intents/groups", domain.IntentGroupCreate{
			Label:   "second",
			Intents: []string{member.ID, member.ID},
		})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.StatusCode)
		}
		if apiErr := decodeError(t, raw); apiErr.Code != domain.CodeDuplicateOwnership {
			t.Errorf("expected code %d, got %d", domain.CodeDuplicateOwnership, apiErr.Code)
		}
	})
}

func TestJobEndpoints(t *testing.T) {
	srv := newTestServer(t)

	t.Run("missing job reports not found", func(t *testing.T) {
		resp, raw := doRequest(t, srv, http.MethodGet, "/v1/jobs/no-such-job", nil)
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", resp.StatusCode)
		}
		if apiErr := decodeError(t, raw); apiErr.Code != domain.CodeNotFound {
			t.Errorf("expected code %d, got %d", domain.CodeNotFound, apiErr.Code)
		}
	})

	t.Run("flush reports the removed count", func(t *testing.T) {
		resp, raw := doRequest(t, srv, http.MethodDelete, "/v1/jobs/flush", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", resp.StatusCode, raw)
		}
		var body map[string]int64
		if err := json.Unmarshal(raw, &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body["flushed"] != 0 {
			t.Errorf("expected 0 flushed, got %d", body["flushed"])
		}
	})
}
