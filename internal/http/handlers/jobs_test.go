package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"assetgen/internal/adapter/repo"
	"assetgen/internal/batch"
	"assetgen/internal/dispatch"
	"assetgen/internal/domain"
	"assetgen/internal/http/handlers"
	"assetgen/internal/http/httpapi"
	"assetgen/internal/providers"
)

type imageStub struct{}

func (imageStub) Name() string { return "gemini" }

func (imageStub) Supports(jobType domain.JobType, op domain.Operation) bool {
	return jobType == domain.JobTypeImage && op == domain.OpGenerate
}

func (imageStub) Invoke(ctx context.Context, req providers.Request) (*providers.Result, error) {
	return &providers.Result{Data: []byte("x"), MIME: "image/png", Quantity: 1}, nil
}

type silentSink struct{}

func (silentSink) Publish(domain.Event) {}

func newTestServer(t *testing.T) (*httptest.Server, *repo.Memory) {
	t.Helper()
	mem := repo.NewMemory()
	log := zerolog.Nop()
	reg := providers.NewRegistry(imageStub{})
	d := dispatch.New(mem.Jobs(), mem.Batches(), reg, silentSink{}, log)
	app := &handlers.App{
		Dispatcher: d,
		Batches:    batch.NewCoordinator(mem.Batches(), mem.Jobs(), d, log),
		Jobs:       mem.Jobs(),
		Webhooks:   mem.Webhooks(),
		Deliveries: mem.Deliveries(),
		Usage:      mem.Usage(),
		Log:        log,
	}
	srv := httptest.NewServer(httpapi.NewRouter(app))
	t.Cleanup(srv.Close)
	return srv, mem
}

func doJSON(t *testing.T, method, url, user, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	var decoded map[string]any
	if resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp, decoded
}

func TestJobsSubmitAndStatus(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/v1/jobs", "user-1",
		`{"type":"image","operation":"generate","provider":"gemini","config":{"prompt":"a quiet harbor"}}`)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202 (%v)", resp.StatusCode, body)
	}
	jobID, _ := body["id"].(string)
	if jobID == "" {
		t.Fatalf("no job id in %v", body)
	}
	if body["status"] != "pending" {
		t.Fatalf("status field = %v, want pending", body["status"])
	}

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/v1/jobs/"+jobID, "user-1", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["id"] != jobID {
		t.Fatalf("fetched id = %v, want %s", body["id"], jobID)
	}

	// Another user cannot see the job.
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/v1/jobs/"+jobID, "user-2", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("cross-user status = %d, want 404", resp.StatusCode)
	}
}

func TestJobsSubmitRejectsUnsupported(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/v1/jobs", "user-1",
		`{"type":"video","operation":"remove_background","provider":"gemini","config":{"video_url":"https://example.com/v.mp4"}}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if body["error"] != "unsupported_operation" {
		t.Fatalf("error = %v, want unsupported_operation", body["error"])
	}
}

func TestJobsSubmitSurfacesConfigFields(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/v1/jobs", "user-1",
		`{"type":"image","operation":"generate","provider":"gemini","config":{"quantity":99}}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if body["error"] != "invalid_config" {
		t.Fatalf("error = %v, want invalid_config", body["error"])
	}
	fields, _ := body["fields"].([]any)
	if len(fields) == 0 {
		t.Fatalf("expected field names in %v", body)
	}
}

func TestJobsRequireUserHeader(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/v1/jobs", "", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestWebhookLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/v1/webhooks", "user-1",
		`{"url":"https://hooks.example.com/jobs","events":["job.completed","job.failed"],"secret":"s3cret"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (%v)", resp.StatusCode, body)
	}
	hookID, _ := body["id"].(string)
	if hookID == "" || body["has_secret"] != true {
		t.Fatalf("unexpected webhook view %v", body)
	}

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/v1/webhooks/"+hookID, "user-1", "")
	if resp.StatusCode != http.StatusOK || body["id"] != hookID {
		t.Fatalf("get failed: %d %v", resp.StatusCode, body)
	}
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/v1/webhooks/"+hookID, "user-2", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("cross-user get = %d, want 404", resp.StatusCode)
	}

	resp, body = doJSON(t, http.MethodPut, srv.URL+"/v1/webhooks/"+hookID, "user-1",
		`{"is_active":false}`)
	if resp.StatusCode != http.StatusOK || body["is_active"] != false {
		t.Fatalf("update failed: %d %v", resp.StatusCode, body)
	}

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/v1/webhooks", "user-1",
		`{"url":"https://hooks.example.com/x","events":["job.exploded"]}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown event accepted: %d %v", resp.StatusCode, body)
	}

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/v1/webhooks/"+hookID, "user-1", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", resp.StatusCode)
	}
}

func TestBatchEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/v1/batches", "user-1",
		`{"name":"shots","jobs":[
			{"type":"image","operation":"generate","provider":"gemini","config":{"prompt":"front"}},
			{"type":"image","operation":"generate","provider":"gemini","config":{"prompt":"back"}}
		]}`)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202 (%v)", resp.StatusCode, body)
	}
	batchID, _ := body["batch_id"].(string)
	if batchID == "" {
		t.Fatalf("no batch_id in %v", body)
	}

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/v1/batches/"+batchID+"/progress", "user-1", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("progress status = %d", resp.StatusCode)
	}
	if body["total"] != float64(2) || body["status"] != "pending" {
		t.Fatalf("progress = %v, want total 2 pending", body)
	}

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/v1/batches/"+batchID+"/cancel", "user-1", "")
	if resp.StatusCode != http.StatusOK || body["status"] != "cancelled" {
		t.Fatalf("cancel = %d %v", resp.StatusCode, body)
	}
}
