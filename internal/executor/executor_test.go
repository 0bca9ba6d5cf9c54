package executor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"assetgen/internal/adapter/repo"
	"assetgen/internal/domain"
	"assetgen/internal/providers"
)

type scriptedAdapter struct {
	name    string
	invoked atomic.Int64
	result  *providers.Result
	err     error
	panics  bool
}

func (a *scriptedAdapter) Name() string { return a.name }

func (a *scriptedAdapter) Supports(domain.JobType, domain.Operation) bool { return true }

func (a *scriptedAdapter) Invoke(ctx context.Context, req providers.Request) (*providers.Result, error) {
	a.invoked.Add(1)
	if a.panics {
		panic("adapter blew up")
	}
	return a.result, a.err
}

type memorySink struct {
	events []domain.Event
}

func (s *memorySink) Publish(ev domain.Event) { s.events = append(s.events, ev) }

func (s *memorySink) names() []string {
	out := make([]string, len(s.events))
	for i, ev := range s.events {
		out[i] = ev.Name
	}
	return out
}

type nullStore struct{}

func (nullStore) Write(ctx context.Context, key string, data []byte) (string, error) {
	return key, nil
}

func (nullStore) URL(key string) string { return "http://assets.local/" + key }

func seedJob(t *testing.T, mem *repo.Memory, jobType domain.JobType, provider string) *domain.Job {
	t.Helper()
	job := &domain.Job{
		ID:        "job-" + string(jobType) + "-" + provider,
		OwnerID:   "user-1",
		Type:      jobType,
		Operation: domain.OpGenerate,
		Provider:  provider,
		Model:     "test-model",
		Config:    []byte(`{"prompt":"test prompt for execution"}`),
		Status:    domain.JobStatusPending,
	}
	if err := mem.Jobs().Create(context.Background(), job); err != nil {
		t.Fatalf("seed job: %v", err)
	}
	return job
}

func newExecutor(mem *repo.Memory, adapter providers.Adapter, sink domain.EventSink) *Executor {
	return New(mem.Jobs(), mem.Usage(), providers.NewRegistry(adapter),
		nullStore{}, sink, zerolog.Nop(), Options{})
}

func TestExecuteCompletesJob(t *testing.T) {
	mem := repo.NewMemory()
	sink := &memorySink{}
	adapter := &scriptedAdapter{
		name:   "gemini",
		result: &providers.Result{Data: []byte("png bytes"), MIME: "image/png", Quantity: 1},
	}
	exec := newExecutor(mem, adapter, sink)
	job := seedJob(t, mem, domain.JobTypeImage, "gemini")

	if err := exec.Execute(context.Background(), job.ID); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	got, err := mem.Jobs().GetByID(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != domain.JobStatusCompleted {
		t.Fatalf("status = %s, want completed", got.Status)
	}
	if got.ResultURL == nil || *got.ResultURL == "" {
		t.Fatal("completed job must carry a result url")
	}
	if got.ErrorMessage != nil {
		t.Fatalf("completed job must not carry an error, got %q", *got.ErrorMessage)
	}
	if got.CostUSD == nil {
		t.Fatal("terminal job must carry a cost")
	}

	want := []string{domain.EventJobProcessing, domain.EventJobCompleted}
	if names := sink.names(); len(names) != 2 || names[0] != want[0] || names[1] != want[1] {
		t.Fatalf("events = %v, want %v", names, want)
	}

	usage, err := mem.Usage().Summary(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if len(usage) != 1 || usage[0].Jobs != 1 {
		t.Fatalf("expected one usage row, got %+v", usage)
	}
}

func TestExecuteFailsJobOnProviderError(t *testing.T) {
	mem := repo.NewMemory()
	sink := &memorySink{}
	adapter := &scriptedAdapter{name: "gemini", err: errors.New("quota exceeded")}
	exec := newExecutor(mem, adapter, sink)
	job := seedJob(t, mem, domain.JobTypeImage, "gemini")

	if err := exec.Execute(context.Background(), job.ID); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	got, _ := mem.Jobs().GetByID(context.Background(), job.ID)
	if got.Status != domain.JobStatusFailed {
		t.Fatalf("status = %s, want failed", got.Status)
	}
	if got.ErrorMessage == nil {
		t.Fatal("failed job must carry an error message")
	}
	if got.ResultURL != nil {
		t.Fatal("failed job must not carry a result url")
	}
	if got.CostUSD == nil || *got.CostUSD != 0 {
		t.Fatalf("failed job cost must be zero, got %v", got.CostUSD)
	}
}

func TestExecuteSurvivesAdapterPanic(t *testing.T) {
	mem := repo.NewMemory()
	sink := &memorySink{}
	adapter := &scriptedAdapter{name: "gemini", panics: true}
	exec := newExecutor(mem, adapter, sink)
	job := seedJob(t, mem, domain.JobTypeImage, "gemini")

	if err := exec.Execute(context.Background(), job.ID); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	got, _ := mem.Jobs().GetByID(context.Background(), job.ID)
	if got.Status != domain.JobStatusFailed {
		t.Fatalf("status = %s, want failed after panic", got.Status)
	}
}

func TestExecuteSkipsAlreadyClaimedJob(t *testing.T) {
	mem := repo.NewMemory()
	sink := &memorySink{}
	adapter := &scriptedAdapter{
		name:   "gemini",
		result: &providers.Result{Data: []byte("x"), MIME: "image/png", Quantity: 1},
	}
	exec := newExecutor(mem, adapter, sink)
	job := seedJob(t, mem, domain.JobTypeImage, "gemini")

	if err := exec.Execute(context.Background(), job.ID); err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	// Redelivery of the same id: the claim fails quietly, nothing reruns.
	if err := exec.Execute(context.Background(), job.ID); err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if n := adapter.invoked.Load(); n != 1 {
		t.Fatalf("adapter invoked %d times, want exactly 1", n)
	}
}

func TestExecuteUsesSourceURLWhenProviderHostsResult(t *testing.T) {
	mem := repo.NewMemory()
	sink := &memorySink{}
	adapter := &scriptedAdapter{
		name:   "unscreen",
		result: &providers.Result{SourceURL: "https://cdn.unscreen.com/out.mp4", MIME: "video/mp4", DurationSeconds: 5},
	}
	exec := newExecutor(mem, adapter, sink)
	job := seedJob(t, mem, domain.JobTypeVideo, "unscreen")

	if err := exec.Execute(context.Background(), job.ID); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	got, _ := mem.Jobs().GetByID(context.Background(), job.ID)
	if got.ResultURL == nil || *got.ResultURL != "https://cdn.unscreen.com/out.mp4" {
		t.Fatalf("result url = %v, want provider-hosted url", got.ResultURL)
	}
}

// raceAdapter terminally fails the job through the store while the provider
// call is still in flight, the way a concurrent sweep would.
type raceAdapter struct {
	mem *repo.Memory
}

func (raceAdapter) Name() string { return "gemini" }

func (raceAdapter) Supports(domain.JobType, domain.Operation) bool { return true }

func (a raceAdapter) Invoke(ctx context.Context, req providers.Request) (*providers.Result, error) {
	msg := "job timed out while processing"
	zero := 0.0
	if _, err := a.mem.Jobs().Transition(ctx, req.JobID, domain.JobStatusFailed, domain.TransitionAttrs{
		ErrorMessage: &msg,
		CostUSD:      &zero,
	}); err != nil {
		return nil, err
	}
	return &providers.Result{Data: []byte("late but good"), MIME: "image/png", Quantity: 1}, nil
}

func TestExecuteStandsDownWhenSweepWinsTerminalRace(t *testing.T) {
	mem := repo.NewMemory()
	sink := &memorySink{}
	exec := newExecutor(mem, raceAdapter{mem: mem}, sink)
	job := seedJob(t, mem, domain.JobTypeImage, "gemini")

	// The completed transition loses to the already-failed row; that is a
	// quiet loss, not an executor error.
	if err := exec.Execute(context.Background(), job.ID); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	got, _ := mem.Jobs().GetByID(context.Background(), job.ID)
	if got.Status != domain.JobStatusFailed {
		t.Fatalf("status = %s, want failed to stand", got.Status)
	}
	if got.ResultURL != nil {
		t.Fatal("failed job must not gain a result url from the losing writer")
	}
	if got.CostUSD == nil || *got.CostUSD != 0 {
		t.Fatalf("cost = %v, want the zero recorded at failure", got.CostUSD)
	}
}

func TestWatchdogGraceSparesInFlightJobs(t *testing.T) {
	mem := repo.NewMemory()
	sink := &memorySink{}
	job := seedJob(t, mem, domain.JobTypeImage, "gemini")
	if _, err := mem.Jobs().Transition(context.Background(), job.ID, domain.JobStatusProcessing, domain.TransitionAttrs{}); err != nil {
		t.Fatalf("claim: %v", err)
	}

	// The bare budget has elapsed but the grace has not; the job may still
	// be finishing its completion writes.
	wd := NewWatchdog(mem.Jobs(), sink, zerolog.Nop(), time.Nanosecond, time.Nanosecond, time.Hour)
	time.Sleep(5 * time.Millisecond)
	if err := wd.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	got, _ := mem.Jobs().GetByID(context.Background(), job.ID)
	if got.Status != domain.JobStatusProcessing {
		t.Fatalf("status = %s, want processing left alone within grace", got.Status)
	}
	if len(sink.events) != 0 {
		t.Fatalf("events = %v, want none", sink.events)
	}
}

func TestWatchdogFailsStaleJobs(t *testing.T) {
	mem := repo.NewMemory()
	sink := &memorySink{}
	job := seedJob(t, mem, domain.JobTypeImage, "gemini")
	if _, err := mem.Jobs().Transition(context.Background(), job.ID, domain.JobStatusProcessing, domain.TransitionAttrs{}); err != nil {
		t.Fatalf("claim: %v", err)
	}

	// Zero-ish timeouts make the just-claimed job look abandoned.
	wd := NewWatchdog(mem.Jobs(), sink, zerolog.Nop(), time.Nanosecond, time.Nanosecond, 0)
	time.Sleep(5 * time.Millisecond)
	if err := wd.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	got, _ := mem.Jobs().GetByID(context.Background(), job.ID)
	if got.Status != domain.JobStatusFailed {
		t.Fatalf("status = %s, want failed", got.Status)
	}
	if got.CostUSD == nil || *got.CostUSD != 0 {
		t.Fatalf("watchdog-failed job cost must be zero, got %v", got.CostUSD)
	}
	if names := sink.names(); len(names) != 1 || names[0] != domain.EventJobFailed {
		t.Fatalf("events = %v, want one job.failed", names)
	}
}
