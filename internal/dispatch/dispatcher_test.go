package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"assetgen/internal/adapter/repo"
	"assetgen/internal/domain"
	"assetgen/internal/providers"
)

type fakeAdapter struct {
	name string
	ops  map[domain.JobType][]domain.Operation
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Supports(jobType domain.JobType, op domain.Operation) bool {
	for _, o := range f.ops[jobType] {
		if o == op {
			return true
		}
	}
	return false
}

func (f *fakeAdapter) Invoke(ctx context.Context, req providers.Request) (*providers.Result, error) {
	return &providers.Result{Data: []byte("x"), MIME: "image/png", Quantity: 1}, nil
}

type captureSink struct {
	events []domain.Event
}

func (s *captureSink) Publish(ev domain.Event) { s.events = append(s.events, ev) }

func testDispatcher(t *testing.T) (*Dispatcher, *repo.Memory, *captureSink) {
	t.Helper()
	mem := repo.NewMemory()
	sink := &captureSink{}
	reg := providers.NewRegistry(
		&fakeAdapter{name: "gemini", ops: map[domain.JobType][]domain.Operation{
			domain.JobTypeImage: {domain.OpGenerate, domain.OpEdit, domain.OpPrototype},
		}},
		&fakeAdapter{name: "veo", ops: map[domain.JobType][]domain.Operation{
			domain.JobTypeVideo: {domain.OpGenerate, domain.OpFromImage},
		}},
	)
	d := New(mem.Jobs(), mem.Batches(), reg, sink, zerolog.Nop())
	return d, mem, sink
}

func TestSubmitCreatesPendingJob(t *testing.T) {
	d, _, sink := testDispatcher(t)

	job, err := d.Submit(context.Background(), Submission{
		OwnerID:   "user-1",
		Type:      domain.JobTypeImage,
		Operation: domain.OpGenerate,
		Provider:  "gemini",
		Config:    []byte(`{"prompt":"a lighthouse in fog","quantity":2}`),
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if job.Status != domain.JobStatusPending {
		t.Fatalf("status = %s, want pending", job.Status)
	}
	if job.Model != "gemini-2.5-flash-image" {
		t.Fatalf("model = %s, want default gemini model", job.Model)
	}
	if job.ID == "" {
		t.Fatal("job id not assigned")
	}
	if len(sink.events) != 1 || sink.events[0].Name != domain.EventJobCreated {
		t.Fatalf("expected one job.created event, got %+v", sink.events)
	}
}

func TestSubmitRejectsUnsupportedOperation(t *testing.T) {
	d, _, sink := testDispatcher(t)

	_, err := d.Submit(context.Background(), Submission{
		OwnerID:   "user-1",
		Type:      domain.JobTypeVideo,
		Operation: domain.OpRemoveBackground,
		Provider:  "gemini",
		Config:    []byte(`{"video_url":"https://example.com/v.mp4"}`),
	})
	if !errors.Is(err, domain.ErrUnsupportedOperation) {
		t.Fatalf("err = %v, want ErrUnsupportedOperation", err)
	}
	if len(sink.events) != 0 {
		t.Fatal("no event should be emitted for a rejected submission")
	}
}

func TestSubmitRejectsInvalidConfig(t *testing.T) {
	d, _, _ := testDispatcher(t)

	_, err := d.Submit(context.Background(), Submission{
		OwnerID:   "user-1",
		Type:      domain.JobTypeImage,
		Operation: domain.OpGenerate,
		Provider:  "gemini",
		Config:    []byte(`{"quantity":9}`),
	})
	if !errors.Is(err, domain.ErrInvalidConfig) {
		t.Fatalf("err = %v, want ErrInvalidConfig", err)
	}
	var cfgErr *domain.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("err = %T, want *domain.ConfigError", err)
	}
	want := map[string]bool{"prompt": true, "quantity": true}
	for _, f := range cfgErr.Fields {
		if !want[f] {
			t.Fatalf("unexpected field %q in %v", f, cfgErr.Fields)
		}
		delete(want, f)
	}
	if len(want) != 0 {
		t.Fatalf("missing fields %v from %v", want, cfgErr.Fields)
	}
}

func TestSubmitRejectsCancelledBatch(t *testing.T) {
	d, mem, _ := testDispatcher(t)
	ctx := context.Background()

	batch := &domain.Batch{ID: "batch-1", OwnerID: "user-1", Name: "drop", TotalJobs: 1}
	if err := mem.Batches().Create(ctx, batch); err != nil {
		t.Fatalf("create batch: %v", err)
	}
	if err := mem.Batches().SetCancelled(ctx, batch.ID, "user-1"); err != nil {
		t.Fatalf("cancel batch: %v", err)
	}

	_, err := d.Submit(ctx, Submission{
		OwnerID:   "user-1",
		Type:      domain.JobTypeImage,
		Operation: domain.OpGenerate,
		Provider:  "gemini",
		Config:    []byte(`{"prompt":"banner art"}`),
		BatchID:   &batch.ID,
	})
	if !errors.Is(err, domain.ErrBatchCancelled) {
		t.Fatalf("err = %v, want ErrBatchCancelled", err)
	}
}

func TestSubmitDefaultsProvider(t *testing.T) {
	d, _, _ := testDispatcher(t)

	job, err := d.Submit(context.Background(), Submission{
		OwnerID:   "user-1",
		Type:      domain.JobTypeVideo,
		Operation: domain.OpGenerate,
		Config:    []byte(`{"prompt":"slow pan across a mountain lake"}`),
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if job.Provider != "veo" {
		t.Fatalf("provider = %s, want veo", job.Provider)
	}
}
