// Package dispatch validates job submissions and creates pending job records.
// It is the only write path into the job store besides the executor's
// transitions.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"assetgen/internal/domain"
	"assetgen/internal/infra"
	"assetgen/internal/pricing"
	"assetgen/internal/providers"
)

// defaultModels maps a provider to the model used when the caller does not
// name one.
var defaultModels = map[string]string{
	"gemini":   "gemini-2.5-flash-image",
	"imagen":   "imagen-4.0-fast-generate-001",
	"openai":   "gpt-image-1",
	"veo":      "veo-3.1-fast",
	"sora":     "sora-2",
	"unscreen": "unscreen-pro",
}

// Submission is one job request as received from the API or the batch
// coordinator.
type Submission struct {
	OwnerID   string
	Type      domain.JobType
	Operation domain.Operation
	Provider  string
	Model     string
	Config    json.RawMessage
	BatchID   *string
}

// Dispatcher turns submissions into pending jobs. Validation happens before
// any write; a job row is only created for a request a registered provider
// can actually serve.
type Dispatcher struct {
	jobs     domain.JobRepository
	batches  domain.BatchRepository
	registry *providers.Registry
	sink     domain.EventSink
	log      infra.Logger
}

func New(jobs domain.JobRepository, batches domain.BatchRepository, registry *providers.Registry, sink domain.EventSink, log infra.Logger) *Dispatcher {
	return &Dispatcher{jobs: jobs, batches: batches, registry: registry, sink: sink, log: log}
}

// Validate runs every submission check without writing anything. The batch
// coordinator uses it to vet a whole batch before creating any rows.
func (d *Dispatcher) Validate(ctx context.Context, sub Submission) error {
	if sub.Provider == "" {
		sub.Provider = pricing.RecommendProvider(sub.Type, "balanced")
	}
	if !d.registry.Supports(sub.Provider, sub.Type, sub.Operation) {
		return fmt.Errorf("%w: provider %s cannot perform %s %s",
			domain.ErrUnsupportedOperation, sub.Provider, sub.Type, sub.Operation)
	}
	if err := validateConfig(sub.Type, sub.Operation, sub.Config); err != nil {
		return err
	}
	if sub.BatchID != nil {
		batch, err := d.batches.GetByID(ctx, *sub.BatchID)
		if err != nil {
			return fmt.Errorf("lookup batch %s: %w", *sub.BatchID, err)
		}
		if batch.Cancelled {
			return domain.ErrBatchCancelled
		}
	}
	return nil
}

// Submit validates the request, creates the pending job, and emits
// job.created. The event is published only after the row is committed.
func (d *Dispatcher) Submit(ctx context.Context, sub Submission) (*domain.Job, error) {
	if sub.Provider == "" {
		sub.Provider = pricing.RecommendProvider(sub.Type, "balanced")
	}
	if err := d.Validate(ctx, sub); err != nil {
		return nil, err
	}

	model := sub.Model
	if model == "" {
		model = defaultModels[sub.Provider]
	}

	job := &domain.Job{
		ID:        uuid.NewString(),
		OwnerID:   sub.OwnerID,
		Type:      sub.Type,
		Operation: sub.Operation,
		Provider:  sub.Provider,
		Model:     model,
		Config:    sub.Config,
		Status:    domain.JobStatusPending,
		BatchID:   sub.BatchID,
	}
	if err := d.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	d.log.Info().
		Str("job_id", job.ID).
		Str("provider", job.Provider).
		Str("type", string(job.Type)).
		Str("operation", string(job.Operation)).
		Msg("job accepted")

	d.sink.Publish(domain.Event{Name: domain.EventJobCreated, Job: *job})
	return job, nil
}
