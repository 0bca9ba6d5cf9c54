// Package batch groups job submissions into named units and derives their
// aggregate progress from the live states of the child jobs.
package batch

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"assetgen/internal/dispatch"
	"assetgen/internal/domain"
	"assetgen/internal/infra"
)

// CreateRequest is one batch submission.
type CreateRequest struct {
	OwnerID     string
	Name        string
	Description string
	Jobs        []dispatch.Submission
}

// Coordinator creates batches and answers progress queries. All specs are
// validated before the batch row or any job exists, so a batch either starts
// with every requested job pending or is rejected whole.
type Coordinator struct {
	batches    domain.BatchRepository
	jobs       domain.JobRepository
	dispatcher *dispatch.Dispatcher
	log        infra.Logger
}

func NewCoordinator(batches domain.BatchRepository, jobs domain.JobRepository, dispatcher *dispatch.Dispatcher, log infra.Logger) *Coordinator {
	return &Coordinator{batches: batches, jobs: jobs, dispatcher: dispatcher, log: log}
}

// Create validates every job spec, creates the batch, then submits the jobs
// under it. TotalJobs is fixed here and never changes.
func (c *Coordinator) Create(ctx context.Context, req CreateRequest) (*domain.Batch, []domain.Job, error) {
	if len(req.Jobs) == 0 {
		return nil, nil, &domain.ConfigError{Fields: []string{"jobs"}}
	}

	for i := range req.Jobs {
		req.Jobs[i].OwnerID = req.OwnerID
		req.Jobs[i].BatchID = nil
		if err := c.dispatcher.Validate(ctx, req.Jobs[i]); err != nil {
			return nil, nil, fmt.Errorf("job %d: %w", i, err)
		}
	}

	batch := &domain.Batch{
		ID:          uuid.NewString(),
		OwnerID:     req.OwnerID,
		Name:        req.Name,
		Description: req.Description,
		TotalJobs:   len(req.Jobs),
	}
	if err := c.batches.Create(ctx, batch); err != nil {
		return nil, nil, fmt.Errorf("create batch: %w", err)
	}

	jobs := make([]domain.Job, 0, len(req.Jobs))
	for i := range req.Jobs {
		req.Jobs[i].BatchID = &batch.ID
		job, err := c.dispatcher.Submit(ctx, req.Jobs[i])
		if err != nil {
			// Specs were vetted above; a failure here is infrastructure, not
			// input. Jobs already created keep running under the batch.
			c.log.Error().Err(err).Str("batch_id", batch.ID).Int("index", i).Msg("batch job submit failed")
			return batch, jobs, fmt.Errorf("submit job %d: %w", i, err)
		}
		jobs = append(jobs, *job)
	}

	c.log.Info().
		Str("batch_id", batch.ID).
		Int("total_jobs", batch.TotalJobs).
		Msg("batch created")
	return batch, jobs, nil
}

// Progress derives the batch's aggregate status from the live child counts.
// Nothing here is stored; two calls straddling a job completion see two
// different answers.
func (c *Coordinator) Progress(ctx context.Context, batchID, ownerID string) (*domain.BatchProgress, error) {
	batch, err := c.batches.GetForOwner(ctx, batchID, ownerID)
	if err != nil {
		return nil, err
	}
	counts, err := c.jobs.CountByBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	return &domain.BatchProgress{
		BatchID:   batch.ID,
		Total:     batch.TotalJobs,
		Completed: counts.Completed,
		Failed:    counts.Failed,
		Status:    domain.DeriveBatchStatus(batch.TotalJobs, counts.Completed, counts.Failed, batch.Cancelled),
	}, nil
}

// Cancel blocks further submissions under the batch. Jobs already dispatched
// are not touched; they run to their own terminal states.
func (c *Coordinator) Cancel(ctx context.Context, batchID, ownerID string) error {
	if err := c.batches.SetCancelled(ctx, batchID, ownerID); err != nil {
		return err
	}
	c.log.Info().Str("batch_id", batchID).Msg("batch cancelled")
	return nil
}
