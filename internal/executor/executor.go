// Package executor claims pending jobs, drives the provider call, and records
// the terminal outcome. Every state change goes through the job store's
// conditional transition, so a job redelivered to two workers is executed by
// exactly one of them.
package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"assetgen/internal/domain"
	"assetgen/internal/infra"
	"assetgen/internal/pricing"
	"assetgen/internal/providers"
)

// BlobStore is the slice of object storage the executor needs.
type BlobStore interface {
	Write(ctx context.Context, key string, data []byte) (string, error)
	URL(key string) string
}

// Options tunes per-type provider deadlines.
type Options struct {
	ImageTimeout time.Duration
	VideoTimeout time.Duration
}

// Executor runs one job end to end.
type Executor struct {
	jobs     domain.JobRepository
	usage    domain.UsageRepository
	registry *providers.Registry
	store    BlobStore
	sink     domain.EventSink
	log      infra.Logger
	opts     Options
}

func New(jobs domain.JobRepository, usage domain.UsageRepository, registry *providers.Registry, store BlobStore, sink domain.EventSink, log infra.Logger, opts Options) *Executor {
	if opts.ImageTimeout <= 0 {
		opts.ImageTimeout = 2 * time.Minute
	}
	if opts.VideoTimeout <= 0 {
		opts.VideoTimeout = 30 * time.Minute
	}
	return &Executor{jobs: jobs, usage: usage, registry: registry, store: store, sink: sink, log: log, opts: opts}
}

// Execute claims the job and runs it to a terminal state. A claim that loses
// the pending->processing race returns nil: the job was already picked up,
// usually because the queue redelivered it, and must not run twice.
func (e *Executor) Execute(ctx context.Context, jobID string) error {
	job, err := e.jobs.Transition(ctx, jobID, domain.JobStatusProcessing, domain.TransitionAttrs{})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			e.log.Debug().Str("job_id", jobID).Msg("job already claimed, skipping")
			return nil
		}
		return fmt.Errorf("claim job %s: %w", jobID, err)
	}
	e.sink.Publish(domain.Event{Name: domain.EventJobProcessing, Job: *job})

	result, err := e.invoke(ctx, job)
	if err != nil {
		return e.fail(ctx, job, err)
	}
	return e.complete(ctx, job, result)
}

// invoke runs the provider call under the per-type deadline. A panicking
// adapter is converted into an error so the job still reaches failed.
func (e *Executor) invoke(ctx context.Context, job *domain.Job) (result *providers.Result, err error) {
	adapter, ok := e.registry.Get(job.Provider)
	if !ok {
		return nil, fmt.Errorf("%w: no adapter for provider %s", domain.ErrUnsupportedOperation, job.Provider)
	}
	cfg, err := providers.ParseConfig(job.Config)
	if err != nil {
		return nil, err
	}

	timeout := e.opts.ImageTimeout
	if job.Type == domain.JobTypeVideo {
		timeout = e.opts.VideoTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: adapter panic: %v", domain.ErrProviderFailure, r)
		}
	}()

	result, err = adapter.Invoke(callCtx, providers.Request{
		JobID:     job.ID,
		JobType:   job.Type,
		Operation: job.Operation,
		Model:     job.Model,
		Config:    cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}
	return result, nil
}

func (e *Executor) complete(ctx context.Context, job *domain.Job, result *providers.Result) error {
	resultURL := result.SourceURL
	if len(result.Data) > 0 {
		key := assetKey(job, result.MIME)
		storedKey, err := e.store.Write(ctx, key, result.Data)
		if err != nil {
			return e.fail(ctx, job, fmt.Errorf("persist output: %w", err))
		}
		resultURL = e.store.URL(storedKey)
	}
	if resultURL == "" {
		return e.fail(ctx, job, fmt.Errorf("%w: provider returned no output", domain.ErrProviderFailure))
	}

	cost := pricing.Estimate(job.Provider, job.Model, job.Type, pricing.Inputs{
		Quantity:        result.Quantity,
		DurationSeconds: result.DurationSeconds,
		Size:            result.Size,
		Quality:         result.Quality,
		Resolution:      result.Resolution,
	})

	done, err := e.jobs.Transition(ctx, job.ID, domain.JobStatusCompleted, domain.TransitionAttrs{
		ResultURL: &resultURL,
		CostUSD:   &cost,
	})
	if err != nil {
		// The watchdog can terminally fail a job whose provider call ran
		// close to its budget before this write lands. The job is already
		// terminal; log the discarded result and stand down.
		if errors.Is(err, domain.ErrInvalidTransition) {
			e.log.Warn().
				Str("job_id", job.ID).
				Str("result_url", resultURL).
				Msg("job no longer processing, completed result discarded")
			return nil
		}
		return fmt.Errorf("complete job %s: %w", job.ID, err)
	}
	e.sink.Publish(domain.Event{Name: domain.EventJobCompleted, Job: *done})

	quantity := result.Quantity
	if job.Type == domain.JobTypeVideo {
		quantity = result.DurationSeconds
	}
	if quantity < 1 {
		quantity = 1
	}
	usageErr := e.usage.Record(ctx, &domain.UsageLog{
		ID:           uuid.NewString(),
		OwnerID:      done.OwnerID,
		JobID:        done.ID,
		Provider:     done.Provider,
		ResourceType: done.Type,
		Quantity:     quantity,
		CostUSD:      cost,
	})
	if usageErr != nil {
		// The job already completed; usage is advisory, not part of the
		// lifecycle contract.
		e.log.Error().Err(usageErr).Str("job_id", done.ID).Msg("record usage failed")
	}

	e.log.Info().
		Str("job_id", done.ID).
		Str("provider", done.Provider).
		Float64("cost_usd", cost).
		Msg("job completed")
	return nil
}

// fail records a terminal failure with zero cost. Context cancellation at
// this point still must not leave the job stuck in processing, so the write
// uses a short detached context when the caller's is already dead.
func (e *Executor) fail(ctx context.Context, job *domain.Job, cause error) error {
	writeCtx := ctx
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		writeCtx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
	}

	msg := cause.Error()
	zero := 0.0
	failed, err := e.jobs.Transition(writeCtx, job.ID, domain.JobStatusFailed, domain.TransitionAttrs{
		ErrorMessage: &msg,
		CostUSD:      &zero,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			e.log.Warn().
				Str("job_id", job.ID).
				Str("cause", msg).
				Msg("job no longer processing, already failed elsewhere")
			return nil
		}
		return fmt.Errorf("fail job %s after %q: %w", job.ID, msg, err)
	}
	e.sink.Publish(domain.Event{Name: domain.EventJobFailed, Job: *failed})

	e.log.Warn().
		Str("job_id", job.ID).
		Str("provider", job.Provider).
		Err(cause).
		Msg("job failed")
	return nil
}

func assetKey(job *domain.Job, mime string) string {
	return fmt.Sprintf("%s/%s/%s%s", job.OwnerID, job.Type, job.ID, extensionFor(mime))
}

func extensionFor(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "video/mp4":
		return ".mp4"
	case "video/webm":
		return ".webm"
	}
	return ".bin"
}
