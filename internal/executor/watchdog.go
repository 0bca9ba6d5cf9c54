package executor

import (
	"context"
	"time"

	"assetgen/internal/domain"
	"assetgen/internal/infra"
)

const staleJobMessage = "job timed out while processing"

// Watchdog fails processing jobs whose worker died mid-flight. Without it a
// crashed worker would leave jobs in processing forever, violating the rule
// that every job eventually reaches a terminal state.
//
// The cutoff is the executor's per-type provider budget plus a grace margin:
// updated_at is stamped at the claim, but the provider deadline starts after
// it and the completion work (storage write, pricing, the completed
// transition) runs after the provider returns. Sweeping at the bare budget
// would race a legitimately slow success and discard a vendor-billed result.
type Watchdog struct {
	jobs domain.JobRepository
	sink domain.EventSink
	log  infra.Logger

	imageCutoffAge time.Duration
	videoCutoffAge time.Duration
}

func NewWatchdog(jobs domain.JobRepository, sink domain.EventSink, log infra.Logger, imageTimeout, videoTimeout, grace time.Duration) *Watchdog {
	if imageTimeout <= 0 {
		imageTimeout = 2 * time.Minute
	}
	if videoTimeout <= 0 {
		videoTimeout = 30 * time.Minute
	}
	if grace < 0 {
		grace = 0
	}
	return &Watchdog{
		jobs:           jobs,
		sink:           sink,
		log:            log,
		imageCutoffAge: imageTimeout + grace,
		videoCutoffAge: videoTimeout + grace,
	}
}

// Sweep fails every processing job whose last update predates its per-type
// cutoff and emits job.failed for each.
func (w *Watchdog) Sweep(ctx context.Context) error {
	now := time.Now()
	failed, err := w.jobs.FailStale(ctx, now.Add(-w.imageCutoffAge), now.Add(-w.videoCutoffAge), staleJobMessage)
	if err != nil {
		return err
	}
	for i := range failed {
		w.sink.Publish(domain.Event{Name: domain.EventJobFailed, Job: failed[i]})
		w.log.Warn().
			Str("job_id", failed[i].ID).
			Str("type", string(failed[i].Type)).
			Msg("stale job failed by watchdog")
	}
	return nil
}
