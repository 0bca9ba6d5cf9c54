package executor

import (
	"context"
	"errors"
	"sync"
	"time"

	"assetgen/internal/domain"
	"assetgen/internal/infra"
)

// Pool runs a fixed number of workers that poll the job store for pending
// work. Workers race on the oldest pending id; the conditional transition
// inside Execute decides the winner and the losers just poll again.
type Pool struct {
	exec     *Executor
	jobs     domain.JobRepository
	log      infra.Logger
	workers  int
	interval time.Duration
}

func NewPool(exec *Executor, jobs domain.JobRepository, log infra.Logger, workers int, interval time.Duration) *Pool {
	if workers < 1 {
		workers = 1
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Pool{exec: exec, jobs: jobs, log: log, workers: workers, interval: interval}
}

// Run blocks until ctx is cancelled and every worker has drained.
func (p *Pool) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			p.worker(ctx, id)
		}(i)
	}
	wg.Wait()
}

func (p *Pool) worker(ctx context.Context, id int) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		jobID, err := p.jobs.NextPendingID(ctx)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) || ctx.Err() != nil {
				continue
			}
			p.log.Error().Err(err).Int("worker", id).Msg("poll pending jobs")
			continue
		}

		if err := p.exec.Execute(ctx, jobID); err != nil {
			p.log.Error().Err(err).Int("worker", id).Str("job_id", jobID).Msg("execute job")
		}
	}
}
