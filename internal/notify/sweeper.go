package notify

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"

	"assetgen/internal/domain"
	"assetgen/internal/infra"
)

const (
	// A failed delivery gets at most this many redelivery attempts on top of
	// the original one.
	maxRetries = 3
	// Failures older than this are abandoned.
	retryWindow = 24 * time.Hour
)

// Sweeper redelivers failed webhook notifications. It resends the stored
// payload verbatim so the endpoint receives exactly what it missed, and it
// spaces attempts with exponential backoff measured from the last failure.
type Sweeper struct {
	deliveries domain.DeliveryRepository
	webhooks   domain.WebhookRepository
	notifier   *Notifier
	log        infra.Logger
}

func NewSweeper(deliveries domain.DeliveryRepository, webhooks domain.WebhookRepository, notifier *Notifier, log infra.Logger) *Sweeper {
	return &Sweeper{deliveries: deliveries, webhooks: webhooks, notifier: notifier, log: log}
}

// Sweep redelivers every eligible failed delivery whose backoff interval has
// elapsed.
func (s *Sweeper) Sweep(ctx context.Context) error {
	since := time.Now().Add(-retryWindow)
	failed, err := s.deliveries.ListRetryable(ctx, since, maxRetries)
	if err != nil {
		return err
	}

	now := time.Now()
	for i := range failed {
		d := &failed[i]
		if now.Sub(d.AttemptedAt) < retryDelay(d.Attempt) {
			continue
		}
		hook, err := s.webhooks.GetByID(ctx, d.WebhookID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return err
		}
		s.log.Info().
			Str("webhook_id", d.WebhookID).
			Str("event", d.Event).
			Int("attempt", d.Attempt+1).
			Msg("redelivering webhook")
		s.notifier.Deliver(ctx, hook, d.Event, d.JobID, d.Payload, d.Attempt+1)
	}
	return nil
}

// retryDelay returns the minimum gap before attempt n+1, growing
// exponentially from 30 seconds.
func retryDelay(attempt int) time.Duration {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 30 * time.Second
	bo.RandomizationFactor = 0
	bo.Multiplier = 4
	bo.MaxInterval = 2 * time.Hour

	delay := bo.NextBackOff()
	for i := 1; i < attempt; i++ {
		delay = bo.NextBackOff()
	}
	return delay
}
