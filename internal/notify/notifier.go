// Package notify delivers job lifecycle events to user-registered webhooks.
// The notifier sits behind a buffered queue so store writes never wait on a
// slow endpoint; every attempt is recorded in the append-only delivery log.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"assetgen/internal/domain"
	"assetgen/internal/infra"
)

const defaultQueueSize = 256

// Options configures the notifier.
type Options struct {
	QueueSize  int
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Notifier fans job lifecycle events out to subscribed webhooks.
type Notifier struct {
	webhooks   domain.WebhookRepository
	deliveries domain.DeliveryRepository
	client     *http.Client
	log        infra.Logger

	queue chan domain.Event
	wg    sync.WaitGroup
}

func New(webhooks domain.WebhookRepository, deliveries domain.DeliveryRepository, log infra.Logger, opts Options) *Notifier {
	size := opts.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Notifier{
		webhooks:   webhooks,
		deliveries: deliveries,
		client:     client,
		log:        log,
		queue:      make(chan domain.Event, size),
	}
}

// Publish enqueues an event without blocking. When the queue is full the
// event is dropped and logged. A dropped event produces no delivery row, so
// the sweeper cannot recover it; the job store stays the source of truth and
// pollers still observe the transition.
func (n *Notifier) Publish(ev domain.Event) {
	select {
	case n.queue <- ev:
	default:
		n.log.Warn().
			Str("event", ev.Name).
			Str("job_id", ev.Job.ID).
			Msg("notifier queue full, event dropped")
	}
}

// Start launches the delivery workers. They drain until ctx is cancelled;
// Wait blocks until they exit.
func (n *Notifier) Start(ctx context.Context, workers int) {
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		n.wg.Add(1)
		go func() {
			defer n.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case ev := <-n.queue:
					n.dispatch(ctx, ev)
				}
			}
		}()
	}
}

// Wait blocks until every worker started by Start has returned.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

// dispatch finds the owner's active subscriptions for the event and attempts
// one delivery to each.
func (n *Notifier) dispatch(ctx context.Context, ev domain.Event) {
	hooks, err := n.webhooks.ListActiveForEvent(ctx, ev.Job.OwnerID, ev.Name)
	if err != nil {
		n.log.Error().Err(err).Str("event", ev.Name).Msg("list webhooks")
		return
	}
	if len(hooks) == 0 {
		return
	}

	payload, err := json.Marshal(eventPayload(ev))
	if err != nil {
		n.log.Error().Err(err).Str("event", ev.Name).Msg("encode payload")
		return
	}
	for i := range hooks {
		n.Deliver(ctx, &hooks[i], ev.Name, ev.Job.ID, payload, 1)
	}
}

// Deliver posts the payload to one webhook and appends the attempt to the
// delivery log, success or failure.
func (n *Notifier) Deliver(ctx context.Context, hook *domain.Webhook, event, jobID string, payload []byte, attempt int) {
	delivery := &domain.Delivery{
		ID:        uuid.NewString(),
		WebhookID: hook.ID,
		Event:     event,
		JobID:     jobID,
		Payload:   payload,
		Attempt:   attempt,
	}

	status, err := n.post(ctx, hook, payload)
	if err != nil {
		msg := err.Error()
		delivery.Outcome = domain.DeliveryFailure
		delivery.ErrorMessage = &msg
		if status > 0 {
			delivery.StatusCode = &status
		}
		n.log.Warn().
			Str("webhook_id", hook.ID).
			Str("event", event).
			Int("attempt", attempt).
			Err(err).
			Msg("webhook delivery failed")
	} else {
		delivery.Outcome = domain.DeliverySuccess
		delivery.StatusCode = &status
	}

	if err := n.deliveries.Append(ctx, delivery); err != nil {
		n.log.Error().Err(err).Str("webhook_id", hook.ID).Msg("append delivery")
	}
}

func (n *Notifier) post(ctx context.Context, hook *domain.Webhook, payload []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hook.URL, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if hook.Secret != nil && *hook.Secret != "" {
		req.Header.Set(SignatureHeader, Sign(*hook.Secret, payload))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, fmt.Errorf("endpoint returned %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}

// Payload is the wire shape of a webhook notification.
type Payload struct {
	Event     string   `json:"event"`
	JobID     string   `json:"job_id"`
	Status    string   `json:"status"`
	Provider  string   `json:"provider"`
	Model     string   `json:"model"`
	Cost      *float64 `json:"cost"`
	Timestamp string   `json:"timestamp"`
}

func eventPayload(ev domain.Event) Payload {
	return Payload{
		Event:     ev.Name,
		JobID:     ev.Job.ID,
		Status:    string(ev.Job.Status),
		Provider:  ev.Job.Provider,
		Model:     ev.Job.Model,
		Cost:      ev.Job.CostUSD,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

var _ domain.EventSink = (*Notifier)(nil)
