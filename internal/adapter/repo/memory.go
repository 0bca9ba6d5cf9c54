package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"assetgen/internal/domain"
)

// Memory implements every domain repository in process memory. It backs unit
// tests and local development without Postgres; the transition guard follows
// the exact conditional-update semantics of the SQL implementation.
type Memory struct {
	mu         sync.Mutex
	jobs       map[string]domain.Job
	batches    map[string]domain.Batch
	webhooks   map[string]domain.Webhook
	deliveries []domain.Delivery
	usage      []domain.UsageLog
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		jobs:     make(map[string]domain.Job),
		batches:  make(map[string]domain.Batch),
		webhooks: make(map[string]domain.Webhook),
	}
}

func (m *Memory) Create(ctx context.Context, job *domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = job.CreatedAt
	m.jobs[job.ID] = *job
	return nil
}

func (m *Memory) Transition(ctx context.Context, jobID string, to domain.JobStatus, attrs domain.TransitionAttrs) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	from, ok := domain.TransitionSource(to)
	if !ok || job.Status != from {
		return nil, domain.ErrInvalidTransition
	}
	job.Status = to
	job.UpdatedAt = time.Now().UTC()
	if to.Terminal() {
		cost := 0.0
		if attrs.CostUSD != nil {
			cost = *attrs.CostUSD
		}
		job.CostUSD = &cost
		if to == domain.JobStatusCompleted {
			job.ResultURL = attrs.ResultURL
		} else {
			job.ErrorMessage = attrs.ErrorMessage
		}
	}
	m.jobs[jobID] = job
	out := job
	return &out, nil
}

func (m *Memory) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := job
	return &out, nil
}

func (m *Memory) GetForOwner(ctx context.Context, jobID, ownerID string) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok || job.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	out := job
	return &out, nil
}

func (m *Memory) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]domain.Job, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var owned []domain.Job
	for _, job := range m.jobs {
		if job.OwnerID == ownerID {
			owned = append(owned, job)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].CreatedAt.After(owned[j].CreatedAt) })
	total := len(owned)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	page := make([]domain.Job, end-offset)
	copy(page, owned[offset:end])
	return page, total, nil
}

func (m *Memory) NextPendingID(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var oldest *domain.Job
	for id := range m.jobs {
		job := m.jobs[id]
		if job.Status != domain.JobStatusPending {
			continue
		}
		if oldest == nil || job.CreatedAt.Before(oldest.CreatedAt) {
			oldest = &job
		}
	}
	if oldest == nil {
		return "", domain.ErrNotFound
	}
	return oldest.ID, nil
}

func (m *Memory) FailStale(ctx context.Context, imageCutoff, videoCutoff time.Time, errMsg string) ([]domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var failed []domain.Job
	for id, job := range m.jobs {
		if job.Status != domain.JobStatusProcessing {
			continue
		}
		cutoff := imageCutoff
		if job.Type == domain.JobTypeVideo {
			cutoff = videoCutoff
		}
		if !job.UpdatedAt.Before(cutoff) {
			continue
		}
		cost := 0.0
		msg := errMsg
		job.Status = domain.JobStatusFailed
		job.ErrorMessage = &msg
		job.CostUSD = &cost
		job.UpdatedAt = time.Now().UTC()
		m.jobs[id] = job
		failed = append(failed, job)
	}
	return failed, nil
}

func (m *Memory) CountByBatch(ctx context.Context, batchID string) (domain.BatchCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var counts domain.BatchCounts
	for _, job := range m.jobs {
		if job.BatchID == nil || *job.BatchID != batchID {
			continue
		}
		counts.Total++
		switch job.Status {
		case domain.JobStatusCompleted:
			counts.Completed++
		case domain.JobStatusFailed:
			counts.Failed++
		}
	}
	return counts, nil
}

func (m *Memory) CreateBatch(ctx context.Context, batch *domain.Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if batch.CreatedAt.IsZero() {
		batch.CreatedAt = time.Now().UTC()
	}
	m.batches[batch.ID] = *batch
	return nil
}

func (m *Memory) GetBatchByID(ctx context.Context, batchID string) (*domain.Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	batch, ok := m.batches[batchID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := batch
	return &out, nil
}

func (m *Memory) GetBatchForOwner(ctx context.Context, batchID, ownerID string) (*domain.Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	batch, ok := m.batches[batchID]
	if !ok || batch.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	out := batch
	return &out, nil
}

func (m *Memory) SetBatchCancelled(ctx context.Context, batchID, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	batch, ok := m.batches[batchID]
	if !ok || batch.OwnerID != ownerID {
		return domain.ErrNotFound
	}
	batch.Cancelled = true
	m.batches[batchID] = batch
	return nil
}

func (m *Memory) CreateWebhook(ctx context.Context, webhook *domain.Webhook) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	if webhook.CreatedAt.IsZero() {
		webhook.CreatedAt = now
	}
	webhook.UpdatedAt = webhook.CreatedAt
	m.webhooks[webhook.ID] = *webhook
	return nil
}

func (m *Memory) UpdateWebhook(ctx context.Context, webhook *domain.Webhook) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.webhooks[webhook.ID]
	if !ok || existing.OwnerID != webhook.OwnerID {
		return domain.ErrNotFound
	}
	webhook.CreatedAt = existing.CreatedAt
	webhook.UpdatedAt = time.Now().UTC()
	m.webhooks[webhook.ID] = *webhook
	return nil
}

func (m *Memory) DeleteWebhook(ctx context.Context, webhookID, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.webhooks[webhookID]
	if !ok || existing.OwnerID != ownerID {
		return domain.ErrNotFound
	}
	delete(m.webhooks, webhookID)
	return nil
}

func (m *Memory) GetWebhookByID(ctx context.Context, webhookID string) (*domain.Webhook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	webhook, ok := m.webhooks[webhookID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := webhook
	return &out, nil
}

func (m *Memory) GetWebhookForOwner(ctx context.Context, webhookID, ownerID string) (*domain.Webhook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	webhook, ok := m.webhooks[webhookID]
	if !ok || webhook.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	out := webhook
	return &out, nil
}

func (m *Memory) ListWebhooksByOwner(ctx context.Context, ownerID string) ([]domain.Webhook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Webhook
	for _, webhook := range m.webhooks {
		if webhook.OwnerID == ownerID {
			out = append(out, webhook)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) ListActiveWebhooksForEvent(ctx context.Context, ownerID, event string) ([]domain.Webhook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Webhook
	for _, webhook := range m.webhooks {
		if webhook.OwnerID == ownerID && webhook.IsActive && webhook.Subscribed(event) {
			out = append(out, webhook)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) AppendDelivery(ctx context.Context, delivery *domain.Delivery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if delivery.AttemptedAt.IsZero() {
		delivery.AttemptedAt = time.Now().UTC()
	}
	m.deliveries = append(m.deliveries, *delivery)
	return nil
}

func (m *Memory) ListDeliveriesByWebhook(ctx context.Context, webhookID, ownerID string, limit int) ([]domain.Delivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	webhook, ok := m.webhooks[webhookID]
	if !ok || webhook.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	var out []domain.Delivery
	for i := len(m.deliveries) - 1; i >= 0; i-- {
		if m.deliveries[i].WebhookID != webhookID {
			continue
		}
		out = append(out, m.deliveries[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *Memory) ListRetryableDeliveries(ctx context.Context, since time.Time, maxAttempt int) ([]domain.Delivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	type key struct{ webhook, job, event string }
	latest := make(map[key]domain.Delivery)
	for _, d := range m.deliveries {
		k := key{d.WebhookID, d.JobID, d.Event}
		if cur, ok := latest[k]; !ok || d.Attempt > cur.Attempt {
			latest[k] = d
		}
	}
	var out []domain.Delivery
	for _, d := range latest {
		if d.Outcome != domain.DeliveryFailure || d.Attempt > maxAttempt || d.AttemptedAt.Before(since) {
			continue
		}
		webhook, ok := m.webhooks[d.WebhookID]
		if !ok || !webhook.IsActive {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AttemptedAt.Before(out[j].AttemptedAt) })
	return out, nil
}

func (m *Memory) RecordUsage(ctx context.Context, log *domain.UsageLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	m.usage = append(m.usage, *log)
	return nil
}

func (m *Memory) UsageSummary(ctx context.Context, ownerID string) ([]domain.UsageSummaryRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byProvider := make(map[string]*domain.UsageSummaryRow)
	for _, log := range m.usage {
		if log.OwnerID != ownerID {
			continue
		}
		row, ok := byProvider[log.Provider]
		if !ok {
			row = &domain.UsageSummaryRow{Provider: log.Provider}
			byProvider[log.Provider] = row
		}
		row.Jobs++
		row.Quantity += log.Quantity
		row.TotalCostUSD += log.CostUSD
	}
	var out []domain.UsageSummaryRow
	for _, row := range byProvider {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Provider < out[j].Provider })
	return out, nil
}
