package repo

import (
	"context"
	"time"

	"assetgen/internal/domain"
)

// Typed views expose the shared Memory store under the per-entity repository
// interfaces (the method sets collide on Create/GetByID otherwise).

func (m *Memory) Jobs() domain.JobRepository           { return memoryJobs{m} }
func (m *Memory) Batches() domain.BatchRepository      { return memoryBatches{m} }
func (m *Memory) Webhooks() domain.WebhookRepository   { return memoryWebhooks{m} }
func (m *Memory) Deliveries() domain.DeliveryRepository { return memoryDeliveries{m} }
func (m *Memory) Usage() domain.UsageRepository        { return memoryUsage{m} }

type memoryJobs struct{ m *Memory }

func (v memoryJobs) Create(ctx context.Context, job *domain.Job) error { return v.m.Create(ctx, job) }

func (v memoryJobs) Transition(ctx context.Context, jobID string, to domain.JobStatus, attrs domain.TransitionAttrs) (*domain.Job, error) {
	return v.m.Transition(ctx, jobID, to, attrs)
}

func (v memoryJobs) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	return v.m.GetByID(ctx, jobID)
}

func (v memoryJobs) GetForOwner(ctx context.Context, jobID, ownerID string) (*domain.Job, error) {
	return v.m.GetForOwner(ctx, jobID, ownerID)
}

func (v memoryJobs) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]domain.Job, int, error) {
	return v.m.ListByOwner(ctx, ownerID, limit, offset)
}

func (v memoryJobs) NextPendingID(ctx context.Context) (string, error) {
	return v.m.NextPendingID(ctx)
}

func (v memoryJobs) FailStale(ctx context.Context, imageCutoff, videoCutoff time.Time, errMsg string) ([]domain.Job, error) {
	return v.m.FailStale(ctx, imageCutoff, videoCutoff, errMsg)
}

func (v memoryJobs) CountByBatch(ctx context.Context, batchID string) (domain.BatchCounts, error) {
	return v.m.CountByBatch(ctx, batchID)
}

type memoryBatches struct{ m *Memory }

func (v memoryBatches) Create(ctx context.Context, batch *domain.Batch) error {
	return v.m.CreateBatch(ctx, batch)
}

func (v memoryBatches) GetByID(ctx context.Context, batchID string) (*domain.Batch, error) {
	return v.m.GetBatchByID(ctx, batchID)
}

func (v memoryBatches) GetForOwner(ctx context.Context, batchID, ownerID string) (*domain.Batch, error) {
	return v.m.GetBatchForOwner(ctx, batchID, ownerID)
}

func (v memoryBatches) SetCancelled(ctx context.Context, batchID, ownerID string) error {
	return v.m.SetBatchCancelled(ctx, batchID, ownerID)
}

type memoryWebhooks struct{ m *Memory }

func (v memoryWebhooks) Create(ctx context.Context, webhook *domain.Webhook) error {
	return v.m.CreateWebhook(ctx, webhook)
}

func (v memoryWebhooks) Update(ctx context.Context, webhook *domain.Webhook) error {
	return v.m.UpdateWebhook(ctx, webhook)
}

func (v memoryWebhooks) Delete(ctx context.Context, webhookID, ownerID string) error {
	return v.m.DeleteWebhook(ctx, webhookID, ownerID)
}

func (v memoryWebhooks) GetByID(ctx context.Context, webhookID string) (*domain.Webhook, error) {
	return v.m.GetWebhookByID(ctx, webhookID)
}

func (v memoryWebhooks) GetForOwner(ctx context.Context, webhookID, ownerID string) (*domain.Webhook, error) {
	return v.m.GetWebhookForOwner(ctx, webhookID, ownerID)
}

func (v memoryWebhooks) ListByOwner(ctx context.Context, ownerID string) ([]domain.Webhook, error) {
	return v.m.ListWebhooksByOwner(ctx, ownerID)
}

func (v memoryWebhooks) ListActiveForEvent(ctx context.Context, ownerID, event string) ([]domain.Webhook, error) {
	return v.m.ListActiveWebhooksForEvent(ctx, ownerID, event)
}

type memoryDeliveries struct{ m *Memory }

func (v memoryDeliveries) Append(ctx context.Context, delivery *domain.Delivery) error {
	return v.m.AppendDelivery(ctx, delivery)
}

func (v memoryDeliveries) ListByWebhook(ctx context.Context, webhookID, ownerID string, limit int) ([]domain.Delivery, error) {
	return v.m.ListDeliveriesByWebhook(ctx, webhookID, ownerID, limit)
}

func (v memoryDeliveries) ListRetryable(ctx context.Context, since time.Time, maxAttempt int) ([]domain.Delivery, error) {
	return v.m.ListRetryableDeliveries(ctx, since, maxAttempt)
}

type memoryUsage struct{ m *Memory }

func (v memoryUsage) Record(ctx context.Context, log *domain.UsageLog) error {
	return v.m.RecordUsage(ctx, log)
}

func (v memoryUsage) Summary(ctx context.Context, ownerID string) ([]domain.UsageSummaryRow, error) {
	return v.m.UsageSummary(ctx, ownerID)
}

var (
	_ domain.JobRepository      = memoryJobs{}
	_ domain.BatchRepository    = memoryBatches{}
	_ domain.WebhookRepository  = memoryWebhooks{}
	_ domain.DeliveryRepository = memoryDeliveries{}
	_ domain.UsageRepository    = memoryUsage{}
)
