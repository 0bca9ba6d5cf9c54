package domain

import "time"

// Job lifecycle event names a webhook may subscribe to.
const (
	EventJobCreated    = "job.created"
	EventJobProcessing = "job.processing"
	EventJobCompleted  = "job.completed"
	EventJobFailed     = "job.failed"
)

// JobEvents lists every subscribable event name.
func JobEvents() []string {
	return []string{EventJobCreated, EventJobProcessing, EventJobCompleted, EventJobFailed}
}

// IsJobEvent reports whether name is a known subscribable event.
func IsJobEvent(name string) bool {
	switch name {
	case EventJobCreated, EventJobProcessing, EventJobCompleted, EventJobFailed:
		return true
	}
	return false
}

// Event is a job lifecycle notification as published to the notifier queue.
// The job snapshot is taken at the moment of the transition.
type Event struct {
	Name string
	Job  Job
}

// EventSink receives lifecycle events. Publish must never block the caller;
// the job store write always commits before the event is handed over.
type EventSink interface {
	Publish(ev Event)
}

// Webhook is a user-registered HTTP endpoint notified of job lifecycle events.
type Webhook struct {
	ID        string
	OwnerID   string
	URL       string
	Events    []string
	Secret    *string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Subscribed reports whether the webhook wants the named event.
func (w Webhook) Subscribed(event string) bool {
	for _, e := range w.Events {
		if e == event {
			return true
		}
	}
	return false
}

// DeliveryOutcome classifies one webhook notification attempt.
type DeliveryOutcome string

const (
	DeliverySuccess DeliveryOutcome = "success"
	DeliveryFailure DeliveryOutcome = "failure"
)

// Delivery records one attempted webhook notification. Rows are append-only:
// a redelivery appends a new row with an incremented attempt counter, it
// never mutates history. The payload is kept verbatim so redeliveries resend
// exactly what the endpoint missed.
type Delivery struct {
	ID           string
	WebhookID    string
	Event        string
	JobID        string
	Payload      []byte
	Outcome      DeliveryOutcome
	StatusCode   *int
	ErrorMessage *string
	Attempt      int
	AttemptedAt  time.Time
}
