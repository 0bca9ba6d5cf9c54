package domain

import "time"

// JobType enumerates the two generation modalities.
type JobType string

const (
	JobTypeImage JobType = "image"
	JobTypeVideo JobType = "video"
)

// Operation enumerates the kinds of work a provider can perform on a job.
type Operation string

const (
	OpGenerate         Operation = "generate"
	OpEdit             Operation = "edit"
	OpPrototype        Operation = "prototype"
	OpFromImage        Operation = "from_image"
	OpRemoveBackground Operation = "remove_background"
)

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether no further transitions are permitted from s.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// allowedTransitions maps a target status to the only status a job may
// currently be in for that edge to be legal.
var allowedTransitions = map[JobStatus]JobStatus{
	JobStatusProcessing: JobStatusPending,
	JobStatusCompleted:  JobStatusProcessing,
	JobStatusFailed:     JobStatusProcessing,
}

// TransitionSource returns the required current status for a transition to
// `to`, and whether such an edge exists at all.
func TransitionSource(to JobStatus) (JobStatus, bool) {
	from, ok := allowedTransitions[to]
	return from, ok
}

// Job is one user-requested unit of generation or transformation work. Jobs
// are never deleted; they are retained as audit records. Result is set if and
// only if the job completed, error if and only if it failed, and cost is
// written exactly once on the terminal transition (zero when the provider
// call never produced billable work).
type Job struct {
	ID           string
	OwnerID      string
	Type         JobType
	Operation    Operation
	Provider     string
	Model        string
	Config       []byte // opaque JSON payload supplied at submission
	Status       JobStatus
	ResultURL    *string
	CostUSD      *float64
	ErrorMessage *string
	BatchID      *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
