// Package jobs defines the asynchronous work abstractions used for slow
// side tasks like ledger exports, keeping the parse and forecast paths
// synchronous.
package jobs

import (
	"context"
	"time"

	"cloud.google.com/go/civil"
)

// Status is the lifecycle state of a job.
type Status string

const (
	// StatusPending means the job is waiting to be processed.
	StatusPending Status = "pending"
	// StatusRunning means the job is being processed.
	StatusRunning Status = "running"
	// StatusCompleted means the job finished successfully.
	StatusCompleted Status = "completed"
	// StatusFailed means the job failed permanently.
	StatusFailed Status = "failed"
	// StatusRetrying means the job failed and will run again.
	StatusRetrying Status = "retrying"
)

// ExportJob asks the worker to render a user's ledger window as CSV and
// upload it to the configured bucket.
type ExportJob struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`

	From civil.Date `json:"from"`
	To   civil.Date `json:"to"`

	// Bucket receives the artifact; ResultURI is set on completion.
	Bucket    string `json:"bucket"`
	ResultURI string `json:"result_uri,omitempty"`

	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`
}

// Handler processes one job. A returned error marks the job failed and
// eligible for retry.
type Handler func(ctx context.Context, job *ExportJob) error

// Publisher enqueues export jobs.
type Publisher interface {
	Publish(ctx context.Context, job *ExportJob) error
	Close() error
}

// Consumer drains the queue, invoking a handler per job.
type Consumer interface {
	Start(ctx context.Context, handler Handler) error
	Stop(ctx context.Context) error
}

// Store tracks job state so callers can poll progress.
type Store interface {
	Save(ctx context.Context, job *ExportJob) error
	Get(ctx context.Context, id string) (*ExportJob, error)
}
