// Package async runs bundle analyses on a bounded worker pool.
package async

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Job is one bundle to analyze.
type Job struct {
	Path        string
	SubmittedAt time.Time
	TraceID     uuid.UUID
}

// NewJob stamps a job for path with a fresh trace id.
func NewJob(path string) Job {
	return Job{Path: path, SubmittedAt: time.Now(), TraceID: uuid.New()}
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
