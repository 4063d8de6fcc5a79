package constants

// JobStatus is the state of one batch job.
type JobStatus string

const (
	JobStatusQueued  JobStatus = "QUEUED"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusDone    JobStatus = "DONE"
	JobStatusFailed  JobStatus = "FAILED"
)

// HeaderMode controls header inference for raw grids.
type HeaderMode string

const (
	HeaderModeAuto   HeaderMode = "auto"
	HeaderModeAlways HeaderMode = "always"
	HeaderModeNever  HeaderMode = "never"
)
