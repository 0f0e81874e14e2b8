package domain

// JobRepository persists job records across restarts. The scheduler writes
// through on every transition; the in-memory queue stays authoritative
// while the process is alive.
type JobRepository interface {
	// Create stores a new job
	Create(job *Job) error

	// Update stores the current state of an existing job
	Update(job *Job) error

	// Delete removes a job by ID
	Delete(id string) error

	// FindByID finds a job by ID
	FindByID(id string) (*Job, error)

	// FindByStatus finds jobs by status, oldest first
	FindByStatus(status JobStatus) ([]*Job, error)

	// FindAll returns every stored job, oldest first
	FindAll() ([]*Job, error)

	// FailOrphanedRunning marks jobs left running by a previous process as
	// failed; their processes are gone and cannot be resumed
	FailOrphanedRunning() (int64, error)

	// GetStats returns per-status counts
	GetStats() (*JobStats, error)
}

// JobStats represents queue statistics
type JobStats struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Running   int64 `json:"running"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
	Cancelled int64 `json:"cancelled"`
}
