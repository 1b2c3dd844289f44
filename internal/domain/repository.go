package domain

// JobRepository defines the interface for job history persistence
type JobRepository interface {
	// Create creates a new job record
	Create(job *Job) error

	// Update updates an existing job record
	Update(job *Job) error

	// FindByID finds a job by ID
	FindByID(id string) (*Job, error)

	// FindAll finds jobs with optional filters, newest first
	FindAll(filters map[string]interface{}, limit int) ([]*Job, error)

	// FindLatest returns the most recently created job, or nil
	FindLatest() (*Job, error)

	// GetStats returns job statistics
	GetStats() (*JobStats, error)

	// ResetOrphanedRunning marks jobs left running by a previous process as failed
	ResetOrphanedRunning() (int64, error)
}

// JobStats represents job statistics
type JobStats struct {
	Total     int64 `json:"total"`
	Running   int64 `json:"running"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Cancelled int64 `json:"cancelled"`
}
