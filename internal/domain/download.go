package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AudioFormatBest keeps whatever audio stream the source provides
const AudioFormatBest = "best"

// DownloadRequest describes one invocation of the download tool.
// It is treated as immutable once handed to the supervisor.
type DownloadRequest struct {
	URL         string `json:"url"`
	AudioFormat string `json:"audio_format"`
	Playlist    bool   `json:"playlist"`
	SavePath    string `json:"save_path"`
}

// WithDefaults fills empty fields from the configured download defaults
func (r DownloadRequest) WithDefaults(defaults DownloadConfig) DownloadRequest {
	if r.AudioFormat == "" {
		r.AudioFormat = defaults.AudioFormat
	}
	if r.AudioFormat == "" {
		r.AudioFormat = AudioFormatBest
	}
	if r.SavePath == "" {
		r.SavePath = defaults.SavePath
	}
	return r
}

// Validate checks the fields the service is responsible for.
// URL syntax is left to yt-dlp.
func (r DownloadRequest) Validate() error {
	if r.URL == "" {
		return fmt.Errorf("%w: url is required", ErrInvalidRequest)
	}
	if r.SavePath == "" {
		return fmt.Errorf("%w: save path is required", ErrInvalidRequest)
	}
	return nil
}

// OutcomeKind classifies how a job ended
type OutcomeKind string

const (
	OutcomeSuccess   OutcomeKind = "success"
	OutcomeFailed    OutcomeKind = "failed"
	OutcomeCancelled OutcomeKind = "cancelled"
)

// TerminalOutcome is the final classification of a job. Exactly one is
// produced per job.
type TerminalOutcome struct {
	Kind     OutcomeKind `json:"kind"`
	ExitCode int         `json:"exit_code"`
}

// Success returns the outcome of a job that exited with code 0
func Success() TerminalOutcome {
	return TerminalOutcome{Kind: OutcomeSuccess}
}

// Failed returns the outcome of a job that exited with a nonzero code
func Failed(code int) TerminalOutcome {
	return TerminalOutcome{Kind: OutcomeFailed, ExitCode: code}
}

// Cancelled returns the outcome of a job terminated through cancel
func Cancelled() TerminalOutcome {
	return TerminalOutcome{Kind: OutcomeCancelled, ExitCode: -1}
}

// String renders the outcome as the complete event payload:
// "success", "failed:<code>" or "cancelled".
func (o TerminalOutcome) String() string {
	if o.Kind == OutcomeFailed {
		return fmt.Sprintf("failed:%d", o.ExitCode)
	}
	return string(o.Kind)
}

// JobStatus represents the current status of a job
type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// Job is the persisted record of one download tool invocation
type Job struct {
	ID           string     `json:"id" gorm:"primaryKey"`
	URL          string     `json:"url" gorm:"not null"`
	AudioFormat  string     `json:"audio_format"`
	Playlist     bool       `json:"playlist"`
	SavePath     string     `json:"save_path"`
	Status       JobStatus  `json:"status" gorm:"not null;index"`
	Progress     float64    `json:"progress"`
	ExitCode     *int       `json:"exit_code,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	PID          int        `json:"pid,omitempty"`
	CreatedAt    time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// NewJob creates a running job record for a request
func NewJob(req DownloadRequest) *Job {
	now := time.Now()
	return &Job{
		ID:          uuid.New().String(),
		URL:         req.URL,
		AudioFormat: req.AudioFormat,
		Playlist:    req.Playlist,
		SavePath:    req.SavePath,
		Status:      JobRunning,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Request rebuilds the download request the job was started with
func (j *Job) Request() DownloadRequest {
	return DownloadRequest{
		URL:         j.URL,
		AudioFormat: j.AudioFormat,
		Playlist:    j.Playlist,
		SavePath:    j.SavePath,
	}
}

// Finish records the terminal outcome of the job
func (j *Job) Finish(outcome TerminalOutcome) {
	now := time.Now()
	switch outcome.Kind {
	case OutcomeSuccess:
		j.Status = JobCompleted
		j.Progress = 100
		code := 0
		j.ExitCode = &code
	case OutcomeFailed:
		j.Status = JobFailed
		code := outcome.ExitCode
		j.ExitCode = &code
	case OutcomeCancelled:
		j.Status = JobCancelled
	}
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// MarkFailed marks the job as failed without an exit code
func (j *Job) MarkFailed(err error) {
	now := time.Now()
	j.Status = JobFailed
	j.ErrorMessage = err.Error()
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// IsTerminal checks if the job is in a terminal state
func (j *Job) IsTerminal() bool {
	return j.Status != JobRunning
}
