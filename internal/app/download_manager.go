package app

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/yourusername/soundclip-go/internal/domain"
	"github.com/yourusername/soundclip-go/internal/infrastructure"
	"github.com/yourusername/soundclip-go/pkg/logger"
	"go.uber.org/zap"
)

// DownloadManager serializes download jobs: at most one runs at a time.
// It records every job, mirrors its events to the job log and the event
// stream, and announces outcomes.
type DownloadManager struct {
	supervisor *infrastructure.Supervisor
	repo       domain.JobRepository
	notifier   *infrastructure.NotificationService
	events     domain.EventSink
	tools      *ToolLock
	config     *domain.DownloadConfig
	paths      domain.PathsConfig
	logger     *logger.LoggerAdapter

	mu     sync.Mutex
	active *domain.Job
	done   chan struct{}
}

// NewDownloadManager creates a new download manager. events may be nil;
// tools should be shared with the update manager.
func NewDownloadManager(
	supervisor *infrastructure.Supervisor,
	repo domain.JobRepository,
	notifier *infrastructure.NotificationService,
	events domain.EventSink,
	tools *ToolLock,
	config *domain.DownloadConfig,
	paths domain.PathsConfig,
	log *logger.LoggerAdapter,
) *DownloadManager {
	if log == nil {
		log = logger.NewSingleLoggerAdapter(nil)
	}
	if tools == nil {
		tools = NewToolLock()
	}
	return &DownloadManager{
		supervisor: supervisor,
		repo:       repo,
		notifier:   notifier,
		events:     events,
		tools:      tools,
		config:     config,
		paths:      paths,
		logger:     log,
	}
}

// RecoverOrphans marks jobs left running by a previous process as failed
func (dm *DownloadManager) RecoverOrphans() {
	count, err := dm.repo.ResetOrphanedRunning()
	if err != nil {
		dm.logger.LogError("Failed to reset orphaned jobs", zap.Error(err))
		return
	}
	if count > 0 {
		dm.logger.General().Info("Reset orphaned jobs", zap.Int64("count", count))
	}
}

// Start launches a job for req and returns its record. It fails fast with
// ErrJobInProgress while another job runs; the outcome is delivered later
// through the event stream.
func (dm *DownloadManager) Start(req domain.DownloadRequest) (*domain.Job, error) {
	req = req.WithDefaults(*dm.config)
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(req.SavePath, 0755); err != nil {
		return nil, fmt.Errorf("%w: cannot create save path: %v", domain.ErrInvalidRequest, err)
	}

	dm.mu.Lock()
	defer dm.mu.Unlock()

	if dm.active != nil {
		return nil, domain.ErrJobInProgress
	}
	if err := dm.tools.AcquireDownload(); err != nil {
		return nil, err
	}

	job := domain.NewJob(req)
	if err := dm.repo.Create(job); err != nil {
		dm.logger.LogError("Failed to record job", zap.String("job_id", job.ID), zap.Error(err))
	}

	var sinks []domain.EventSink
	cmdLine := infrastructure.ShellEscapeCommand(dm.paths.YTDLPPath(), infrastructure.BuildArgs(req, dm.paths.BinDir())...)
	jobLog, err := infrastructure.OpenJobLog(dm.paths.LogsDir(), job.ID, cmdLine)
	if err != nil {
		dm.logger.LogError("Failed to open job log", zap.String("job_id", job.ID), zap.Error(err))
	} else {
		sinks = append(sinks, jobLog)
	}
	if dm.events != nil {
		sinks = append(sinks, dm.events)
	}
	// Last, so Wait returns only after every other sink saw the outcome
	sinks = append(sinks, &jobTracker{dm: dm, job: job})

	execution, err := dm.supervisor.Start(req, infrastructure.NewMultiSink(dm.logger.Error(), sinks...))
	if err != nil {
		if jobLog != nil {
			jobLog.Close()
		}
		dm.tools.ReleaseDownload()
		job.MarkFailed(err)
		dm.saveJob(job)
		dm.logger.Job().Warn("Job not started",
			zap.String("job_id", job.ID),
			zap.String("url", req.URL),
			zap.Error(err))
		return nil, err
	}

	job.PID = execution.PID
	dm.saveJob(job)
	dm.active = job
	dm.done = make(chan struct{})

	dm.logger.Job().Info("Job started",
		zap.String("job_id", job.ID),
		zap.String("url", req.URL),
		zap.String("audio_format", req.AudioFormat),
		zap.Bool("playlist", req.Playlist),
		zap.Int("pid", job.PID))

	snapshot := *job
	return &snapshot, nil
}

// Cancel terminates the running job. It reports whether a job was running;
// cancelling while idle is not an error.
func (dm *DownloadManager) Cancel() bool {
	dm.mu.Lock()
	running := dm.active != nil
	dm.mu.Unlock()

	dm.supervisor.Cancel()
	return running
}

// Running reports whether a job is in progress
func (dm *DownloadManager) Running() bool {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	return dm.active != nil
}

// Wait blocks until the running job (if any) has finished
func (dm *DownloadManager) Wait(ctx context.Context) error {
	dm.mu.Lock()
	done := dm.done
	active := dm.active
	dm.mu.Unlock()

	if active == nil || done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown cancels the running job and waits for it to be recorded
func (dm *DownloadManager) Shutdown(ctx context.Context) error {
	if dm.Cancel() {
		return dm.Wait(ctx)
	}
	return nil
}

// Status returns the running job, or the most recent one when idle
func (dm *DownloadManager) Status() (*domain.Job, error) {
	dm.mu.Lock()
	if dm.active != nil {
		snapshot := *dm.active
		dm.mu.Unlock()
		return &snapshot, nil
	}
	dm.mu.Unlock()

	return dm.repo.FindLatest()
}

// GetJob returns a job by ID, or nil
func (dm *DownloadManager) GetJob(id string) (*domain.Job, error) {
	dm.mu.Lock()
	if dm.active != nil && dm.active.ID == id {
		snapshot := *dm.active
		dm.mu.Unlock()
		return &snapshot, nil
	}
	dm.mu.Unlock()

	return dm.repo.FindByID(id)
}

// ListJobs lists job history, newest first, optionally filtered by status
func (dm *DownloadManager) ListJobs(status domain.JobStatus, limit int) ([]*domain.Job, error) {
	filters := make(map[string]interface{})
	if status != "" {
		filters["status"] = status
	}
	return dm.repo.FindAll(filters, limit)
}

// GetStats returns job statistics
func (dm *DownloadManager) GetStats() (*domain.JobStats, error) {
	return dm.repo.GetStats()
}

// finish records the terminal outcome of job
func (dm *DownloadManager) finish(job *domain.Job, outcome domain.TerminalOutcome) {
	dm.mu.Lock()
	job.Finish(outcome)
	if outcome.Kind == domain.OutcomeFailed {
		job.ErrorMessage = domain.UserMessage(&domain.ExitError{Code: outcome.ExitCode})
	}
	snapshot := *job
	var done chan struct{}
	if dm.active == job {
		dm.active = nil
		done = dm.done
		dm.done = nil
		dm.tools.ReleaseDownload()
	}
	dm.mu.Unlock()

	dm.saveJob(&snapshot)
	dm.logger.Job().Info("Job finished",
		zap.String("job_id", snapshot.ID),
		zap.String("url", snapshot.URL),
		zap.String("outcome", outcome.String()),
		zap.Float64("progress", snapshot.Progress))
	if dm.notifier != nil {
		dm.notifier.NotifyJobFinished(snapshot.URL, outcome)
	}

	if done != nil {
		close(done)
	}
}

func (dm *DownloadManager) saveJob(job *domain.Job) {
	if err := dm.repo.Update(job); err != nil {
		dm.logger.LogError("Failed to update job", zap.String("job_id", job.ID), zap.Error(err))
	}
}

// jobTracker keeps the in-memory job record current
type jobTracker struct {
	dm  *DownloadManager
	job *domain.Job
}

func (t *jobTracker) OnProgress(percent float64) {
	t.dm.mu.Lock()
	defer t.dm.mu.Unlock()
	t.job.Progress = percent
}

func (t *jobTracker) OnLog(domain.Stream, string) {}

func (t *jobTracker) OnComplete(outcome domain.TerminalOutcome) {
	t.dm.finish(t.job, outcome)
}
