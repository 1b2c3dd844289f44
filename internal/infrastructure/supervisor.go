package infrastructure

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/yourusername/soundclip-go/internal/domain"
	"go.uber.org/zap"
)

const maxLineSize = 1024 * 1024

// Supervisor runs yt-dlp jobs, turns their output into events and
// terminates them on request
type Supervisor struct {
	control ProcessControl
	slot    *ProcessSlot
	paths   domain.PathsConfig
	logger  *zap.Logger
}

// NewSupervisor creates a supervisor around an explicit process slot
func NewSupervisor(control ProcessControl, slot *ProcessSlot, paths domain.PathsConfig, logger *zap.Logger) *Supervisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Supervisor{
		control: control,
		slot:    slot,
		paths:   paths,
		logger:  logger,
	}
}

// Execution tracks one started job until its terminal outcome
type Execution struct {
	PID int

	done    chan struct{}
	outcome domain.TerminalOutcome
	err     error
}

// Done is closed once the terminal outcome has been delivered
func (e *Execution) Done() <-chan struct{} {
	return e.done
}

// Wait blocks until the job ends
func (e *Execution) Wait() (domain.TerminalOutcome, error) {
	<-e.done
	return e.outcome, e.err
}

// Run starts a job and blocks until it ends. Cancelling ctx cancels the job.
func (s *Supervisor) Run(ctx context.Context, req domain.DownloadRequest, sink domain.EventSink) (domain.TerminalOutcome, error) {
	execution, err := s.Start(req, sink)
	if err != nil {
		return domain.TerminalOutcome{}, err
	}

	select {
	case <-execution.Done():
	case <-ctx.Done():
		s.Cancel()
	}
	return execution.Wait()
}

// Start spawns yt-dlp for req and returns as soon as the process is running.
// Errors returned here mean no process was started and no events were sent.
func (s *Supervisor) Start(req domain.DownloadRequest, sink domain.EventSink) (*Execution, error) {
	binary := s.paths.YTDLPPath()
	if _, err := os.Stat(binary); err != nil {
		return nil, fmt.Errorf("%w at %s", domain.ErrPrerequisiteMissing, binary)
	}
	if s.slot.Occupied() {
		return nil, domain.ErrJobInProgress
	}

	args := BuildArgs(req, s.paths.BinDir())
	proc, err := s.control.Spawn(binary, args...)
	if err != nil {
		return nil, err
	}
	if !s.slot.Set(proc) {
		// lost a race with another Start; this process must not survive
		s.control.KillTree(proc.ID())
		go proc.Wait()
		return nil, domain.ErrJobInProgress
	}

	s.logger.Info("yt-dlp started",
		zap.Int("pid", proc.ID()),
		zap.String("url", req.URL),
		zap.String("command", ShellEscapeCommand(binary, args...)))

	execution := &Execution{PID: proc.ID(), done: make(chan struct{})}

	var readers sync.WaitGroup
	readers.Add(2)
	go func() {
		defer readers.Done()
		readLines(proc.Stdout(), func(line string) {
			if percent, ok := ParseProgress(line); ok {
				sink.OnProgress(percent)
			}
			sink.OnLog(domain.StreamStdout, line)
		})
	}()
	go func() {
		defer readers.Done()
		readLines(proc.Stderr(), func(line string) {
			sink.OnLog(domain.StreamStderr, line)
		})
	}()

	go func() {
		readers.Wait()
		outcome, err := s.reap(proc)
		s.logger.Info("yt-dlp finished",
			zap.Int("pid", execution.PID),
			zap.String("outcome", outcome.String()))

		execution.outcome = outcome
		execution.err = err
		sink.OnComplete(outcome)
		close(execution.done)
	}()

	return execution, nil
}

// reap decides the terminal outcome once both streams are drained
func (s *Supervisor) reap(proc Process) (domain.TerminalOutcome, error) {
	if !s.slot.Holds(proc) {
		go proc.Wait()
		return domain.Cancelled(), domain.ErrCancelled
	}

	code, err := proc.Wait()
	if !s.slot.Release(proc) {
		return domain.Cancelled(), domain.ErrCancelled
	}
	if err != nil {
		return domain.Failed(-1), fmt.Errorf("wait for yt-dlp: %w", err)
	}
	if code != 0 {
		return domain.Failed(code), &domain.ExitError{Code: code}
	}
	return domain.Success(), nil
}

// Cancel kills the running process tree, if any. It does not wait for the
// process to exit and never fails; calling it while idle is a no-op.
func (s *Supervisor) Cancel() error {
	proc := s.slot.Take()
	if proc == nil {
		return nil
	}

	pid := proc.ID()
	s.logger.Info("Cancelling yt-dlp", zap.Int("pid", pid))
	if err := s.control.KillTree(pid); err != nil {
		s.logger.Warn("Failed to kill yt-dlp process tree", zap.Int("pid", pid), zap.Error(err))
	}
	return nil
}

// Running reports whether a job currently owns the slot
func (s *Supervisor) Running() bool {
	return s.slot.Occupied()
}

// readLines delivers each line of r until EOF or the first read error
func readLines(r io.Reader, emit func(string)) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		emit(strings.TrimRight(scanner.Text(), "\r"))
	}
	// drain whatever is left so the child never blocks on a full pipe
	io.Copy(io.Discard, r)
}
