package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/yourusername/soundclip-go/internal/domain"
)

// Process is a spawned child with its output streams captured separately
type Process interface {
	// ID returns the platform process identifier
	ID() int

	Stdout() io.Reader
	Stderr() io.Reader

	// Wait blocks until the process exits and returns its exit code.
	// A nonzero exit is not an error; err is only set when the exit
	// status could not be obtained at all.
	Wait() (int, error)
}

// ProcessControl isolates the platform-specific parts of running yt-dlp:
// process creation flags and whole-tree termination.
type ProcessControl interface {
	Spawn(binary string, args ...string) (Process, error)
	KillTree(pid int) error
}

// ExecProcessControl implements ProcessControl with os/exec
type ExecProcessControl struct{}

// NewProcessControl returns the process control for the running platform
func NewProcessControl() *ExecProcessControl {
	return &ExecProcessControl{}
}

// Spawn starts binary with stdout and stderr piped (not merged)
func (c *ExecProcessControl) Spawn(binary string, args ...string) (Process, error) {
	cmd := exec.Command(binary, args...)
	configureCommand(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdout: %v", domain.ErrStreamCapture, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stderr: %v", domain.ErrStreamCapture, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSpawn, err)
	}

	return &execProcess{cmd: cmd, stdout: stdout, stderr: stderr}, nil
}

// KillTree forcefully terminates pid and every process it started
func (c *ExecProcessControl) KillTree(pid int) error {
	return killProcessTree(pid)
}

type execProcess struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr io.ReadCloser
}

func (p *execProcess) ID() int           { return p.cmd.Process.Pid }
func (p *execProcess) Stdout() io.Reader { return p.stdout }
func (p *execProcess) Stderr() io.Reader { return p.stderr }

func (p *execProcess) Wait() (int, error) {
	err := p.cmd.Wait()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

// toolCommand builds a short-lived helper invocation (version probes,
// self-update) with the same platform attributes as download jobs
func toolCommand(ctx context.Context, binary string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, binary, args...)
	configureCommand(cmd)
	return cmd
}
