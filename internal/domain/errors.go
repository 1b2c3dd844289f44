package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPrerequisiteMissing indicates the download tool is not installed
	ErrPrerequisiteMissing = errors.New("yt-dlp not found")

	// ErrSpawn indicates the child process could not be created
	ErrSpawn = errors.New("failed to start yt-dlp")

	// ErrStreamCapture indicates stdout or stderr could not be captured
	ErrStreamCapture = errors.New("failed to capture yt-dlp output")

	// ErrCancelled is returned for jobs terminated through cancel.
	// It is a distinct terminal state, not a failure.
	ErrCancelled = errors.New("process was cancelled")

	// ErrJobInProgress rejects a second job while one is running
	ErrJobInProgress = errors.New("a download is already in progress")

	// ErrUpdateInProgress rejects overlapping installs
	ErrUpdateInProgress = errors.New("an update is already in progress")

	ErrInvalidRequest = errors.New("invalid download request")

	ErrNotInstalled  = errors.New("yt-dlp not installed")
	ErrProbe         = errors.New("failed to run version probe")
	ErrNetwork       = errors.New("network error")
	ErrDecode        = errors.New("failed to decode release feed")
	ErrAssetNotFound = errors.New("asset not found in release")

	ErrWrite             = errors.New("write error")
	ErrReplace           = errors.New("cannot remove old binary")
	ErrRename            = errors.New("rename failed")
	ErrIncompleteArchive = errors.New("archive is missing expected members")
)

// ExitError reports a tool run that finished with a nonzero exit code
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("yt-dlp exited with code %d", e.Code)
}

// IncompleteArchiveError lists requested archive members that were not found.
// It wraps ErrIncompleteArchive so callers can use errors.Is.
type IncompleteArchiveError struct {
	Missing []string
}

func (e *IncompleteArchiveError) Error() string {
	return fmt.Sprintf("%s not found in archive", strings.Join(e.Missing, ", "))
}

// Unwrap returns ErrIncompleteArchive
func (e *IncompleteArchiveError) Unwrap() error { return ErrIncompleteArchive }

// UserMessage converts an internal error into the text shown to users.
// Internal error types never cross into the event stream; only this text does.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var exitErr *ExitError
	switch {
	case errors.Is(err, ErrPrerequisiteMissing):
		return "yt-dlp not found. Use Check Update to download it."
	case errors.Is(err, ErrCancelled):
		return "Download cancelled."
	case errors.Is(err, ErrJobInProgress):
		return "A download is already running. Cancel it or wait for it to finish."
	case errors.Is(err, ErrUpdateInProgress):
		return "An update is already running."
	case errors.As(err, &exitErr):
		return exitErr.Error()
	case errors.Is(err, ErrNetwork), errors.Is(err, ErrDecode), errors.Is(err, ErrAssetNotFound):
		return fmt.Sprintf("Update check failed: %v. Please try again.", err)
	default:
		return err.Error()
	}
}
