package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIncompleteArchiveError(t *testing.T) {
	err := fmt.Errorf("install ffmpeg: %w", &IncompleteArchiveError{Missing: []string{"tool.probe"}})

	assert.True(t, errors.Is(err, ErrIncompleteArchive))
	assert.Contains(t, err.Error(), "tool.probe")

	var incomplete *IncompleteArchiveError
	assert.True(t, errors.As(err, &incomplete))
	assert.Equal(t, []string{"tool.probe"}, incomplete.Missing)
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains string
	}{
		{"nil", nil, ""},
		{"missing tool", fmt.Errorf("start: %w", ErrPrerequisiteMissing), "Check Update"},
		{"cancelled", ErrCancelled, "cancelled"},
		{"busy", ErrJobInProgress, "already running"},
		{"exit code", fmt.Errorf("job: %w", &ExitError{Code: 2}), "exited with code 2"},
		{"network", fmt.Errorf("%w: connection refused", ErrNetwork), "try again"},
		{"other", errors.New("disk full"), "disk full"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, UserMessage(tt.err), tt.contains)
		})
	}
}
