package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadRequest_WithDefaults(t *testing.T) {
	defaults := DownloadConfig{SavePath: "/music", AudioFormat: "mp3"}

	req := DownloadRequest{URL: "https://example.com/watch?v=1"}.WithDefaults(defaults)
	assert.Equal(t, "/music", req.SavePath)
	assert.Equal(t, "mp3", req.AudioFormat)

	explicit := DownloadRequest{URL: "u", SavePath: "/tmp", AudioFormat: "opus"}.WithDefaults(defaults)
	assert.Equal(t, "/tmp", explicit.SavePath)
	assert.Equal(t, "opus", explicit.AudioFormat)

	bare := DownloadRequest{URL: "u"}.WithDefaults(DownloadConfig{})
	assert.Equal(t, AudioFormatBest, bare.AudioFormat)
}

func TestDownloadRequest_Validate(t *testing.T) {
	assert.NoError(t, DownloadRequest{URL: "not even a url", SavePath: "/tmp"}.Validate())
	assert.ErrorIs(t, DownloadRequest{SavePath: "/tmp"}.Validate(), ErrInvalidRequest)
	assert.ErrorIs(t, DownloadRequest{URL: "https://example.com"}.Validate(), ErrInvalidRequest)
}

func TestTerminalOutcome_String(t *testing.T) {
	assert.Equal(t, "success", Success().String())
	assert.Equal(t, "failed:2", Failed(2).String())
	assert.Equal(t, "cancelled", Cancelled().String())
}

func TestNewJob(t *testing.T) {
	req := DownloadRequest{URL: "https://example.com/v", AudioFormat: "mp3", Playlist: true, SavePath: "/music"}

	job := NewJob(req)

	assert.NotEmpty(t, job.ID)
	assert.Equal(t, JobRunning, job.Status)
	assert.False(t, job.IsTerminal())
	assert.Equal(t, req, job.Request())
}

func TestJob_Finish(t *testing.T) {
	tests := []struct {
		name     string
		outcome  TerminalOutcome
		status   JobStatus
		exitCode *int
	}{
		{"success", Success(), JobCompleted, intPtr(0)},
		{"failed", Failed(1), JobFailed, intPtr(1)},
		{"cancelled", Cancelled(), JobCancelled, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := NewJob(DownloadRequest{URL: "u", SavePath: "/tmp"})
			job.Finish(tt.outcome)

			assert.Equal(t, tt.status, job.Status)
			assert.Equal(t, tt.exitCode, job.ExitCode)
			require.NotNil(t, job.CompletedAt)
			assert.True(t, job.IsTerminal())
		})
	}
}

func TestJob_MarkFailed(t *testing.T) {
	job := NewJob(DownloadRequest{URL: "u", SavePath: "/tmp"})

	job.MarkFailed(errors.New("spawn failed"))

	assert.Equal(t, JobFailed, job.Status)
	assert.Equal(t, "spawn failed", job.ErrorMessage)
	assert.Nil(t, job.ExitCode)
}

func intPtr(v int) *int { return &v }
