package logger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "server.log")

	log, err := New(Config{Level: "debug", Format: "json", OutputPath: path})
	require.NoError(t, err)
	log.Info("hello", zap.String("k", "v"))
	require.NoError(t, log.Sync())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"msg":"hello"`)
	assert.Contains(t, string(content), `"k":"v"`)
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	log, err := New(Config{Level: "chatty", OutputPath: "stderr"})
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zap.DebugLevel))
	assert.True(t, log.Core().Enabled(zap.InfoLevel))
}

func TestMultiLogger_WritesCategoriesAndReadsBack(t *testing.T) {
	logsDir := t.TempDir()
	ml, err := NewMultiLogger(MultiLoggerConfig{Level: "info", LogsDir: logsDir})
	require.NoError(t, err)

	ml.LogJobEvent("Job started", zap.String("job_id", "abc"), zap.String("url", "https://example.com"))
	ml.LogUpdateEvent("yt-dlp updated", zap.String("version", "2024.08.06"))
	ml.LogAppError("disk full")
	ml.Error().Info("below error level")
	require.NoError(t, ml.Close())

	reader := NewLogReader(logsDir)

	jobs, err := reader.ReadLogs(CategoryJob, time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Job started", jobs[0].Message)
	assert.Equal(t, "info", jobs[0].Level)
	assert.Equal(t, "job", jobs[0].Category)
	assert.Equal(t, "abc", jobs[0].Fields["job_id"])
	assert.NotEmpty(t, jobs[0].Timestamp)

	errs, err := reader.ReadLogs(CategoryError, time.Now(), 0)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, "disk full", errs[0].Message)

	found, err := reader.SearchLogs(CategoryUpdate, time.Now(), "2024.08", 10)
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestLogReader_RawOutputAndLimit(t *testing.T) {
	logsDir := t.TempDir()
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	content := "=== header ===\n[download]  10.0%\n\n[download]  20.0%\n=== END ===\n"
	require.NoError(t, os.WriteFile(filepath.Join(logsDir, "output-20240102.log"), []byte(content), 0644))

	reader := NewLogReader(logsDir)

	entries, err := reader.ReadLogs(CategoryOutput, day, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "[download]  20.0%", entries[0].Message)
	assert.Equal(t, "=== END ===", entries[1].Message)
	assert.Equal(t, "output", entries[1].Category)

	missing, err := reader.ReadLogs(CategoryOutput, day.AddDate(0, 0, 1), 10)
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestIsValidCategory(t *testing.T) {
	assert.True(t, IsValidCategory(CategoryJob))
	assert.True(t, IsValidCategory(CategoryOutput))
	assert.False(t, IsValidCategory("queue"))
}

func TestLoggerAdapter_Single(t *testing.T) {
	adapter := NewSingleLoggerAdapter(nil)

	assert.NotNil(t, adapter.Job())
	assert.NotNil(t, adapter.Update())
	assert.Equal(t, "", adapter.LogsDir())
	assert.NotPanics(t, func() { adapter.LogError("boom") })
}
