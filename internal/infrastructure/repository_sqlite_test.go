package infrastructure

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/soundclip-go/internal/domain"
)

func setupTestRepo(t *testing.T) *SQLiteJobRepository {
	t.Helper()
	repo, err := NewSQLiteJobRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newTestJob(url string) *domain.Job {
	return domain.NewJob(domain.DownloadRequest{URL: url, AudioFormat: "mp3", SavePath: "/music"})
}

func TestSQLiteJobRepository_CreateAndFind(t *testing.T) {
	repo := setupTestRepo(t)

	job := newTestJob("https://example.com/a")
	require.NoError(t, repo.Create(job))

	found, err := repo.FindByID(job.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, job.URL, found.URL)
	assert.Equal(t, domain.JobRunning, found.Status)
	assert.Nil(t, found.ExitCode)

	missing, err := repo.FindByID("does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSQLiteJobRepository_UpdateOutcome(t *testing.T) {
	repo := setupTestRepo(t)

	job := newTestJob("https://example.com/a")
	require.NoError(t, repo.Create(job))

	job.Progress = 55.5
	job.Finish(domain.Failed(1))
	require.NoError(t, repo.Update(job))

	found, err := repo.FindByID(job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobFailed, found.Status)
	require.NotNil(t, found.ExitCode)
	assert.Equal(t, 1, *found.ExitCode)
	assert.Equal(t, 55.5, found.Progress)
	assert.NotNil(t, found.CompletedAt)
}

func TestSQLiteJobRepository_FindAllAndLatest(t *testing.T) {
	repo := setupTestRepo(t)

	latest, err := repo.FindLatest()
	require.NoError(t, err)
	assert.Nil(t, latest)

	first := newTestJob("https://example.com/1")
	first.CreatedAt = time.Now().Add(-time.Minute)
	first.Finish(domain.Success())
	require.NoError(t, repo.Create(first))

	second := newTestJob("https://example.com/2")
	require.NoError(t, repo.Create(second))

	all, err := repo.FindAll(nil, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)

	limited, err := repo.FindAll(nil, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	completed, err := repo.FindAll(map[string]interface{}{"status": domain.JobCompleted}, 0)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, first.ID, completed[0].ID)

	_, err = repo.FindAll(map[string]interface{}{"1=1; DROP TABLE jobs; --": 1}, 0)
	assert.Error(t, err)

	latest, err = repo.FindLatest()
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
}

func TestSQLiteJobRepository_StatsAndOrphans(t *testing.T) {
	repo := setupTestRepo(t)

	done := newTestJob("https://example.com/done")
	done.Finish(domain.Success())
	cancelled := newTestJob("https://example.com/cancelled")
	cancelled.Finish(domain.Cancelled())
	failed := newTestJob("https://example.com/failed")
	failed.MarkFailed(errors.New("spawn"))
	orphan := newTestJob("https://example.com/orphan")

	for _, job := range []*domain.Job{done, cancelled, failed, orphan} {
		require.NoError(t, repo.Create(job))
	}

	stats, err := repo.GetStats()
	require.NoError(t, err)
	assert.Equal(t, &domain.JobStats{Total: 4, Running: 1, Completed: 1, Failed: 1, Cancelled: 1}, stats)

	reset, err := repo.ResetOrphanedRunning()
	require.NoError(t, err)
	assert.Equal(t, int64(1), reset)

	found, err := repo.FindByID(orphan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobFailed, found.Status)
	assert.Equal(t, "interrupted by server restart", found.ErrorMessage)

	stats, err = repo.GetStats()
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.Running)
	assert.Equal(t, int64(2), stats.Failed)
}
