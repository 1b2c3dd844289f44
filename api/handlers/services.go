package handlers

import (
	"context"

	"github.com/yourusername/soundclip-go/internal/domain"
)

// DownloadService is the part of the download manager the API exposes
type DownloadService interface {
	Start(req domain.DownloadRequest) (*domain.Job, error)
	Cancel() bool
	Running() bool
	Status() (*domain.Job, error)
	GetJob(id string) (*domain.Job, error)
	ListJobs(status domain.JobStatus, limit int) ([]*domain.Job, error)
	GetStats() (*domain.JobStats, error)
}

// UpdateService is the part of the update manager the API exposes
type UpdateService interface {
	CheckYTDLPUpdate(ctx context.Context) (*domain.VersionComparison, error)
	UpdateYTDLP(ctx context.Context) (string, error)
	SelfUpdateYTDLP(ctx context.Context) error
	CheckFFmpeg(ctx context.Context) domain.FFmpegInfo
	InstallFFmpeg(ctx context.Context) (domain.FFmpegInfo, error)
	CheckDependencies(ctx context.Context) domain.DependencyStatus
}
