package app

import (
	"context"

	"github.com/yourusername/soundclip-go/internal/domain"
	"github.com/yourusername/soundclip-go/internal/infrastructure"
	"github.com/yourusername/soundclip-go/pkg/logger"
	"go.uber.org/zap"
)

// UpdateManager keeps yt-dlp and ffmpeg installed and current. Only one
// install runs at a time, and never while a download uses the binaries.
type UpdateManager struct {
	probe     *infrastructure.VersionProbe
	releases  *infrastructure.ReleaseClient
	installer *infrastructure.Installer
	notifier  *infrastructure.NotificationService
	tools     *ToolLock
	events    domain.UpdateLogSink
	config    *domain.UpdaterConfig
	paths     domain.PathsConfig
	logger    *logger.LoggerAdapter
}

// NewUpdateManager creates a new update manager. events may be nil.
func NewUpdateManager(
	probe *infrastructure.VersionProbe,
	releases *infrastructure.ReleaseClient,
	installer *infrastructure.Installer,
	notifier *infrastructure.NotificationService,
	tools *ToolLock,
	events domain.UpdateLogSink,
	config *domain.UpdaterConfig,
	paths domain.PathsConfig,
	log *logger.LoggerAdapter,
) *UpdateManager {
	if log == nil {
		log = logger.NewSingleLoggerAdapter(nil)
	}
	if tools == nil {
		tools = NewToolLock()
	}
	return &UpdateManager{
		probe:     probe,
		releases:  releases,
		installer: installer,
		notifier:  notifier,
		tools:     tools,
		events:    events,
		config:    config,
		paths:     paths,
		logger:    log,
	}
}

// CheckYTDLPUpdate compares the installed yt-dlp with the latest release.
// An installed binary that cannot report its version counts as absent.
func (um *UpdateManager) CheckYTDLPUpdate(ctx context.Context) (*domain.VersionComparison, error) {
	var local *string
	if version, err := um.probe.LocalVersion(ctx); err == nil {
		local = &version
	}

	tag, url, err := um.releases.LatestRelease(ctx, domain.YTDLPAssetName())
	if err != nil {
		um.logger.Update().Warn("Release check failed", zap.Error(err))
		return nil, err
	}

	comparison := domain.CompareVersions(local, tag)
	comparison.DownloadURL = url

	um.logger.Update().Info("Release checked",
		zap.Stringp("local", local),
		zap.String("latest", tag),
		zap.Bool("update_available", comparison.UpdateAvailable))
	return &comparison, nil
}

// UpdateYTDLP installs the platform asset of the latest yt-dlp release.
// The download URL always comes from the configured release feed. It
// returns the version reported afterwards, if any.
func (um *UpdateManager) UpdateYTDLP(ctx context.Context) (string, error) {
	if err := um.begin(); err != nil {
		return "", err
	}
	defer um.end()

	progress := um.progressSink()
	progress.OnUpdateLog("Checking latest yt-dlp release...")
	_, url, err := um.releases.LatestRelease(ctx, domain.YTDLPAssetName())
	if err != nil {
		return "", err
	}

	name := domain.ExecutableName(domain.ToolYTDLP)
	if err := um.installer.InstallBinary(ctx, url, name, progress); err != nil {
		um.logger.LogError("yt-dlp update failed", zap.String("url", url), zap.Error(err))
		return "", err
	}

	version, err := um.probe.LocalVersion(ctx)
	if err != nil {
		um.logger.Update().Warn("Installed yt-dlp did not report a version", zap.Error(err))
		version = ""
	}

	um.logger.Update().Info("yt-dlp updated", zap.String("url", url), zap.String("version", version))
	if um.notifier != nil {
		um.notifier.NotifyToolInstalled(domain.ToolYTDLP, version)
	}
	return version, nil
}

// SelfUpdateYTDLP lets yt-dlp update itself with -U
func (um *UpdateManager) SelfUpdateYTDLP(ctx context.Context) error {
	if err := um.begin(); err != nil {
		return err
	}
	defer um.end()

	if err := um.installer.SelfUpdate(ctx, um.paths.YTDLPPath(), um.progressSink()); err != nil {
		um.logger.LogError("yt-dlp self-update failed", zap.Error(err))
		return err
	}

	um.logger.Update().Info("yt-dlp self-update finished")
	return nil
}

// CheckFFmpeg reports whether ffmpeg is usable and its version
func (um *UpdateManager) CheckFFmpeg(ctx context.Context) domain.FFmpegInfo {
	return um.probe.FFmpegInfo(ctx)
}

// InstallFFmpeg installs ffmpeg and ffprobe from the configured archive
func (um *UpdateManager) InstallFFmpeg(ctx context.Context) (domain.FFmpegInfo, error) {
	if err := um.begin(); err != nil {
		return domain.FFmpegInfo{}, err
	}
	defer um.end()

	url := um.config.FFmpegArchiveURL
	if url == "" {
		url = domain.DefaultFFmpegArchiveURL()
	}
	targets := []string{
		domain.ExecutableName(domain.ToolFFmpeg),
		domain.ExecutableName(domain.ToolFFprobe),
	}

	if err := um.installer.InstallArchive(ctx, url, targets, um.progressSink()); err != nil {
		um.logger.LogError("ffmpeg install failed", zap.String("url", url), zap.Error(err))
		return domain.FFmpegInfo{}, err
	}

	info := um.probe.FFmpegInfo(ctx)
	version := ""
	if info.Version != nil {
		version = *info.Version
	}
	um.logger.Update().Info("ffmpeg installed", zap.String("url", url), zap.String("version", version))
	if um.notifier != nil {
		um.notifier.NotifyToolInstalled(domain.ToolFFmpeg, version)
	}
	return info, nil
}

// CheckDependencies reports the state of every external tool
func (um *UpdateManager) CheckDependencies(ctx context.Context) domain.DependencyStatus {
	return um.probe.Dependencies(ctx)
}

func (um *UpdateManager) begin() error {
	return um.tools.AcquireInstall()
}

func (um *UpdateManager) end() {
	um.tools.ReleaseInstall()
}

// progressSink sends install messages to the event stream and the update log
func (um *UpdateManager) progressSink() domain.UpdateLogSink {
	return infrastructure.UpdateLogFanout{um.events, updateLogWriter{um.logger.Update()}}
}

// updateLogWriter records install progress in the update category
type updateLogWriter struct {
	log *zap.Logger
}

func (w updateLogWriter) OnUpdateLog(message string) {
	w.log.Info(message)
}
