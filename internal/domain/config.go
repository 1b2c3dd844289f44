package domain

import (
	"path/filepath"
	"runtime"
	"time"
)

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Paths        PathsConfig        `mapstructure:"paths"`
	Download     DownloadConfig     `mapstructure:"download"`
	Updater      UpdaterConfig      `mapstructure:"updater"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// PathsConfig describes the application-private directory layout.
// Everything the service owns lives below AppDir.
type PathsConfig struct {
	AppDir string `mapstructure:"app_dir"`
}

// BinDir returns the directory holding the external tool executables
func (p PathsConfig) BinDir() string {
	return filepath.Join(p.AppDir, "bin")
}

// LogsDir returns the directory for category and tool output logs
func (p PathsConfig) LogsDir() string {
	return filepath.Join(p.AppDir, "logs")
}

// DatabasePath returns the job history database location
func (p PathsConfig) DatabasePath() string {
	return filepath.Join(p.AppDir, "soundclip.db")
}

// ExecutablePath returns the canonical path of a named tool inside BinDir
func (p PathsConfig) ExecutablePath(name string) string {
	return filepath.Join(p.BinDir(), ExecutableName(name))
}

// YTDLPPath returns the canonical yt-dlp location
func (p PathsConfig) YTDLPPath() string {
	return p.ExecutablePath(ToolYTDLP)
}

// ExecutableName appends the platform executable suffix
func ExecutableName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

// Tool names as they appear in the bin directory (without platform suffix)
const (
	ToolYTDLP   = "yt-dlp"
	ToolFFmpeg  = "ffmpeg"
	ToolFFprobe = "ffprobe"
)

// DownloadConfig holds the defaults applied to incoming download requests
type DownloadConfig struct {
	SavePath    string `mapstructure:"save_path"`
	AudioFormat string `mapstructure:"audio_format"`
	Playlist    bool   `mapstructure:"playlist"`
}

// UpdaterConfig contains release feed and installer configuration
type UpdaterConfig struct {
	UserAgent        string        `mapstructure:"user_agent"`
	YTDLPReleaseURL  string        `mapstructure:"ytdlp_release_url"`
	FFmpegArchiveURL string        `mapstructure:"ffmpeg_archive_url"`
	HTTPTimeout      time.Duration `mapstructure:"http_timeout"`
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Sound   bool   `mapstructure:"sound"`
	Method  string `mapstructure:"method"` // osascript, notify-send
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
}

const (
	DefaultYTDLPReleaseURL = "https://api.github.com/repos/yt-dlp/yt-dlp/releases/latest"
	DefaultUserAgent       = "SoundClip/1.0"

	ffmpegBuildsBase = "https://github.com/yt-dlp/FFmpeg-Builds/releases/download/latest/"
)

// DefaultFFmpegArchiveURL picks the FFmpeg-Builds archive for the running platform
func DefaultFFmpegArchiveURL() string {
	switch {
	case runtime.GOOS == "windows":
		return ffmpegBuildsBase + "ffmpeg-master-latest-win64-gpl.zip"
	case runtime.GOARCH == "arm64":
		return ffmpegBuildsBase + "ffmpeg-master-latest-linuxarm64-gpl.tar.xz"
	default:
		return ffmpegBuildsBase + "ffmpeg-master-latest-linux64-gpl.tar.xz"
	}
}

// YTDLPAssetName is the release asset that carries the standalone yt-dlp binary
func YTDLPAssetName() string {
	switch runtime.GOOS {
	case "windows":
		return "yt-dlp.exe"
	case "darwin":
		return "yt-dlp_macos"
	default:
		if runtime.GOARCH == "arm64" {
			return "yt-dlp_linux_aarch64"
		}
		return "yt-dlp_linux"
	}
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8765,
		},
		Paths: PathsConfig{
			AppDir: "$HOME/.local/share/SoundClip",
		},
		Download: DownloadConfig{
			SavePath:    "$HOME/Downloads",
			AudioFormat: AudioFormatBest,
			Playlist:    false,
		},
		Updater: UpdaterConfig{
			UserAgent:        DefaultUserAgent,
			YTDLPReleaseURL:  DefaultYTDLPReleaseURL,
			FFmpegArchiveURL: DefaultFFmpegArchiveURL(),
			HTTPTimeout:      10 * time.Minute,
		},
		Notification: NotificationConfig{
			Enabled: false,
			Sound:   false,
			Method:  "notify-send",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
		},
	}
}
