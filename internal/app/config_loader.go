package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/yourusername/soundclip-go/internal/domain"
)

// EnvPrefix prefixes every environment override, e.g. SOUNDCLIP_SERVER_PORT
const EnvPrefix = "SOUNDCLIP"

// LoadConfig loads configuration from file and environment
func LoadConfig(configPath string) (*domain.Config, error) {
	config := domain.DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, config)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.config/soundclip")
		v.AddConfigPath("/etc/soundclip")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config = expandPaths(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults registers every key so AutomaticEnv can override keys that
// are absent from the config file
func setDefaults(v *viper.Viper, config *domain.Config) {
	v.SetDefault("server.host", config.Server.Host)
	v.SetDefault("server.port", config.Server.Port)
	v.SetDefault("paths.app_dir", config.Paths.AppDir)
	v.SetDefault("download.save_path", config.Download.SavePath)
	v.SetDefault("download.audio_format", config.Download.AudioFormat)
	v.SetDefault("download.playlist", config.Download.Playlist)
	v.SetDefault("updater.user_agent", config.Updater.UserAgent)
	v.SetDefault("updater.ytdlp_release_url", config.Updater.YTDLPReleaseURL)
	v.SetDefault("updater.ffmpeg_archive_url", config.Updater.FFmpegArchiveURL)
	v.SetDefault("updater.http_timeout", config.Updater.HTTPTimeout)
	v.SetDefault("notification.enabled", config.Notification.Enabled)
	v.SetDefault("notification.sound", config.Notification.Sound)
	v.SetDefault("notification.method", config.Notification.Method)
	v.SetDefault("logging.level", config.Logging.Level)
	v.SetDefault("logging.format", config.Logging.Format)
	v.SetDefault("logging.output_path", config.Logging.OutputPath)
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) *domain.Config {
	config.Paths.AppDir = expandPath(config.Paths.AppDir)
	config.Download.SavePath = expandPath(config.Download.SavePath)

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	return config
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	// $HOME first so it works where HOME is unset (Windows)
	if strings.Contains(path, "$HOME") {
		if home, err := os.UserHomeDir(); err == nil {
			path = strings.ReplaceAll(path, "$HOME", home)
		}
	}

	return os.ExpandEnv(path)
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Paths.AppDir == "" {
		return fmt.Errorf("app directory not configured")
	}

	if config.Updater.HTTPTimeout < 0 {
		return fmt.Errorf("http timeout cannot be negative")
	}

	if config.Updater.UserAgent == "" {
		config.Updater.UserAgent = domain.DefaultUserAgent
	}

	if config.Download.AudioFormat == "" {
		config.Download.AudioFormat = domain.AudioFormatBest
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *domain.Config, path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	v.Set("server.host", config.Server.Host)
	v.Set("server.port", config.Server.Port)
	v.Set("paths.app_dir", config.Paths.AppDir)
	v.Set("download.save_path", config.Download.SavePath)
	v.Set("download.audio_format", config.Download.AudioFormat)
	v.Set("download.playlist", config.Download.Playlist)
	v.Set("updater.user_agent", config.Updater.UserAgent)
	v.Set("updater.ytdlp_release_url", config.Updater.YTDLPReleaseURL)
	v.Set("updater.ffmpeg_archive_url", config.Updater.FFmpegArchiveURL)
	v.Set("updater.http_timeout", config.Updater.HTTPTimeout.String())
	v.Set("notification.enabled", config.Notification.Enabled)
	v.Set("notification.sound", config.Notification.Sound)
	v.Set("notification.method", config.Notification.Method)
	v.Set("logging.level", config.Logging.Level)
	v.Set("logging.format", config.Logging.Format)
	v.Set("logging.output_path", config.Logging.OutputPath)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
