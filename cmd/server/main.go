package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/soundclip-go/api"
	"github.com/yourusername/soundclip-go/api/handlers"
	"github.com/yourusername/soundclip-go/internal/app"
	"github.com/yourusername/soundclip-go/internal/domain"
	"github.com/yourusername/soundclip-go/internal/infrastructure"
	"github.com/yourusername/soundclip-go/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

var (
	configPath    = flag.String("config", "", "Path to config file")
	serviceAction = flag.String("service", "", "Manage the system service: install, uninstall, start, stop, restart")
	initConfig    = flag.Bool("init-config", false, "Write the effective configuration to -config and exit")
)

func main() {
	flag.Parse()

	if *initConfig {
		if err := writeConfig(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write config: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *serviceAction != "" {
		if err := controlService(*serviceAction); err != nil {
			fmt.Fprintf(os.Stderr, "Service %s failed: %v\n", *serviceAction, err)
			os.Exit(1)
		}
		return
	}

	if err := runService(); err != nil {
		fmt.Fprintf(os.Stderr, "Server failed: %v\n", err)
		os.Exit(1)
	}
}

// server owns every long-lived component of a running instance
type server struct {
	config      *domain.Config
	multiLog    *logger.MultiLogger
	logAdapter  *logger.LoggerAdapter
	repo        *infrastructure.SQLiteJobRepository
	downloadMgr *app.DownloadManager
	httpServer  *http.Server
}

// newServer loads configuration and wires the application
func newServer(configPath string) (*server, error) {
	config, err := app.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := createDirectories(config); err != nil {
		return nil, err
	}

	general, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		general = logger.NewDefault()
		general.Warn("Falling back to stdout logging", zap.Error(err))
	}

	// Categorized file logs: job, update, error
	multiLog, err := logger.NewMultiLogger(logger.MultiLoggerConfig{
		Level:   config.Logging.Level,
		LogsDir: config.Paths.LogsDir(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize category logs: %w", err)
	}
	logAdapter := logger.NewLoggerAdapter(multiLog, general)
	log := logAdapter.General()

	repo, err := infrastructure.NewSQLiteJobRepository(config.Paths.DatabasePath())
	if err != nil {
		multiLog.Close()
		return nil, fmt.Errorf("failed to initialize repository: %w", err)
	}

	notifier := infrastructure.NewNotificationService(&config.Notification, log)
	hub := handlers.NewEventHub(log)

	supervisor := infrastructure.NewSupervisor(
		infrastructure.NewProcessControl(),
		infrastructure.NewProcessSlot(),
		config.Paths,
		logAdapter.Job(),
	)
	tools := app.NewToolLock()
	downloadMgr := app.NewDownloadManager(supervisor, repo, notifier, hub, tools, &config.Download, config.Paths, logAdapter)
	downloadMgr.RecoverOrphans()

	releases := infrastructure.NewReleaseClient(
		infrastructure.WithFeedURL(config.Updater.YTDLPReleaseURL),
		infrastructure.WithUserAgent(config.Updater.UserAgent),
		infrastructure.WithHTTPClient(&http.Client{Timeout: 30 * time.Second}),
	)
	installer := infrastructure.NewInstaller(config.Paths, config.Updater, logAdapter.Update())
	updateMgr := app.NewUpdateManager(
		infrastructure.NewVersionProbe(config.Paths),
		releases,
		installer,
		notifier,
		tools,
		hub,
		&config.Updater,
		config.Paths,
		logAdapter,
	)

	router := api.SetupRouter(downloadMgr, updateMgr, hub, logAdapter, config.Paths.LogsDir())

	log.Info("SoundClip server configured",
		zap.String("version", handlers.Version),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.String("app_dir", config.Paths.AppDir),
		zap.String("save_path", config.Download.SavePath))

	return &server{
		config:      config,
		multiLog:    multiLog,
		logAdapter:  logAdapter,
		repo:        repo,
		downloadMgr: downloadMgr,
		httpServer: &http.Server{
			Addr:    fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port),
			Handler: router,
		},
	}, nil
}

// serve runs the HTTP server until Shutdown is called
func (s *server) serve() {
	log := s.logAdapter.General()
	log.Info("HTTP server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logAdapter.LogError("HTTP server stopped", zap.Error(err))
	}
}

// shutdown cancels any running job, drains HTTP and closes storage
func (s *server) shutdown() {
	log := s.logAdapter.General()
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.downloadMgr.Shutdown(ctx); err != nil {
		log.Warn("Download did not stop in time", zap.Error(err))
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := s.repo.Close(); err != nil {
		log.Error("Failed to close repository", zap.Error(err))
	}

	log.Info("Server exited")
	_ = s.logAdapter.Sync()
	_ = s.multiLog.Close()
}

// writeConfig saves defaults merged with any existing file and environment
func writeConfig(path string) error {
	if path == "" {
		return fmt.Errorf("-init-config requires -config")
	}
	config, err := app.LoadConfig(path)
	if err != nil {
		config, err = app.LoadConfig("")
		if err != nil {
			return err
		}
	}
	if err := app.SaveConfig(config, path); err != nil {
		return err
	}
	fmt.Printf("Configuration written to %s\n", path)
	return nil
}

func createDirectories(config *domain.Config) error {
	dirs := []string{
		config.Paths.AppDir,
		config.Paths.BinDir(),
		config.Paths.LogsDir(),
		config.Download.SavePath,
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
