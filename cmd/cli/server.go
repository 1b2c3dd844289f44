package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/kardianos/service"
	"github.com/yourusername/soundclip-go/internal/app"
	"github.com/yourusername/soundclip-go/internal/domain"
)

const (
	serverStartTimeout = 10 * time.Second
	serverPollInterval = 200 * time.Millisecond
	serverBinaryName   = "soundclip-server"
)

// errServiceUnavailable means no soundclip service is registered with the
// service manager, so the server has to be launched directly
var errServiceUnavailable = errors.New("service not installed")

// resolveServerURL derives the API address from the same configuration the
// server reads, so both agree on host and port without a --server flag
func resolveServerURL(configFile string) string {
	config, err := app.LoadConfig(configFile)
	if err != nil {
		config = domain.DefaultConfig()
	}

	host := config.Server.Host
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(config.Server.Port))
}

// serverHealthy reports whether the server at baseURL answers its health check
func serverHealthy(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// serverLauncher brings the server up when nothing answers at baseURL.
// An installed service is preferred over a detached child process.
type serverLauncher struct {
	baseURL      string
	startService func() error
	spawn        func() error
	timeout      time.Duration
	poll         time.Duration
	out          io.Writer
}

func newServerLauncher(baseURL, configFile string) *serverLauncher {
	return &serverLauncher{
		baseURL:      baseURL,
		startService: func() error { return startInstalledService(configFile) },
		spawn:        func() error { return spawnServer(configFile) },
		timeout:      serverStartTimeout,
		poll:         serverPollInterval,
		out:          os.Stdout,
	}
}

func (l *serverLauncher) ensure(ctx context.Context) error {
	if serverHealthy(ctx, l.baseURL) {
		return nil
	}

	fmt.Fprintln(l.out, "Server not running, starting...")
	if err := l.start(); err != nil {
		return err
	}
	if err := l.waitHealthy(ctx); err != nil {
		return err
	}

	fmt.Fprintln(l.out, "Server started successfully")
	return nil
}

func (l *serverLauncher) start() error {
	err := l.startService()
	if err == nil {
		return nil
	}
	if !errors.Is(err, errServiceUnavailable) {
		fmt.Fprintf(l.out, "Could not start the %s service (%v), launching the server directly\n", app.ServiceName, err)
	}

	if err := l.spawn(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (l *serverLauncher) waitHealthy(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()

	for {
		if serverHealthy(ctx, l.baseURL) {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("server did not start within %v", l.timeout)
		case <-ticker.C:
		}
	}
}

// controlProgram satisfies service.Interface for a client that only
// queries and starts the service
type controlProgram struct{}

func (controlProgram) Start(service.Service) error { return nil }
func (controlProgram) Stop(service.Service) error  { return nil }

func startInstalledService(configFile string) error {
	s, err := service.New(controlProgram{}, app.ServiceConfig(configFile))
	if err != nil {
		return errServiceUnavailable
	}

	status, err := s.Status()
	if err != nil && (status == service.StatusUnknown || errors.Is(err, service.ErrNotInstalled)) {
		return errServiceUnavailable
	}
	if status == service.StatusRunning {
		// Still starting up; the health poll covers the rest
		return nil
	}
	return service.Control(s, "start")
}

// findServerBinary looks next to the CLI first, then on PATH
func findServerBinary() (string, error) {
	if execPath, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(execPath), serverBinaryName+exeSuffix)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	path, err := exec.LookPath(serverBinaryName)
	if err != nil {
		return "", fmt.Errorf("%s binary not found next to the CLI or on PATH", serverBinaryName)
	}
	return path, nil
}

func spawnServer(configFile string) error {
	path, err := findServerBinary()
	if err != nil {
		return err
	}

	var args []string
	if configFile != "" {
		args = append(args, "-config", configFile)
	}
	cmd := exec.Command(path, args...)
	detach(cmd)

	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}

// ensureServerRunning starts a local server if none answers at serverURL
func ensureServerRunning() error {
	return newServerLauncher(serverURL, configFile).ensure(context.Background())
}
