//go:build integration

package integration

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/soundclip-go/api"
	"github.com/yourusername/soundclip-go/api/handlers"
	"github.com/yourusername/soundclip-go/internal/app"
	"github.com/yourusername/soundclip-go/internal/domain"
	"github.com/yourusername/soundclip-go/internal/infrastructure"
	"github.com/yourusername/soundclip-go/pkg/logger"
)

// fakeYTDLP prints two progress lines and a warning, then exits with
// $FAKE_EXIT. With FAKE_HANG set it sleeps after the first line.
const fakeYTDLP = `#!/bin/sh
if [ "$1" = "--version" ]; then
	echo "2024.01.01"
	exit 0
fi
echo "[download]  25.0% of 3.00MiB at 1.00MiB/s ETA 00:02"
echo "WARNING: integration test" >&2
if [ -n "$FAKE_HANG" ]; then
	sleep 60
fi
echo "[download] 100.0% of 3.00MiB in 00:03"
exit ${FAKE_EXIT:-0}
`

type testEnv struct {
	server   *httptest.Server
	config   *domain.Config
	hub      *handlers.EventHub
	download *app.DownloadManager
}

func setupTestServer(t *testing.T, withTool bool) *testEnv {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake yt-dlp is a shell script")
	}

	root := t.TempDir()
	config := domain.DefaultConfig()
	config.Paths.AppDir = filepath.Join(root, "app")
	config.Download.SavePath = filepath.Join(root, "music")
	require.NoError(t, os.MkdirAll(config.Paths.BinDir(), 0755))

	if withTool {
		require.NoError(t, os.WriteFile(config.Paths.YTDLPPath(), []byte(fakeYTDLP), 0755))
	}

	multiLog, err := logger.NewMultiLogger(logger.MultiLoggerConfig{Level: "debug", LogsDir: config.Paths.LogsDir()})
	require.NoError(t, err)
	t.Cleanup(func() { multiLog.Close() })
	logAdapter := logger.NewLoggerAdapter(multiLog, nil)

	repo, err := infrastructure.NewSQLiteJobRepository(filepath.Join(root, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	hub := handlers.NewEventHub(nil)
	supervisor := infrastructure.NewSupervisor(
		infrastructure.NewProcessControl(),
		infrastructure.NewProcessSlot(),
		config.Paths,
		logAdapter.Job(),
	)
	notifier := infrastructure.NewNotificationService(&config.Notification, nil)
	tools := app.NewToolLock()
	downloadMgr := app.NewDownloadManager(supervisor, repo, notifier, hub, tools, &config.Download, config.Paths, logAdapter)
	updateMgr := app.NewUpdateManager(
		infrastructure.NewVersionProbe(config.Paths),
		infrastructure.NewReleaseClient(infrastructure.WithFeedURL("http://127.0.0.1:1/releases/latest")),
		infrastructure.NewInstaller(config.Paths, config.Updater, nil),
		notifier,
		tools,
		hub,
		&config.Updater,
		config.Paths,
		logAdapter,
	)

	router := api.SetupRouter(downloadMgr, updateMgr, hub, logAdapter, config.Paths.LogsDir())
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testEnv{server: server, config: config, hub: hub, download: downloadMgr}
}

func (e *testEnv) subscribe(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/api/v1/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return e.hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	return conn
}

// collectUntilComplete reads events up to and including the complete event
func collectUntilComplete(t *testing.T, conn *websocket.Conn) []handlers.Event {
	t.Helper()
	var events []handlers.Event
	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))
		var ev handlers.Event
		require.NoError(t, conn.ReadJSON(&ev))
		events = append(events, ev)
		if ev.Event == domain.EventComplete {
			return events
		}
	}
}
