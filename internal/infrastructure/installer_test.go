package infrastructure

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
	"github.com/yourusername/soundclip-go/internal/domain"
)

type recordingUpdateLog struct {
	mu       sync.Mutex
	messages []string
}

func (r *recordingUpdateLog) OnUpdateLog(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
}

func serveBytes(t *testing.T, status int, body []byte) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != domain.DefaultUserAgent {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(status)
		w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestInstaller(t *testing.T) (*Installer, domain.PathsConfig) {
	paths := domain.PathsConfig{AppDir: t.TempDir()}
	return NewInstaller(paths, domain.UpdaterConfig{}, nil), paths
}

func TestInstaller_InstallBinaryReplacesExisting(t *testing.T) {
	installer, paths := newTestInstaller(t)
	require.NoError(t, os.MkdirAll(paths.BinDir(), 0755))
	target := filepath.Join(paths.BinDir(), "yt-dlp")
	require.NoError(t, os.WriteFile(target, []byte("old"), 0755))

	server := serveBytes(t, http.StatusOK, []byte("new binary"))
	log := &recordingUpdateLog{}

	err := installer.InstallBinary(context.Background(), server.URL, "yt-dlp", log)

	require.NoError(t, err)
	content, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "new binary", string(content))
	assert.NoFileExists(t, target+".tmp")
	assert.Equal(t, []string{"Downloading yt-dlp...", "yt-dlp updated successfully."}, log.messages)
}

func TestInstaller_InstallBinaryHTTPErrorKeepsOldBinary(t *testing.T) {
	installer, paths := newTestInstaller(t)
	require.NoError(t, os.MkdirAll(paths.BinDir(), 0755))
	target := filepath.Join(paths.BinDir(), "yt-dlp")
	require.NoError(t, os.WriteFile(target, []byte("old"), 0755))

	server := serveBytes(t, http.StatusNotFound, []byte("not found"))

	err := installer.InstallBinary(context.Background(), server.URL, "yt-dlp", nil)

	assert.ErrorIs(t, err, domain.ErrNetwork)
	content, readErr := os.ReadFile(target)
	require.NoError(t, readErr)
	assert.Equal(t, "old", string(content))
	assert.NoFileExists(t, target+".tmp")
}

func withDownloadLimit(t *testing.T, limit int64) {
	t.Helper()
	previous := maxDownloadBytes
	maxDownloadBytes = limit
	t.Cleanup(func() { maxDownloadBytes = previous })
}

func TestInstaller_OversizedDownloadKeepsOldBinary(t *testing.T) {
	installer, paths := newTestInstaller(t)
	require.NoError(t, os.MkdirAll(paths.BinDir(), 0755))
	target := filepath.Join(paths.BinDir(), "yt-dlp")
	require.NoError(t, os.WriteFile(target, []byte("old"), 0755))

	withDownloadLimit(t, 8)
	server := serveBytes(t, http.StatusOK, []byte("0123456789"))

	err := installer.InstallBinary(context.Background(), server.URL, "yt-dlp", nil)

	assert.ErrorIs(t, err, domain.ErrNetwork)
	assert.ErrorContains(t, err, "exceeds 8 bytes")
	content, readErr := os.ReadFile(target)
	require.NoError(t, readErr)
	assert.Equal(t, "old", string(content))
	assert.NoFileExists(t, target+".tmp")
}

func TestInstaller_DownloadAtLimit(t *testing.T) {
	installer, paths := newTestInstaller(t)
	withDownloadLimit(t, 10)
	server := serveBytes(t, http.StatusOK, []byte("0123456789"))

	require.NoError(t, installer.InstallBinary(context.Background(), server.URL, "yt-dlp", nil))

	content, err := os.ReadFile(filepath.Join(paths.BinDir(), "yt-dlp"))
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(content))
}

func TestInstaller_OversizedArchiveEntry(t *testing.T) {
	installer, paths := newTestInstaller(t)
	archive := buildTarGz(t, []archiveEntry{{"pkg/bin/tool.bin", strings.Repeat("a", 64*1024)}})
	withDownloadLimit(t, int64(len(archive)))
	server := serveBytes(t, http.StatusOK, archive)

	err := installer.InstallArchive(context.Background(), server.URL, []string{"tool.bin"}, nil)

	assert.ErrorIs(t, err, domain.ErrWrite)
	assert.ErrorContains(t, err, "exceeds")
	assert.NoFileExists(t, filepath.Join(paths.BinDir(), "tool.bin"))
}

func TestInstaller_InstallBinaryErrors(t *testing.T) {
	t.Run("bin dir not creatable", func(t *testing.T) {
		appDir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(appDir, "bin"), []byte("file"), 0644))
		installer := NewInstaller(domain.PathsConfig{AppDir: appDir}, domain.UpdaterConfig{}, nil)

		err := installer.InstallBinary(context.Background(), "http://127.0.0.1:1", "yt-dlp", nil)
		assert.ErrorIs(t, err, domain.ErrWrite)
	})

	t.Run("target is a directory", func(t *testing.T) {
		installer, paths := newTestInstaller(t)
		require.NoError(t, os.MkdirAll(filepath.Join(paths.BinDir(), "yt-dlp", "nested"), 0755))
		server := serveBytes(t, http.StatusOK, []byte("bin"))

		err := installer.InstallBinary(context.Background(), server.URL, "yt-dlp", nil)
		assert.ErrorIs(t, err, domain.ErrRename)
		// the temp file is left behind
		assert.FileExists(t, filepath.Join(paths.BinDir(), "yt-dlp.tmp"))
	})

	t.Run("unreachable", func(t *testing.T) {
		installer, _ := newTestInstaller(t)
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		err := installer.InstallBinary(context.Background(), url, "yt-dlp", nil)
		assert.ErrorIs(t, err, domain.ErrNetwork)
	})
}

type archiveEntry struct {
	name    string
	content string
}

func buildZip(t *testing.T, entries []archiveEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(e.content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func writeTar(t *testing.T, w io.Writer, entries []archiveEntry) {
	t.Helper()
	tw := tar.NewWriter(w)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "ffmpeg-master/bin/", Typeflag: tar.TypeDir, Mode: 0755}))
	for _, e := range entries {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     e.name,
			Typeflag: tar.TypeReg,
			Mode:     0755,
			Size:     int64(len(e.content)),
		}))
		_, err := tw.Write([]byte(e.content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
}

func buildTarGz(t *testing.T, entries []archiveEntry) []byte {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	writeTar(t, gz, entries)
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func buildTarXz(t *testing.T, entries []archiveEntry) []byte {
	var buf bytes.Buffer
	xw, err := xz.NewWriter(&buf)
	require.NoError(t, err)
	writeTar(t, xw, entries)
	require.NoError(t, xw.Close())
	return buf.Bytes()
}

func TestInstaller_InstallArchive(t *testing.T) {
	entries := []archiveEntry{
		{"ffmpeg-master/LICENSE.txt", "license"},
		{"ffmpeg-master/bin/tool.bin", "tool binary"},
		{"ffmpeg-master/bin/tool.probe", "probe binary"},
		{"ffmpeg-master/doc/tool.bin.html", "docs"},
	}

	tests := []struct {
		name    string
		archive []byte
	}{
		{"zip", buildZip(t, entries)},
		{"tar.gz", buildTarGz(t, entries)},
		{"tar.xz", buildTarXz(t, entries)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			installer, paths := newTestInstaller(t)
			server := serveBytes(t, http.StatusOK, tt.archive)
			log := &recordingUpdateLog{}

			err := installer.InstallArchive(context.Background(), server.URL, []string{"tool.bin", "tool.probe"}, log)

			require.NoError(t, err)
			content, err := os.ReadFile(filepath.Join(paths.BinDir(), "tool.bin"))
			require.NoError(t, err)
			assert.Equal(t, "tool binary", string(content))
			assert.FileExists(t, filepath.Join(paths.BinDir(), "tool.probe"))
			assert.NoFileExists(t, filepath.Join(paths.BinDir(), "LICENSE.txt"))
			assert.Contains(t, log.messages, "Extracted tool.bin")
			assert.Contains(t, log.messages, "Extracted tool.probe")
		})
	}
}

func TestInstaller_InstallArchiveIncomplete(t *testing.T) {
	installer, paths := newTestInstaller(t)
	archive := buildZip(t, []archiveEntry{{"prefix/bin/tool.bin", "tool binary"}})
	server := serveBytes(t, http.StatusOK, archive)

	err := installer.InstallArchive(context.Background(), server.URL, []string{"tool.bin", "tool.probe"}, nil)

	var incomplete *domain.IncompleteArchiveError
	require.True(t, errors.As(err, &incomplete))
	assert.Equal(t, []string{"tool.probe"}, incomplete.Missing)
	assert.ErrorIs(t, err, domain.ErrIncompleteArchive)
	assert.FileExists(t, filepath.Join(paths.BinDir(), "tool.bin"))
}

func TestInstaller_InstallArchiveRootEntry(t *testing.T) {
	installer, paths := newTestInstaller(t)
	archive := buildTarGz(t, []archiveEntry{{"tool.bin", "flat"}, {"other/tool.bin", "ignored"}})
	server := serveBytes(t, http.StatusOK, archive)

	err := installer.InstallArchive(context.Background(), server.URL, []string{"tool.bin"}, nil)

	require.NoError(t, err)
	content, err := os.ReadFile(filepath.Join(paths.BinDir(), "tool.bin"))
	require.NoError(t, err)
	assert.Equal(t, "flat", string(content))
}

func TestInstaller_InstallArchiveUnknownFormat(t *testing.T) {
	installer, _ := newTestInstaller(t)
	server := serveBytes(t, http.StatusOK, []byte("plain text, not an archive"))

	err := installer.InstallArchive(context.Background(), server.URL, []string{"tool.bin"}, nil)

	assert.ErrorIs(t, err, domain.ErrDecode)
}

func TestDetectArchive(t *testing.T) {
	assert.Equal(t, formatZip, detectArchive(buildZip(t, nil)))
	assert.Equal(t, formatTarGz, detectArchive(buildTarGz(t, nil)))
	assert.Equal(t, formatTarXz, detectArchive(buildTarXz(t, nil)))
	assert.Equal(t, formatUnknown, detectArchive([]byte{0x00}))
	assert.Equal(t, formatUnknown, detectArchive(nil))
}

func TestMatchTarget(t *testing.T) {
	targets := []string{"ffmpeg.exe", "ffprobe.exe"}

	tests := []struct {
		entry string
		want  string
		ok    bool
	}{
		{"ffmpeg.exe", "ffmpeg.exe", true},
		{"ffmpeg-master-latest-win64-gpl/bin/ffprobe.exe", "ffprobe.exe", true},
		{"ffmpeg-master-latest-win64-gpl/ffmpeg.exe", "", false},
		{"ffmpeg-master-latest-win64-gpl/bin/ffplay.exe", "", false},
		{"bin/ffmpeg.exe", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.entry, func(t *testing.T) {
			got, ok := matchTarget(tt.entry, targets)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInstaller_SelfUpdate(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in")
	}

	installer, paths := newTestInstaller(t)
	require.NoError(t, os.MkdirAll(paths.BinDir(), 0755))

	t.Run("not installed", func(t *testing.T) {
		err := installer.SelfUpdate(context.Background(), filepath.Join(paths.BinDir(), "absent"), nil)
		assert.ErrorIs(t, err, domain.ErrNotInstalled)
	})

	t.Run("streams output", func(t *testing.T) {
		script := filepath.Join(paths.BinDir(), "yt-dlp-ok")
		require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho 'Latest version: 2024.08.06'\necho 'yt-dlp is up to date'\n"), 0755))
		log := &recordingUpdateLog{}

		require.NoError(t, installer.SelfUpdate(context.Background(), script, log))
		assert.Equal(t, []string{"Latest version: 2024.08.06", "yt-dlp is up to date"}, log.messages)
	})

	t.Run("nonzero exit", func(t *testing.T) {
		script := filepath.Join(paths.BinDir(), "yt-dlp-fail")
		require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho 'ERROR: unable to write'\nexit 100\n"), 0755))

		err := installer.SelfUpdate(context.Background(), script, nil)

		var exitErr *domain.ExitError
		require.True(t, errors.As(err, &exitErr))
		assert.Equal(t, 100, exitErr.Code)
	})
}
