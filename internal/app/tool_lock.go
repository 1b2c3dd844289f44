package app

import (
	"fmt"
	"sync"

	"github.com/yourusername/soundclip-go/internal/domain"
)

// ToolLock keeps downloads and binary installs apart. A download never
// starts while yt-dlp or ffmpeg is being replaced, and no install starts
// while a download runs.
type ToolLock struct {
	mu          sync.Mutex
	downloading bool
	installing  bool
}

// NewToolLock creates an unlocked tool lock
func NewToolLock() *ToolLock {
	return &ToolLock{}
}

// AcquireDownload claims the tools for one download
func (l *ToolLock) AcquireDownload() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch {
	case l.downloading:
		return domain.ErrJobInProgress
	case l.installing:
		return domain.ErrUpdateInProgress
	}
	l.downloading = true
	return nil
}

// ReleaseDownload ends the claim taken by AcquireDownload
func (l *ToolLock) ReleaseDownload() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.downloading = false
}

// AcquireInstall claims the bin directory for one install
func (l *ToolLock) AcquireInstall() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch {
	case l.downloading:
		return fmt.Errorf("cannot replace binaries: %w", domain.ErrJobInProgress)
	case l.installing:
		return domain.ErrUpdateInProgress
	}
	l.installing = true
	return nil
}

// ReleaseInstall ends the claim taken by AcquireInstall
func (l *ToolLock) ReleaseInstall() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.installing = false
}
