package infrastructure

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/yourusername/soundclip-go/internal/domain"
)

// jsRuntimes is the lookup order for the JavaScript runtime yt-dlp uses
// on some extractors
var jsRuntimes = []string{"node", "deno", "bun"}

// VersionProbe asks locally installed tools for their versions
type VersionProbe struct {
	paths domain.PathsConfig
}

// NewVersionProbe creates a probe for tools below paths.BinDir()
func NewVersionProbe(paths domain.PathsConfig) *VersionProbe {
	return &VersionProbe{paths: paths}
}

// LocalVersion runs `yt-dlp --version` and returns its trimmed output
func (p *VersionProbe) LocalVersion(ctx context.Context) (string, error) {
	binary := p.paths.YTDLPPath()
	if !isFile(binary) {
		return "", domain.ErrNotInstalled
	}

	out, err := toolCommand(ctx, binary, "--version").Output()
	if err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			return "", fmt.Errorf("%w: %v", domain.ErrProbe, err)
		}
	}
	return strings.TrimSpace(string(out)), nil
}

// YTDLPInstalled reports whether yt-dlp exists at its canonical path
func (p *VersionProbe) YTDLPInstalled() bool {
	return isFile(p.paths.YTDLPPath())
}

// FFmpegVersion returns the version of the bundled ffmpeg, or of the one on
// PATH when nothing is bundled. Nil means no usable ffmpeg answered.
func (p *VersionProbe) FFmpegVersion(ctx context.Context) *string {
	out, err := toolCommand(ctx, p.ffmpegBinary(), "-version").Output()
	if err != nil && len(out) == 0 {
		return nil
	}
	return parseFFmpegVersion(out)
}

// FFmpegAvailable reports whether ffmpeg is bundled or runs from PATH
func (p *VersionProbe) FFmpegAvailable(ctx context.Context) bool {
	if isFile(p.paths.ExecutablePath(domain.ToolFFmpeg)) {
		return true
	}
	return toolCommand(ctx, domain.ToolFFmpeg, "-version").Run() == nil
}

// FFmpegInfo combines installation state and version
func (p *VersionProbe) FFmpegInfo(ctx context.Context) domain.FFmpegInfo {
	version := p.FFmpegVersion(ctx)
	return domain.FFmpegInfo{
		Installed: version != nil || p.FFmpegAvailable(ctx),
		Version:   version,
	}
}

// JSRuntime returns the first runtime that answers --version, or ""
func (p *VersionProbe) JSRuntime(ctx context.Context) string {
	for _, runtime := range jsRuntimes {
		if toolCommand(ctx, runtime, "--version").Run() == nil {
			return runtime
		}
	}
	return ""
}

// Dependencies reports the state of every external tool
func (p *VersionProbe) Dependencies(ctx context.Context) domain.DependencyStatus {
	return domain.DependencyStatus{
		YTDLP:     p.YTDLPInstalled(),
		FFmpeg:    p.FFmpegAvailable(ctx),
		JSRuntime: p.JSRuntime(ctx),
	}
}

func (p *VersionProbe) ffmpegBinary() string {
	bundled := p.paths.ExecutablePath(domain.ToolFFmpeg)
	if isFile(bundled) {
		return bundled
	}
	return domain.ToolFFmpeg
}

// parseFFmpegVersion extracts <v> from a first line "ffmpeg version <v> ..."
func parseFFmpegVersion(out []byte) *string {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	if !scanner.Scan() {
		return nil
	}
	rest, ok := strings.CutPrefix(scanner.Text(), "ffmpeg version ")
	if !ok {
		return nil
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return nil
	}
	return &fields[0]
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
