package infrastructure

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
	"github.com/yourusername/soundclip-go/internal/domain"
	"go.uber.org/zap"
)

// maxDownloadBytes bounds a single downloaded binary, archive or archive
// entry (1 GB). Anything larger is refused rather than cut short.
var maxDownloadBytes int64 = 1 << 30

type archiveFormat string

const (
	formatZip     archiveFormat = "zip"
	formatTarXz   archiveFormat = "tar.xz"
	formatTarGz   archiveFormat = "tar.gz"
	formatUnknown archiveFormat = ""
)

var (
	zipMagic  = []byte("PK\x03\x04")
	xzMagic   = []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}
	gzipMagic = []byte{0x1F, 0x8B}
)

// Installer downloads tool binaries into the bin directory and swaps them
// in place: write <name>.tmp, remove the old file, rename.
type Installer struct {
	httpClient *http.Client
	userAgent  string
	binDir     string
	logger     *zap.Logger
}

// NewInstaller creates an installer writing below paths.BinDir()
func NewInstaller(paths domain.PathsConfig, cfg domain.UpdaterConfig, logger *zap.Logger) *Installer {
	if logger == nil {
		logger = zap.NewNop()
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = domain.DefaultUserAgent
	}
	return &Installer{
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		userAgent:  userAgent,
		binDir:     paths.BinDir(),
		logger:     logger,
	}
}

// InstallBinary downloads url and installs it as binDir/name
func (i *Installer) InstallBinary(ctx context.Context, url, name string, progress domain.UpdateLogSink) error {
	if err := os.MkdirAll(i.binDir, 0755); err != nil {
		return fmt.Errorf("%w: cannot create bin dir: %v", domain.ErrWrite, err)
	}

	report(progress, fmt.Sprintf("Downloading %s...", name))
	data, err := i.fetch(ctx, url)
	if err != nil {
		return err
	}

	if err := i.replace(name, bytes.NewReader(data)); err != nil {
		return err
	}

	i.logger.Info("Binary installed", zap.String("name", name), zap.Int("bytes", len(data)))
	report(progress, fmt.Sprintf("%s updated successfully.", name))
	return nil
}

// InstallArchive downloads a zip, tar.xz or tar.gz archive and installs
// every entry named exactly like a target, or ending in /bin/<target>.
// Each target must exist in binDir afterwards.
func (i *Installer) InstallArchive(ctx context.Context, url string, targets []string, progress domain.UpdateLogSink) error {
	if err := os.MkdirAll(i.binDir, 0755); err != nil {
		return fmt.Errorf("%w: cannot create bin dir: %v", domain.ErrWrite, err)
	}

	report(progress, fmt.Sprintf("Downloading %s (this may take a minute)...", strings.Join(targets, ", ")))
	data, err := i.fetch(ctx, url)
	if err != nil {
		return err
	}

	format := detectArchive(data)
	if format == formatUnknown {
		return fmt.Errorf("%w: unrecognised archive format", domain.ErrDecode)
	}
	report(progress, fmt.Sprintf("Extracting %s archive...", format))

	extract := func(name string, r io.Reader) error {
		target, ok := matchTarget(name, targets)
		if !ok {
			return nil
		}
		if err := i.replace(target, r); err != nil {
			return err
		}
		report(progress, fmt.Sprintf("Extracted %s", target))
		return nil
	}

	switch format {
	case formatZip:
		err = walkZip(data, extract)
	case formatTarXz:
		var xzr *xz.Reader
		if xzr, err = xz.NewReader(bytes.NewReader(data)); err == nil {
			err = walkTar(xzr, extract)
		}
	case formatTarGz:
		var gz *gzip.Reader
		if gz, err = gzip.NewReader(bytes.NewReader(data)); err == nil {
			err = walkTar(gz, extract)
			gz.Close()
		}
	}
	if err != nil {
		if isInstallError(err) {
			return err
		}
		return fmt.Errorf("%w: %s archive: %v", domain.ErrDecode, format, err)
	}

	var missing []string
	for _, target := range targets {
		if !isFile(filepath.Join(i.binDir, target)) {
			missing = append(missing, target)
		}
	}
	if len(missing) > 0 {
		return &domain.IncompleteArchiveError{Missing: missing}
	}

	i.logger.Info("Archive installed", zap.Strings("targets", targets), zap.String("format", string(format)))
	report(progress, fmt.Sprintf("%s installed successfully.", strings.Join(targets, ", ")))
	return nil
}

// SelfUpdate runs `<binary> -U` and forwards its stdout lines as progress.
// It is the fallback when the release feed cannot be used.
func (i *Installer) SelfUpdate(ctx context.Context, binary string, progress domain.UpdateLogSink) error {
	if !isFile(binary) {
		return domain.ErrNotInstalled
	}

	cmd := toolCommand(ctx, binary, "-U")
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStreamCapture, err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSpawn, err)
	}

	readLines(stdout, func(line string) {
		report(progress, line)
	})

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &domain.ExitError{Code: exitErr.ExitCode()}
		}
		return err
	}

	i.logger.Info("yt-dlp self-update finished", zap.String("binary", binary))
	return nil
}

// fetch downloads url into memory. Archives need random access (zip).
func (i *Installer) fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := doGet(ctx, i.httpClient, url, i.userAgent)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: HTTP %d", domain.ErrNetwork, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read error: %v", domain.ErrNetwork, err)
	}
	if int64(len(data)) > maxDownloadBytes {
		return nil, fmt.Errorf("%w: download exceeds %d bytes", domain.ErrNetwork, maxDownloadBytes)
	}
	return data, nil
}

// replace swaps binDir/name for the content of r. A leftover <name>.tmp from
// an earlier failure is simply overwritten.
func (i *Installer) replace(name string, r io.Reader) error {
	target := filepath.Join(i.binDir, name)
	tmp := target + ".tmp"

	if err := writeExecutable(tmp, r); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrWrite, err)
	}
	if isFile(target) {
		if err := os.Remove(target); err != nil {
			return fmt.Errorf("%w %s: %v", domain.ErrReplace, name, err)
		}
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRename, err)
	}
	return nil
}

func writeExecutable(path string, r io.Reader) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0755)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	n, err := io.Copy(f, io.LimitReader(r, maxDownloadBytes+1))
	if err != nil {
		return err
	}
	if n > maxDownloadBytes {
		return fmt.Errorf("%s exceeds %d bytes", filepath.Base(path), maxDownloadBytes)
	}
	return os.Chmod(path, 0755)
}

func detectArchive(data []byte) archiveFormat {
	switch {
	case bytes.HasPrefix(data, zipMagic):
		return formatZip
	case bytes.HasPrefix(data, xzMagic):
		return formatTarXz
	case bytes.HasPrefix(data, gzipMagic):
		return formatTarGz
	default:
		return formatUnknown
	}
}

// matchTarget maps an archive entry name to the target it provides
func matchTarget(entry string, targets []string) (string, bool) {
	for _, target := range targets {
		if entry == target || strings.HasSuffix(entry, "/bin/"+target) {
			return target, true
		}
	}
	return "", false
}

func walkZip(data []byte, visit func(name string, r io.Reader) error) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return err
	}
	for _, file := range zr.File {
		if file.FileInfo().IsDir() {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return err
		}
		err = visit(file.Name, rc)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func walkTar(r io.Reader, visit func(name string, r io.Reader) error) error {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if !hdr.FileInfo().Mode().IsRegular() {
			continue
		}
		if err := visit(hdr.Name, tr); err != nil {
			return err
		}
	}
}

func isInstallError(err error) bool {
	return errors.Is(err, domain.ErrWrite) || errors.Is(err, domain.ErrReplace) || errors.Is(err, domain.ErrRename)
}

func report(sink domain.UpdateLogSink, message string) {
	if sink != nil {
		sink.OnUpdateLog(message)
	}
}
