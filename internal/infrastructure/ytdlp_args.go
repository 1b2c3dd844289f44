package infrastructure

import (
	"github.com/yourusername/soundclip-go/internal/domain"
)

// OutputTemplate names files after the title (capped at 200 chars) and the video id
const OutputTemplate = "%(title).200s [%(id)s].%(ext)s"

// BuildArgs builds the yt-dlp argument list for a request. The order is fixed
// and the URL always comes last.
func BuildArgs(req domain.DownloadRequest, binDir string) []string {
	args := []string{
		"-x",
		"-P", "home:" + req.SavePath,
		"-o", OutputTemplate,
		"--windows-filenames",
		"--newline",
		"--no-colors",
		"--ffmpeg-location=" + binDir,
	}

	if req.AudioFormat != "" && req.AudioFormat != domain.AudioFormatBest {
		args = append(args, "--audio-format", req.AudioFormat)
	}

	if req.Playlist {
		args = append(args, "--yes-playlist")
	} else {
		args = append(args, "--no-playlist")
	}

	return append(args, req.URL)
}
