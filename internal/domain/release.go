package domain

// RemoteRelease is the newest entry of a release feed
type RemoteRelease struct {
	Tag    string            `json:"tag"`
	Assets map[string]string `json:"assets"` // asset file name -> download URL
}

// AssetURL looks up an asset by exact file name
func (r *RemoteRelease) AssetURL(name string) (string, bool) {
	url, ok := r.Assets[name]
	return url, ok
}

// VersionComparison relates the installed tool version to the latest release
type VersionComparison struct {
	Local           *string `json:"local"`
	Latest          string  `json:"latest"`
	DownloadURL     string  `json:"download_url,omitempty"`
	UpdateAvailable bool    `json:"update_available"`
}

// CompareVersions decides update applicability with plain string
// inequality. A missing local version always means an update is available.
// Tags like "v2024.1.1" and "2024.1.1" therefore compare as different.
func CompareVersions(local *string, latest string) VersionComparison {
	return VersionComparison{
		Local:           local,
		Latest:          latest,
		UpdateAvailable: local == nil || *local != latest,
	}
}

// FFmpegInfo describes the ffmpeg installation
type FFmpegInfo struct {
	Installed bool    `json:"installed"`
	Version   *string `json:"version"`
}

// DependencyStatus reports which external tools are usable
type DependencyStatus struct {
	YTDLP     bool   `json:"ytdlp"`
	FFmpeg    bool   `json:"ffmpeg"`
	JSRuntime string `json:"js_runtime,omitempty"`
}
