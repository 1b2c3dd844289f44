package infrastructure

import (
	"regexp"
	"strconv"
)

// progressPattern matches yt-dlp progress lines such as
// "[download]  45.2% of ~10MiB at 1.2MiB/s"
var progressPattern = regexp.MustCompile(`\[download\]\s+([\d.]+)%`)

// ParseProgress extracts the download percentage from one line of yt-dlp
// output. Only the first match counts. Values are passed through as-is,
// without clamping; a malformed number is reported as no match.
func ParseProgress(line string) (float64, bool) {
	m := progressPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	pct, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return pct, true
}
