package main

import (
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

var (
	serverURL   string
	configFile  string
	noAutoStart bool
	rootCmd     = &cobra.Command{
		Use:   "soundclip",
		Short: "SoundClip CLI - audio downloads powered by yt-dlp",
		Long:  `A command-line interface for the SoundClip server: start and cancel downloads, watch progress and keep yt-dlp and ffmpeg up to date.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Server URL (default: server.host and server.port from the config)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to the server config file")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if serverURL == "" {
			serverURL = resolveServerURL(configFile)
		}
	}
	rootCmd.PersistentFlags().BoolVar(&noAutoStart, "no-auto-start", false, "Don't auto-start server if not running")

	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(depsCmd)
	rootCmd.AddCommand(checkUpdateCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(ffmpegCmd)
	rootCmd.AddCommand(installFFmpegCmd)
	rootCmd.AddCommand(watchCmd)
}

// ensureServer checks if server is running and starts it if needed (unless --no-auto-start)
func ensureServer() {
	if noAutoStart {
		return
	}
	if err := ensureServerRunning(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

type job struct {
	ID           string  `json:"id"`
	URL          string  `json:"url"`
	AudioFormat  string  `json:"audio_format"`
	Playlist     bool    `json:"playlist"`
	SavePath     string  `json:"save_path"`
	Status       string  `json:"status"`
	Progress     float64 `json:"progress"`
	ExitCode     *int    `json:"exit_code"`
	ErrorMessage string  `json:"error_message"`
	CreatedAt    string  `json:"created_at"`
	CompletedAt  string  `json:"completed_at"`
}

var downloadCmd = &cobra.Command{
	Use:   "download [url]",
	Short: "Download audio from a URL",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		format, _ := cmd.Flags().GetString("format")
		playlist, _ := cmd.Flags().GetBool("playlist")
		savePath, _ := cmd.Flags().GetString("save-path")
		follow, _ := cmd.Flags().GetBool("watch")

		payload := map[string]interface{}{
			"url":      args[0],
			"playlist": playlist,
		}
		if format != "" {
			payload["audio_format"] = format
		}
		if savePath != "" {
			payload["save_path"] = savePath
		}

		// Subscribe before starting so no early event is missed
		var conn *websocket.Conn
		if follow {
			var err error
			conn, _, err = websocket.DefaultDialer.Dial(eventsURL(), nil)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			defer conn.Close()
		}

		var started job
		mustCall(http.MethodPost, "/api/v1/download", payload, &started)

		fmt.Printf("Download started!\n")
		fmt.Printf("ID:     %s\n", started.ID)
		fmt.Printf("Format: %s\n", started.AudioFormat)
		fmt.Printf("Into:   %s\n", started.SavePath)

		if conn != nil {
			if code := watchEvents(conn, true); code != 0 {
				conn.Close()
				os.Exit(code)
			}
		}
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel the running download",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		var result struct {
			Cancelled bool `json:"cancelled"`
		}
		mustCall(http.MethodPost, "/api/v1/download/cancel", nil, &result)

		if result.Cancelled {
			fmt.Println("Download cancelled")
		} else {
			fmt.Println("No download is running")
		}
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running or most recent download",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		var result struct {
			Running bool `json:"running"`
			Job     *job `json:"job"`
		}
		mustCall(http.MethodGet, "/api/v1/download/status", nil, &result)

		if result.Job == nil {
			fmt.Println("No downloads yet")
			return
		}
		if result.Running {
			fmt.Printf("Downloading (%.1f%%)\n", result.Job.Progress)
		}
		printJob(result.Job)
	},
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List download history",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		path := fmt.Sprintf("/api/v1/jobs?limit=%d", limit)
		if status != "" {
			path += "&status=" + status
		}

		var result struct {
			Jobs []job `json:"jobs"`
		}
		mustCall(http.MethodGet, path, nil, &result)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tURL\tFORMAT\tSTATUS\tCREATED")
		for _, j := range result.Jobs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				truncate(j.ID, 8),
				truncate(j.URL, 40),
				j.AudioFormat,
				j.Status,
				j.CreatedAt)
		}
		w.Flush()
	},
}

var getCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Get job details",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		var j job
		mustCall(http.MethodGet, "/api/v1/jobs/"+args[0], nil, &j)
		printJob(&j)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show download statistics",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		var stats map[string]interface{}
		mustCall(http.MethodGet, "/api/v1/jobs/stats", nil, &stats)

		fmt.Println("Download Statistics:")
		fmt.Printf("  Total:     %v\n", stats["total"])
		fmt.Printf("  Running:   %v\n", stats["running"])
		fmt.Printf("  Completed: %v\n", stats["completed"])
		fmt.Printf("  Failed:    %v\n", stats["failed"])
		fmt.Printf("  Cancelled: %v\n", stats["cancelled"])
	},
}

var depsCmd = &cobra.Command{
	Use:   "deps",
	Short: "Show which external tools are available",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		var deps struct {
			YTDLP     bool   `json:"ytdlp"`
			FFmpeg    bool   `json:"ffmpeg"`
			JSRuntime string `json:"js_runtime"`
		}
		mustCall(http.MethodGet, "/api/v1/dependencies", nil, &deps)

		fmt.Printf("yt-dlp:     %s\n", yesNo(deps.YTDLP))
		fmt.Printf("ffmpeg:     %s\n", yesNo(deps.FFmpeg))
		runtime := deps.JSRuntime
		if runtime == "" {
			runtime = "none"
		}
		fmt.Printf("JS runtime: %s\n", runtime)
	},
}

var checkUpdateCmd = &cobra.Command{
	Use:   "check-update",
	Short: "Compare the installed yt-dlp with the latest release",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		var comparison struct {
			Local           *string `json:"local"`
			Latest          string  `json:"latest"`
			UpdateAvailable bool    `json:"update_available"`
		}
		mustCall(http.MethodGet, "/api/v1/ytdlp/version", nil, &comparison)

		local := "not installed"
		if comparison.Local != nil {
			local = *comparison.Local
		}
		fmt.Printf("Installed: %s\n", local)
		fmt.Printf("Latest:    %s\n", comparison.Latest)
		if comparison.UpdateAvailable {
			fmt.Println("An update is available. Run 'soundclip update' to install it.")
		} else {
			fmt.Println("yt-dlp is up to date")
		}
	},
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Install or update yt-dlp",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		self, _ := cmd.Flags().GetBool("self")

		var result struct {
			Version string `json:"version"`
		}
		mustCall(http.MethodPost, "/api/v1/ytdlp/update", map[string]interface{}{
			"self_update": self,
		}, &result)

		if result.Version != "" {
			fmt.Printf("yt-dlp %s installed\n", result.Version)
		} else {
			fmt.Println("yt-dlp updated")
		}
	},
}

type ffmpegInfo struct {
	Installed bool    `json:"installed"`
	Version   *string `json:"version"`
}

var ffmpegCmd = &cobra.Command{
	Use:   "ffmpeg",
	Short: "Show the ffmpeg used for audio conversion",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		var info ffmpegInfo
		mustCall(http.MethodGet, "/api/v1/ffmpeg", nil, &info)
		printFFmpeg(info)
	},
}

var installFFmpegCmd = &cobra.Command{
	Use:   "install-ffmpeg",
	Short: "Download and install ffmpeg and ffprobe",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		fmt.Println("Installing ffmpeg, this can take a few minutes...")
		var info ffmpegInfo
		mustCall(http.MethodPost, "/api/v1/ffmpeg/install", nil, &info)
		printFFmpeg(info)
	},
}

func init() {
	downloadCmd.Flags().StringP("format", "f", "", "Audio format (best, mp3, m4a, opus, flac, wav)")
	downloadCmd.Flags().BoolP("playlist", "p", false, "Download the whole playlist")
	downloadCmd.Flags().StringP("save-path", "o", "", "Directory to save into")
	downloadCmd.Flags().BoolP("watch", "w", false, "Stream events until the download completes")
	jobsCmd.Flags().StringP("status", "s", "", "Filter by status")
	jobsCmd.Flags().IntP("limit", "n", 20, "Maximum number of jobs")
	updateCmd.Flags().Bool("self", false, "Use yt-dlp's own updater")
}

func printJob(j *job) {
	fmt.Printf("Job Details:\n")
	fmt.Printf("  ID:       %s\n", j.ID)
	fmt.Printf("  URL:      %s\n", j.URL)
	fmt.Printf("  Format:   %s\n", j.AudioFormat)
	fmt.Printf("  Status:   %s\n", j.Status)
	fmt.Printf("  Progress: %.1f%%\n", j.Progress)
	fmt.Printf("  Save to:  %s\n", j.SavePath)
	fmt.Printf("  Created:  %s\n", j.CreatedAt)
	if j.ExitCode != nil {
		fmt.Printf("  Exit:     %d\n", *j.ExitCode)
	}
	if j.ErrorMessage != "" {
		fmt.Printf("  Error:    %s\n", j.ErrorMessage)
	}
}

func printFFmpeg(info ffmpegInfo) {
	if !info.Installed {
		fmt.Println("ffmpeg: not installed")
		return
	}
	version := "unknown"
	if info.Version != nil {
		version = *info.Version
	}
	fmt.Printf("ffmpeg: %s\n", version)
}

func yesNo(ok bool) string {
	if ok {
		return "installed"
	}
	return "missing"
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
