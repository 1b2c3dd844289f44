package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

type event struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
	Stream  string      `json:"stream,omitempty"`
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream progress, output and update events",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		untilComplete, _ := cmd.Flags().GetBool("until-complete")

		conn, _, err := websocket.DefaultDialer.Dial(eventsURL(), nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer conn.Close()

		code := watchEvents(conn, untilComplete)
		os.Exit(code)
	},
}

func init() {
	watchCmd.Flags().BoolP("until-complete", "u", false, "Exit after the next complete event")
}

// eventsURL converts the server URL to the websocket endpoint
func eventsURL() string {
	url := serverURL
	switch {
	case strings.HasPrefix(url, "https://"):
		url = "wss://" + strings.TrimPrefix(url, "https://")
	case strings.HasPrefix(url, "http://"):
		url = "ws://" + strings.TrimPrefix(url, "http://")
	}
	return strings.TrimSuffix(url, "/") + "/api/v1/events"
}

// watchEvents prints events until the connection closes. With
// untilComplete it returns after the first complete event, with a
// nonzero code unless the job succeeded.
func watchEvents(conn *websocket.Conn, untilComplete bool) int {
	for {
		var ev event
		if err := conn.ReadJSON(&ev); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return 0
			}
			fmt.Fprintf(os.Stderr, "Connection closed: %v\n", err)
			return 1
		}

		fmt.Println(formatEvent(ev))

		if untilComplete && ev.Event == "complete" {
			if ev.Payload == "success" {
				return 0
			}
			return 1
		}
	}
}

func formatEvent(ev event) string {
	switch ev.Event {
	case "progress":
		return fmt.Sprintf("[progress] %v%%", ev.Payload)
	case "log":
		if ev.Stream == "stderr" {
			return fmt.Sprintf("[stderr] %v", ev.Payload)
		}
		return fmt.Sprintf("%v", ev.Payload)
	case "complete":
		return fmt.Sprintf("[complete] %v", ev.Payload)
	case "update-log":
		return fmt.Sprintf("[update] %v", ev.Payload)
	default:
		return fmt.Sprintf("[%s] %v", ev.Event, ev.Payload)
	}
}
