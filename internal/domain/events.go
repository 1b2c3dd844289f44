package domain

// EventSink receives the events of a running job. Implementations must be
// safe for concurrent use: stdout and stderr are delivered from separate
// goroutines. Delivery is fire-and-forget and must never block the job
// for long.
type EventSink interface {
	// OnProgress reports a percentage parsed from a stdout line
	OnProgress(percent float64)

	// OnLog reports one raw output line
	OnLog(stream Stream, line string)

	// OnComplete reports the terminal outcome, exactly once per job
	OnComplete(outcome TerminalOutcome)
}

// UpdateLogSink receives human-readable progress messages from installs
type UpdateLogSink interface {
	OnUpdateLog(message string)
}

// Stream identifies which output stream a log line came from
type Stream string

const (
	StreamStdout Stream = "stdout"
	StreamStderr Stream = "stderr"
)

// Event names as seen by remote event consumers
const (
	EventProgress  = "progress"
	EventLog       = "log"
	EventComplete  = "complete"
	EventUpdateLog = "update-log"
)
