package infrastructure

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/yourusername/soundclip-go/internal/domain"
)

// JobLogSink appends the raw output of one job to the dated tool output
// log, framed by a header and a footer
type JobLogSink struct {
	mu   sync.Mutex
	file *os.File
}

// OpenJobLog opens output-YYYYMMDD.log in logsDir and writes the job header
func OpenJobLog(logsDir, jobID, cmdLine string) (*JobLogSink, error) {
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	path := filepath.Join(logsDir, OutputLogName(time.Now()))
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(file, "\n=== [%s] Job: %s ===\n", timestamp, jobID)
	fmt.Fprintf(file, "$ %s\n", cmdLine)

	return &JobLogSink{file: file}, nil
}

// OutputLogName is the file name of the tool output log for a day
func OutputLogName(day time.Time) string {
	return "output-" + day.Format("20060102") + ".log"
}

// OnProgress is not logged separately; the progress line itself arrives via OnLog
func (s *JobLogSink) OnProgress(float64) {}

// OnLog appends one output line. Stderr lines are marked.
func (s *JobLogSink) OnLog(stream domain.Stream, line string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return
	}
	if stream == domain.StreamStderr {
		fmt.Fprintf(s.file, "[stderr] %s\n", line)
		return
	}
	fmt.Fprintln(s.file, line)
}

// OnComplete writes the footer and closes the file
func (s *JobLogSink) OnComplete(outcome domain.TerminalOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	status := "SUCCESS"
	switch outcome.Kind {
	case domain.OutcomeFailed:
		status = "FAILED"
	case domain.OutcomeCancelled:
		status = "CANCELLED"
	}
	fmt.Fprintf(s.file, "[%s] %s: %s\n", timestamp, status, outcome)
	s.file.WriteString("=== END ===\n\n")

	s.file.Close()
	s.file = nil
}

// Close releases the file if the job never completed
func (s *JobLogSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
