package infrastructure

import (
	"github.com/yourusername/soundclip-go/internal/domain"
	"go.uber.org/zap"
)

// MultiSink fans every event out to several sinks. A panicking sink is
// logged and skipped; it never takes the job down with it.
type MultiSink struct {
	sinks  []domain.EventSink
	logger *zap.Logger
}

// NewMultiSink combines sinks, ignoring nil entries
func NewMultiSink(logger *zap.Logger, sinks ...domain.EventSink) *MultiSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &MultiSink{logger: logger}
	for _, sink := range sinks {
		if sink != nil {
			m.sinks = append(m.sinks, sink)
		}
	}
	return m
}

func (m *MultiSink) OnProgress(percent float64) {
	for _, sink := range m.sinks {
		m.deliver("progress", func() { sink.OnProgress(percent) })
	}
}

func (m *MultiSink) OnLog(stream domain.Stream, line string) {
	for _, sink := range m.sinks {
		m.deliver("log", func() { sink.OnLog(stream, line) })
	}
}

func (m *MultiSink) OnComplete(outcome domain.TerminalOutcome) {
	for _, sink := range m.sinks {
		m.deliver("complete", func() { sink.OnComplete(outcome) })
	}
}

func (m *MultiSink) deliver(event string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("Event sink panicked", zap.String("event", event), zap.Any("panic", r))
		}
	}()
	fn()
}

// UpdateLogFanout forwards install progress messages to several sinks
type UpdateLogFanout []domain.UpdateLogSink

func (f UpdateLogFanout) OnUpdateLog(message string) {
	for _, sink := range f {
		if sink != nil {
			sink.OnUpdateLog(message)
		}
	}
}
