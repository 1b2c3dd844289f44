package infrastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yourusername/soundclip-go/internal/domain"
	"go.uber.org/zap"
)

type panickingSink struct{}

func (panickingSink) OnProgress(float64)                { panic("progress") }
func (panickingSink) OnLog(domain.Stream, string)       { panic("log") }
func (panickingSink) OnComplete(domain.TerminalOutcome) { panic("complete") }

func TestMultiSink_SurvivesPanickingSink(t *testing.T) {
	recorder := newRecordingSink()
	sink := NewMultiSink(zap.NewNop(), panickingSink{}, nil, recorder)

	assert.NotPanics(t, func() {
		sink.OnProgress(50)
		sink.OnLog(domain.StreamStdout, "line")
		sink.OnComplete(domain.Success())
	})

	events, outcomes := recorder.snapshot()
	assert.Equal(t, []string{"progress:50", "log:stdout:line"}, events)
	assert.Equal(t, []domain.TerminalOutcome{domain.Success()}, outcomes)
}

func TestUpdateLogFanout(t *testing.T) {
	first := &recordingUpdateLog{}
	second := &recordingUpdateLog{}

	UpdateLogFanout{first, nil, second}.OnUpdateLog("Extracting...")

	assert.Equal(t, []string{"Extracting..."}, first.messages)
	assert.Equal(t, []string{"Extracting..."}, second.messages)
}
