package eventlog

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesyncim/bwe/pkg/sbe"
)

// captureLogger implements logging.LeveledLogger, recording formatted
// messages by level instead of writing them anywhere.
type captureLogger struct {
	traces []string
	warns  []string
}

func (c *captureLogger) Trace(msg string)                          { c.traces = append(c.traces, msg) }
func (c *captureLogger) Tracef(format string, args ...interface{}) { c.traces = append(c.traces, fmt.Sprintf(format, args...)) }
func (c *captureLogger) Debug(msg string)                          {}
func (c *captureLogger) Debugf(format string, args ...interface{}) {}
func (c *captureLogger) Info(msg string)                           {}
func (c *captureLogger) Infof(format string, args ...interface{})  {}
func (c *captureLogger) Warn(msg string)                           { c.warns = append(c.warns, msg) }
func (c *captureLogger) Warnf(format string, args ...interface{})  { c.warns = append(c.warns, fmt.Sprintf(format, args...)) }
func (c *captureLogger) Error(msg string)                          {}
func (c *captureLogger) Errorf(format string, args ...interface{}) {}

func TestLogger_LogBelowMinBitrate_MatchesOriginalWording(t *testing.T) {
	rec := &captureLogger{}
	l := New(rec)

	l.LogBelowMinBitrate(45_000, 100_000)

	require.Len(t, rec.warns, 1)
	assert.Equal(t, "Estimated available bandwidth 45 kbps is below configured min bitrate 100 kbps.", rec.warns[0])
}

func TestLogger_LogFeedbackTimeout(t *testing.T) {
	rec := &captureLogger{}
	l := New(rec)

	l.LogFeedbackTimeout(4600, 240_000)

	require.Len(t, rec.warns, 1)
	assert.Contains(t, rec.warns[0], "Feedback timed out (4600 ms)")
}

func TestLogger_LogExperimentParseFailure(t *testing.T) {
	rec := &captureLogger{}
	l := New(rec)

	l.LogExperimentParseFailure("Enabled-garbage")

	require.Len(t, rec.warns, 1)
	assert.Contains(t, rec.warns[0], "Enabled-garbage")
}

func TestLogger_LogLossBasedUpdate_TracesNotWarns(t *testing.T) {
	rec := &captureLogger{}
	l := New(rec)

	l.LogLossBasedUpdate(sbe.LossUpdateEvent{BitrateBps: 500_000, FractionLossQ8: 12, ExpectedPackets: 40})

	assert.Empty(t, rec.warns)
	require.Len(t, rec.traces, 1)
}
