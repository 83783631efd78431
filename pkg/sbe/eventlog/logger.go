// Package eventlog provides the pion/logging-backed EventLog the sbe
// package's Estimator writes diagnostic events to.
package eventlog

import (
	"github.com/pion/logging"

	"github.com/thesyncim/bwe/pkg/sbe"
)

// Logger renders sbe.EventLog calls through a pion/logging.LeveledLogger,
// reproducing the warning wording of the original loss-based controller so
// operators grepping logs across a migrated deployment see familiar text.
type Logger struct {
	log logging.LeveledLogger
}

// New wraps log as an sbe.EventLog. Pass a logger scoped to this sender,
// e.g. loggerFactory.NewLogger("sbe").
func New(log logging.LeveledLogger) *Logger {
	return &Logger{log: log}
}

// LogLossBasedUpdate logs at Trace level: the Estimator emits it whenever
// capping changes the estimate or the loss fraction changes, and at least
// every RtcEventLogPeriodMs, which is too noisy for Info.
func (l *Logger) LogLossBasedUpdate(event sbe.LossUpdateEvent) {
	l.log.Tracef("loss-based bitrate update: %d bps, fraction_loss=%d/256, expected_packets=%d",
		event.BitrateBps, event.FractionLossQ8, event.ExpectedPackets)
}

// LogBelowMinBitrate mirrors the original's exact warning wording.
func (l *Logger) LogBelowMinBitrate(estimatedBps, minConfiguredBps int64) {
	l.log.Warnf("Estimated available bandwidth %d kbps is below configured min bitrate %d kbps.",
		estimatedBps/1000, minConfiguredBps/1000)
}

// LogFeedbackTimeout mirrors the original's exact warning wording.
func (l *Logger) LogFeedbackTimeout(timeSinceFeedbackMs int64, newBitrateBps int64) {
	l.log.Warnf("Feedback timed out (%d ms), reducing bitrate to %d bps.",
		timeSinceFeedbackMs, newBitrateBps)
}

// LogExperimentParseFailure mirrors the original's exact warning wording.
func (l *Logger) LogExperimentParseFailure(raw string) {
	l.log.Warnf("Failed to parse parameters for BweLossExperiment experiment from field trial string %q. Using default.", raw)
}
