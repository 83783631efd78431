// Package sbe implements the send-side bandwidth estimator used by a
// real-time media sender to decide the target send bitrate for an adaptive
// stream. It fuses periodic RTCP receiver-block loss reports with
// externally computed delay-based and REMB bandwidth hints into a single
// capped bitrate, following the ramp-up/hold/decrease/timeout policy of
// Google Congestion Control's loss-based controller.
//
// The Estimator is a single-owner, single-threaded object: all timing is
// supplied by the caller via now_ms arguments, and it performs no network
// I/O and schedules no goroutines of its own. Callers that need to parse
// RTCP off the wire or tick the estimator on a timer should use
// pkg/sbe/rtcpingest and pkg/sbe/interceptor.
package sbe

const (
	// IncreaseIntervalMs is the width of the sliding-window minimum used by
	// the increase rule, and the window the monotone deque maintains.
	IncreaseIntervalMs int64 = 1000
	// DecreaseIntervalMs is the minimum spacing between successive
	// multiplicative decreases, before adding the current RTT sample.
	DecreaseIntervalMs int64 = 300
	// StartPhaseMs is the duration after the first receiver block during
	// which external hints are trusted unconditionally.
	StartPhaseMs int64 = 2000
	// ConvergenceTimeMs is how long after the first report the
	// initial-vs-converged metric is recorded.
	ConvergenceTimeMs int64 = 20000
	// LimitNumPackets is the minimum accumulated packet count before a loss
	// fraction is (re)computed.
	LimitNumPackets int64 = 20
	// DefaultMaxBitrateBps is used when no explicit max bitrate is configured.
	DefaultMaxBitrateBps int64 = 1_000_000_000
	// LowBitrateLogPeriodMs rate-limits the below-configured-min warning.
	LowBitrateLogPeriodMs int64 = 10000
	// RtcEventLogPeriodMs upper-bounds the gap between loss-based update
	// events even when nothing else changed.
	RtcEventLogPeriodMs int64 = 5000
	// FeedbackIntervalMs is the expected nominal spacing between RTCP
	// receiver reports.
	FeedbackIntervalMs int64 = 1500
	// FeedbackTimeoutIntervals is the number of FeedbackIntervalMs that must
	// elapse with no feedback at all before the timeout branch can fire.
	FeedbackTimeoutIntervals int64 = 3
	// TimeoutLogIntervalMs rate-limits repeated firings of the timeout branch.
	TimeoutLogIntervalMs int64 = 1000
	// FeedbackFreshMultiplier scales FeedbackIntervalMs into the threshold
	// that decides whether the last loss recomputation is still fresh.
	FeedbackFreshMultiplier float64 = 1.2
	// IncreaseMultiplier is applied to the oldest retained bitrate in the
	// minimum-history window on every increase step.
	IncreaseMultiplier float64 = 1.08
	// IncreaseFloorBps is added after the multiplicative increase so the
	// estimate cannot stall near zero.
	IncreaseFloorBps int64 = 1000

	// DefaultLowLossThreshold is the loss fraction at/below which the
	// increase rule fires.
	DefaultLowLossThreshold float64 = 0.02
	// DefaultHighLossThreshold is the loss fraction above which the
	// decrease rule fires.
	DefaultHighLossThreshold float64 = 0.10
	// DefaultBitrateThresholdBps disables the bitrate-floor override for
	// loss-based control by default.
	DefaultBitrateThresholdBps int64 = 0

	// neverMs is the sentinel stored in "never happened yet" timestamp
	// fields.
	neverMs int64 = -1
)

// RampUpMilestone names one of the three bitrates whose first-reach time is
// reported via Metrics.RecordRampUp, exactly once each.
type RampUpMilestone int

const (
	RampUp500Kbps RampUpMilestone = iota
	RampUp1000Kbps
	RampUp2000Kbps
)

var rampUpMilestones = [...]struct {
	name       string
	kbps       int64
	metricName string
}{
	{"500kbps", 500, "RampUpTimeTo500kbpsInMs"},
	{"1000kbps", 1000, "RampUpTimeTo1000kbpsInMs"},
	{"2000kbps", 2000, "RampUpTimeTo2000kbpsInMs"},
}

// String returns a human-readable milestone name.
func (m RampUpMilestone) String() string {
	if int(m) < 0 || int(m) >= len(rampUpMilestones) {
		return "unknown"
	}
	return rampUpMilestones[m].name
}

// LossUpdateEvent is the payload emitted to EventLog each time the control
// loop produces (or reaffirms) a loss-based bitrate decision worth logging.
type LossUpdateEvent struct {
	// BitrateBps is the capped bitrate at the time of the event.
	BitrateBps int64
	// FractionLossQ8 is last_fraction_loss at the time of the event, an
	// 8-bit Q8 fraction (loss = value/256).
	FractionLossQ8 uint8
	// ExpectedPackets is the raw packet count accumulated since the last
	// loss recomputation (0 on the tick that a recomputation triggers, since
	// the accumulator is reset before that tick).
	ExpectedPackets int64
}

// EventLog receives diagnostic events from the Estimator. A nil EventLog is
// a contract violation: New panics if passed one.
//
// Implementations must be safe to call synchronously from the Estimator's
// owning goroutine; the Estimator never calls EventLog concurrently with
// itself, but if the sink is shared with other subsystems the sink itself
// must handle that concurrency.
type EventLog interface {
	// LogLossBasedUpdate records a loss-based bitrate decision.
	LogLossBasedUpdate(event LossUpdateEvent)
	// LogBelowMinBitrate records that the estimate was clamped up to the
	// configured minimum. Called at most once per LowBitrateLogPeriodMs.
	LogBelowMinBitrate(estimatedBps, minConfiguredBps int64)
	// LogFeedbackTimeout records that the feedback-timeout branch fired and
	// reduced the bitrate. Called at most once per TimeoutLogIntervalMs.
	LogFeedbackTimeout(timeSinceFeedbackMs int64, newBitrateBps int64)
	// LogExperimentParseFailure records that an experiment string failed to
	// parse and defaults were used.
	LogExperimentParseFailure(raw string)
}

// Metrics receives one-shot startup and ramp-up statistics from the
// Estimator. Unlike EventLog, a nil Metrics is tolerated: the zero value of
// this interface (nil) simply disables metrics emission.
type Metrics interface {
	// RecordRampUp is called exactly once per milestone, the first time the
	// quantized bitrate reaches or exceeds it.
	RecordRampUp(milestone RampUpMilestone, elapsedMs int64)
	// RecordInitialStats is called exactly once, on the first
	// updateUmaStats call after the 2-second start phase ends.
	RecordInitialStats(initiallyLostPackets int, initialRttMs int64, initialBandwidthKbps int64)
	// RecordConvergence is called exactly once, 20s after the first report.
	RecordConvergence(bitrateDiffKbps int64)
}
