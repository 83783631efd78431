package sbe

// minBitrateSample is one entry in the monotone sliding-window-minimum
// deque maintained by updateMinHistory (see min_history.go).
type minBitrateSample struct {
	timeMs    int64
	bitrateBps int64
}

// umaUpdateState tags the one-shot startup/convergence metrics state
// machine. Transitions are monotonic: noUpdate -> firstDone -> done.
type umaUpdateState int

const (
	umaNoUpdate umaUpdateState = iota
	umaFirstDone
	umaDone
)

// Estimator is the send-side bandwidth estimator. It is owned and ticked by
// a single congestion controller; see the package doc for the concurrency
// contract. The zero value is not usable — construct with New.
type Estimator struct {
	eventLog EventLog
	metrics  Metrics

	bitrateBps           int64
	minBitrateConfigured int64
	maxBitrateConfigured int64

	bweIncoming         int64
	delayBasedBitrateBps int64

	lastFractionLoss       uint8
	lastLoggedFractionLoss uint8
	lastRoundTripTimeMs    int64

	lostPacketsSinceLastUpdateQ8    int64
	expectedPacketsSinceLastUpdate int64

	firstReportTimeMs  int64
	lastFeedbackMs     int64
	lastPacketReportMs int64
	lastTimeoutMs      int64
	lastLowBitrateLogMs int64
	lastRtcEventLogMs  int64
	timeLastDecreaseMs int64

	hasDecreasedSinceLastFractionLoss bool

	minBitrateHistory []minBitrateSample

	umaState               umaUpdateState
	rampupStatsUpdated     [len(rampUpMilestones)]bool
	initiallyLostPackets   int
	bitrateAt2SecondsKbps  int64

	lowLossThreshold    float64
	highLossThreshold   float64
	bitrateThresholdBps int64
	inTimeoutExperiment bool

	systemMinBitrateBps int64
}

// Config supplies the construct-time parameters an Estimator cannot infer on
// its own: the minimum bitrate floor enforced by the owning congestion
// controller (§3 "floored by a system-wide minimum obtained from the
// congestion controller") and the experiment overrides described in §6.
type Config struct {
	// SystemMinBitrateBps floors min_bitrate_configured on every
	// SetMinMaxBitrate call. Typically a small constant owned by the
	// congestion controller (e.g. codec/RTP overhead floor).
	SystemMinBitrateBps int64
	// Experiment carries the parsed WebRTC-BweLossExperiment and
	// WebRTC-FeedbackTimeout field-trial equivalents. Use ParseExperiment
	// or LoadExperiment to build one from raw strings.
	Experiment ExperimentConfig
}

// New constructs an Estimator. eventLog must not be nil: this is a contract
// violation analogous to the original's RTC_DCHECK(event_log) and panics
// immediately, the same way Estimator.SetSendBitrate panics on a
// non-positive bitrate. metrics may be nil to disable metrics emission.
func New(eventLog EventLog, metrics Metrics, cfg Config) *Estimator {
	if eventLog == nil {
		panic("sbe: New requires a non-nil EventLog")
	}

	e := &Estimator{
		eventLog:             eventLog,
		metrics:              metrics,
		minBitrateConfigured: cfg.SystemMinBitrateBps,
		maxBitrateConfigured: DefaultMaxBitrateBps,
		systemMinBitrateBps:  cfg.SystemMinBitrateBps,

		firstReportTimeMs:   neverMs,
		lastFeedbackMs:      neverMs,
		lastPacketReportMs:  neverMs,
		lastTimeoutMs:       neverMs,
		lastLowBitrateLogMs: neverMs,
		lastRtcEventLogMs:   neverMs,

		lowLossThreshold:    cfg.Experiment.LowLossThreshold,
		highLossThreshold:   cfg.Experiment.HighLossThreshold,
		bitrateThresholdBps: cfg.Experiment.BitrateThresholdBps,
		inTimeoutExperiment: cfg.Experiment.FeedbackTimeoutEnabled,
	}
	return e
}

// SetBitrates applies an initial/renegotiated bitrate configuration. If
// send > 0, SetSendBitrate is invoked first; SetMinMaxBitrate always runs.
func (e *Estimator) SetBitrates(sendBitrateBps, minBitrateBps, maxBitrateBps int64) {
	if sendBitrateBps > 0 {
		e.SetSendBitrate(sendBitrateBps)
	}
	e.SetMinMaxBitrate(minBitrateBps, maxBitrateBps)
}

// SetSendBitrate forces the current estimate to b and discards the
// minimum-history window so the new value isn't immediately capped by a
// stale, lower minimum. Precondition: b > 0 (a contract violation, panics).
func (e *Estimator) SetSendBitrate(b int64) {
	if b <= 0 {
		panic("sbe: SetSendBitrate requires a positive bitrate")
	}
	e.bitrateBps = b
	e.minBitrateHistory = e.minBitrateHistory[:0]
}

// SetMinMaxBitrate updates the configured bounds. Precondition: min >= 0 (a
// contract violation, panics). min is floored by the system minimum passed
// to New; if max <= 0 the configured max resets to DefaultMaxBitrateBps.
func (e *Estimator) SetMinMaxBitrate(minBitrateBps, maxBitrateBps int64) {
	if minBitrateBps < 0 {
		panic("sbe: SetMinMaxBitrate requires a non-negative min bitrate")
	}
	e.minBitrateConfigured = maxInt64(minBitrateBps, e.systemMinBitrateBps)
	if maxBitrateBps > 0 {
		e.maxBitrateConfigured = maxInt64(e.minBitrateConfigured, maxBitrateBps)
	} else {
		e.maxBitrateConfigured = DefaultMaxBitrateBps
	}
}

// MinBitrate returns the effective configured minimum bitrate.
func (e *Estimator) MinBitrate() int64 {
	return e.minBitrateConfigured
}

// CurrentEstimate returns the current bitrate, last known loss fraction
// (Q8), and last known RTT sample, without mutating any state.
func (e *Estimator) CurrentEstimate() (bitrateBps int64, fractionLossQ8 uint8, rttMs int64) {
	return e.bitrateBps, e.lastFractionLoss, e.lastRoundTripTimeMs
}

// UpdateReceiverEstimate records a fresh REMB bandwidth hint and immediately
// recaps the current bitrate against it (and the other ceilings).
func (e *Estimator) UpdateReceiverEstimate(nowMs int64, bandwidthBps int64) {
	e.bweIncoming = bandwidthBps
	e.bitrateBps = e.capToThresholds(nowMs, e.bitrateBps)
}

// UpdateDelayBasedEstimate records a fresh delay-based bandwidth hint and
// immediately recaps the current bitrate against it (and the other
// ceilings).
func (e *Estimator) UpdateDelayBasedEstimate(nowMs int64, bitrateBps int64) {
	e.delayBasedBitrateBps = bitrateBps
	e.bitrateBps = e.capToThresholds(nowMs, e.bitrateBps)
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
