package sbe

// UpdateEstimate is the periodic control loop tick described in spec.md
// §4.3. It is the owner's responsibility to call this regularly (the
// Estimator never schedules itself, per spec.md §1/§5); UpdateReceiverBlock
// also calls it immediately whenever a new loss fraction is computed.
//
// Three branches are evaluated in order: startup trust, feedback-fresh
// loss-based control, and feedback-timeout fallback. At most one of the
// latter two runs per call (neither runs before the first loss
// recomputation, or while feedback is stale but not yet timed out);
// startup trust, when it changes the estimate, returns early.
func (e *Estimator) UpdateEstimate(nowMs int64) {
	if e.lastFractionLoss == 0 && e.inStartPhase(nowMs) {
		prevBitrate := e.bitrateBps
		if e.bweIncoming > e.bitrateBps {
			e.bitrateBps = e.capToThresholds(nowMs, e.bweIncoming)
		}
		if e.delayBasedBitrateBps > e.bitrateBps {
			e.bitrateBps = e.capToThresholds(nowMs, e.delayBasedBitrateBps)
		}
		if e.bitrateBps != prevBitrate {
			e.minBitrateHistory = e.minBitrateHistory[:0]
			e.minBitrateHistory = append(e.minBitrateHistory, minBitrateSample{timeMs: nowMs, bitrateBps: e.bitrateBps})
			return
		}
	}

	e.updateMinHistory(nowMs)
	if e.lastPacketReportMs == neverMs {
		e.bitrateBps = e.capToThresholds(nowMs, e.bitrateBps)
		return
	}

	timeSincePacketReportMs := nowMs - e.lastPacketReportMs
	timeSinceFeedbackMs := nowMs - e.lastFeedbackMs

	// timeSincePacketReportMs only advances when UpdateReceiverBlock last
	// recomputed a loss fraction (>= LimitNumPackets packets accumulated),
	// not on every receiver block. A sender whose receiver reports never
	// accumulate that many packets between reports will therefore never
	// take this branch — believed intentional (spec.md §9, second Open
	// Question), carried forward unchanged.
	if float64(timeSincePacketReportMs) < FeedbackFreshMultiplier*float64(FeedbackIntervalMs) {
		e.runLossBasedControl(nowMs)
	} else if timeSinceFeedbackMs > FeedbackTimeoutIntervals*FeedbackIntervalMs &&
		(e.lastTimeoutMs == neverMs || nowMs-e.lastTimeoutMs > TimeoutLogIntervalMs) {
		e.runFeedbackTimeout(nowMs, timeSinceFeedbackMs)
	}

	e.capAndLog(nowMs)
}

// runLossBasedControl implements the increase/hold/decrease rules of
// spec.md §4.3 once feedback is judged "fresh".
func (e *Estimator) runLossBasedControl(nowMs int64) {
	loss := float64(e.lastFractionLoss) / 256.0

	switch {
	case e.bitrateBps < e.bitrateThresholdBps || loss <= e.lowLossThreshold:
		// Catch-up ramp: apply the increase multiplier to the oldest
		// retained bitrate in the 1s window, not the current bitrate, so a
		// sender that has been capped low for under a second can still
		// rampup a full window's worth in one step.
		e.bitrateBps = int64(float64(e.minBitrateHistory[0].bitrateBps)*IncreaseMultiplier+0.5) + IncreaseFloorBps

	case e.bitrateBps > e.bitrateThresholdBps:
		if loss <= e.highLossThreshold {
			// Moderate loss: hold.
			return
		}
		if !e.hasDecreasedSinceLastFractionLoss &&
			nowMs-e.timeLastDecreaseMs >= DecreaseIntervalMs+e.lastRoundTripTimeMs {
			e.timeLastDecreaseMs = nowMs
			e.bitrateBps = int64(float64(e.bitrateBps) * float64(512-int64(e.lastFractionLoss)) / 512.0)
			e.hasDecreasedSinceLastFractionLoss = true
		}
	}
}

// runFeedbackTimeout implements the feedback-starvation fallback of
// spec.md §4.3. Only takes effect when the experiment is enabled; the
// caller has already verified the timing gates.
func (e *Estimator) runFeedbackTimeout(nowMs, timeSinceFeedbackMs int64) {
	if !e.inTimeoutExperiment {
		return
	}
	e.bitrateBps = int64(float64(e.bitrateBps) * 0.8)
	e.lostPacketsSinceLastUpdateQ8 = 0
	e.expectedPacketsSinceLastUpdate = 0
	e.lastTimeoutMs = nowMs
	e.eventLog.LogFeedbackTimeout(timeSinceFeedbackMs, e.bitrateBps)
}

// capAndLog applies the final cap and emits a loss-based-update event when
// warranted (spec.md §4.3 "Cap and log").
func (e *Estimator) capAndLog(nowMs int64) {
	capped := e.capToThresholds(nowMs, e.bitrateBps)
	if capped != e.bitrateBps ||
		e.lastFractionLoss != e.lastLoggedFractionLoss ||
		e.lastRtcEventLogMs == neverMs ||
		nowMs-e.lastRtcEventLogMs > RtcEventLogPeriodMs {
		e.eventLog.LogLossBasedUpdate(LossUpdateEvent{
			BitrateBps:      capped,
			FractionLossQ8:  e.lastFractionLoss,
			ExpectedPackets: e.expectedPacketsSinceLastUpdate,
		})
		e.lastLoggedFractionLoss = e.lastFractionLoss
		e.lastRtcEventLogMs = nowMs
	}
	e.bitrateBps = capped
}

// inStartPhase reports whether nowMs still falls within the 2-second
// startup-trust window that begins at the first receiver block.
func (e *Estimator) inStartPhase(nowMs int64) bool {
	return e.firstReportTimeMs == neverMs || nowMs-e.firstReportTimeMs < StartPhaseMs
}
