package sbe

// UpdateReceiverBlock ingests one RTCP receiver-block summary: a fraction-
// loss Q8 value, an RTT sample, and the packet count the loss fraction was
// computed over by the peer, at time nowMs.
//
// Per spec.md §4.2: the loss accumulators only produce a new
// last_fraction_loss once at least LimitNumPackets packets have been
// accumulated since the last recomputation; until then the block only
// updates feedback timestamps and RTT. packetCount == 0 is legal ("no
// packets observed") and skips accumulation entirely, but updateUmaStats is
// still invoked unconditionally (see the first Open Question in spec.md §9,
// preserved here on purpose: a zero-packet block reports 0 lost packets to
// the startup accumulator, never more).
func (e *Estimator) UpdateReceiverBlock(fractionLossQ8 uint8, rttMs int64, packetCount int64, nowMs int64) {
	e.lastFeedbackMs = nowMs
	if e.firstReportTimeMs == neverMs {
		e.firstReportTimeMs = nowMs
	}
	e.lastRoundTripTimeMs = rttMs

	if packetCount > 0 {
		lostQ8 := int64(fractionLossQ8) * packetCount
		e.lostPacketsSinceLastUpdateQ8 += lostQ8
		e.expectedPacketsSinceLastUpdate += packetCount

		if e.expectedPacketsSinceLastUpdate >= LimitNumPackets {
			e.hasDecreasedSinceLastFractionLoss = false
			e.lastFractionLoss = uint8(e.lostPacketsSinceLastUpdateQ8 / e.expectedPacketsSinceLastUpdate)

			e.lostPacketsSinceLastUpdateQ8 = 0
			e.expectedPacketsSinceLastUpdate = 0
			e.lastPacketReportMs = nowMs
			e.UpdateEstimate(nowMs)
		}
	}

	e.updateUmaStats(nowMs, rttMs, (int64(fractionLossQ8)*packetCount)>>8)
}
