package sbe

// updateUmaStats is the one-shot metrics bookkeeping described in spec.md
// §4.6. It is called unconditionally from UpdateReceiverBlock (see the first
// Open Question in spec.md §9), on every receiver block regardless of
// whether a new loss fraction was computed.
//
// lostPackets is the number of packets the caller's block reports lost,
// already descaled from Q8 (UpdateReceiverBlock passes
// (fractionLossQ8*packetCount)>>8).
func (e *Estimator) updateUmaStats(nowMs, rttMs int64, lostPackets int64) {
	for i, ms := range rampUpMilestones {
		if e.rampupStatsUpdated[i] {
			continue
		}
		if e.bitrateBps/1000 >= ms.kbps {
			if e.metrics != nil {
				e.metrics.RecordRampUp(RampUpMilestone(i), nowMs-e.firstReportTimeMs)
			}
			e.rampupStatsUpdated[i] = true
		}
	}

	if e.umaState == umaNoUpdate {
		e.initiallyLostPackets += int(lostPackets)
	}

	if e.firstReportTimeMs == neverMs {
		return
	}
	elapsed := nowMs - e.firstReportTimeMs

	if e.umaState == umaNoUpdate && elapsed >= StartPhaseMs {
		e.bitrateAt2SecondsKbps = e.bitrateBps / 1000
		e.umaState = umaFirstDone
		if e.metrics != nil {
			e.metrics.RecordInitialStats(e.initiallyLostPackets, rttMs, e.bitrateAt2SecondsKbps)
		}
	}

	if e.umaState == umaFirstDone && elapsed >= ConvergenceTimeMs {
		e.umaState = umaDone
		if e.metrics != nil {
			diff := e.bitrateAt2SecondsKbps - e.bitrateBps/1000
			if diff < 0 {
				diff = 0
			}
			e.metrics.RecordConvergence(diff)
		}
	}
}
