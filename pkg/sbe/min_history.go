package sbe

// updateMinHistory maintains the monotone deque described in spec.md §4.5:
// at any point, front() holds the smallest bitrate pushed within the last
// IncreaseIntervalMs. The "+1" in the front-expiry comparison intentionally
// gives the increase rule a one-millisecond edge so it can still fire when
// the window is nominally exactly 1s old (see spec.md §4.5 and §9).
//
// Correctness depends on pushing bitrateBps *after* the pop-back step, and
// on nowMs being monotone nondecreasing across calls (spec.md §5, §9).
func (e *Estimator) updateMinHistory(nowMs int64) {
	for len(e.minBitrateHistory) > 0 && nowMs-e.minBitrateHistory[0].timeMs+1 > IncreaseIntervalMs {
		e.minBitrateHistory = e.minBitrateHistory[1:]
	}

	// Reallocate once more than 64 slots of spare capacity sit past the live
	// samples (left behind by back-pops or by resetting the slice to length
	// zero), so a history that once grew large does not keep its large
	// backing array.
	if cap(e.minBitrateHistory)-len(e.minBitrateHistory) > 64 {
		e.minBitrateHistory = append([]minBitrateSample(nil), e.minBitrateHistory...)
	}

	for len(e.minBitrateHistory) > 0 && e.bitrateBps <= e.minBitrateHistory[len(e.minBitrateHistory)-1].bitrateBps {
		e.minBitrateHistory = e.minBitrateHistory[:len(e.minBitrateHistory)-1]
	}

	e.minBitrateHistory = append(e.minBitrateHistory, minBitrateSample{timeMs: nowMs, bitrateBps: e.bitrateBps})
}
