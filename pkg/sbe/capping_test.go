package sbe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCapToThresholds_OrderIsRembThenDelayThenMaxThenMin(t *testing.T) {
	e, _, _ := newTestEstimator()
	e.SetMinMaxBitrate(100_000, 2_000_000)
	e.bweIncoming = 1_500_000
	e.delayBasedBitrateBps = 900_000

	got := e.capToThresholds(0, 5_000_000)
	assert.Equal(t, int64(900_000), got, "the delay-based ceiling is tighter than REMB and must win")
}

func TestCapToThresholds_MaxWinsWhenNoHintsSet(t *testing.T) {
	e, _, _ := newTestEstimator()
	e.SetMinMaxBitrate(100_000, 2_000_000)

	got := e.capToThresholds(0, 5_000_000)
	assert.Equal(t, int64(2_000_000), got)
}

func TestCapToThresholds_MinOverridesCeilings(t *testing.T) {
	e, _, _ := newTestEstimator()
	e.SetMinMaxBitrate(200_000, 2_000_000)
	e.bweIncoming = 50_000 // ceiling below the configured floor

	got := e.capToThresholds(0, 500_000)
	assert.Equal(t, int64(200_000), got, "the configured minimum must override a lower ceiling")
}

func TestCapToThresholds_LogsBelowMinOnce(t *testing.T) {
	e, log, _ := newTestEstimator()
	e.SetMinMaxBitrate(200_000, 2_000_000)

	e.capToThresholds(0, 10_000)
	e.capToThresholds(1000, 10_000) // well within LowBitrateLogPeriodMs
	assert.Len(t, log.belowMin, 1, "the warning is rate-limited to once per LowBitrateLogPeriodMs")

	e.capToThresholds(LowBitrateLogPeriodMs+1, 10_000)
	assert.Len(t, log.belowMin, 2, "a new warning fires once the rate-limit window elapses")
}

func TestCapToThresholds_ZeroHintsAreIgnored(t *testing.T) {
	e, _, _ := newTestEstimator()
	e.SetMinMaxBitrate(100_000, 2_000_000)
	// bweIncoming and delayBasedBitrateBps default to 0, meaning "no hint yet".
	got := e.capToThresholds(0, 500_000)
	assert.Equal(t, int64(500_000), got, "an unset (zero) hint must not clamp the estimate to zero")
}
