package sbe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// endStartPhase records a first receiver block at t=0 and a nonzero loss
// fraction. The nonzero loss keeps UpdateEstimate out of its startup-trust
// branch even at times still inside StartPhaseMs, so subsequent calls
// exercise the feedback-fresh or feedback-timeout branch instead.
func endStartPhase(e *Estimator) {
	e.firstReportTimeMs = 0
	e.lastFractionLoss = 1 // nonzero: the startup-trust branch requires lastFractionLoss == 0
}

func TestUpdateEstimate_StartupTrustsReceiverEstimate(t *testing.T) {
	e, _, _ := newTestEstimator()
	e.bitrateBps = 100_000
	e.bweIncoming = 800_000

	e.UpdateEstimate(500) // within StartPhaseMs, no loss reported yet

	assert.Equal(t, int64(800_000), e.bitrateBps, "a fresh REMB hint above the current estimate should be trusted during startup")
}

func TestUpdateEstimate_StartupDoesNotLowerEstimate(t *testing.T) {
	e, _, _ := newTestEstimator()
	e.bitrateBps = 800_000
	e.bweIncoming = 100_000 // lower than current: startup trust only raises

	e.UpdateEstimate(500)

	assert.Equal(t, int64(800_000), e.bitrateBps)
}

func TestUpdateEstimate_IncreaseRuleRampsUpOnLowLoss(t *testing.T) {
	e, _, _ := newTestEstimator()
	endStartPhase(e)
	e.bitrateBps = 300_000
	e.minBitrateHistory = []minBitrateSample{{timeMs: 0, bitrateBps: 300_000}}
	e.lastFractionLoss = 0 // <= lowLossThreshold
	e.lastPacketReportMs = 1000
	e.lastFeedbackMs = 1000

	e.UpdateEstimate(1100) // timeSincePacketReportMs=100, well within freshness window

	base := 300_000.0
	expected := int64(base*IncreaseMultiplier+0.5) + IncreaseFloorBps
	assert.Equal(t, expected, e.bitrateBps)
}

func TestUpdateEstimate_HoldsOnModerateLoss(t *testing.T) {
	e, _, _ := newTestEstimator()
	endStartPhase(e)
	e.bitrateBps = 500_000
	e.bitrateThresholdBps = 0
	e.minBitrateHistory = []minBitrateSample{{timeMs: 0, bitrateBps: 500_000}}
	fractionLossRatio := 0.05
	e.lastFractionLoss = uint8(fractionLossRatio * 256) // between 2% and 10%
	e.lastPacketReportMs = 1000
	e.lastFeedbackMs = 1000

	e.UpdateEstimate(1100)

	assert.Equal(t, int64(500_000), e.bitrateBps, "moderate loss between the thresholds must hold the estimate")
}

func TestUpdateEstimate_DecreasesOnHighLoss(t *testing.T) {
	e, _, _ := newTestEstimator()
	endStartPhase(e)
	e.bitrateBps = 500_000
	e.bitrateThresholdBps = 0
	e.minBitrateHistory = []minBitrateSample{{timeMs: 0, bitrateBps: 500_000}}
	e.lastFractionLoss = 200 // ~78% loss, above the 10% high threshold
	e.lastPacketReportMs = 1000
	e.lastFeedbackMs = 1000
	e.timeLastDecreaseMs = neverMs
	e.lastRoundTripTimeMs = 0

	e.UpdateEstimate(1100)

	base := 500_000.0
	expected := int64(base * float64(512-200) / 512.0)
	assert.Equal(t, expected, e.bitrateBps)
	assert.True(t, e.hasDecreasedSinceLastFractionLoss)
}

func TestUpdateEstimate_DoesNotDecreaseTwicePerLossReport(t *testing.T) {
	e, _, _ := newTestEstimator()
	endStartPhase(e)
	e.bitrateBps = 500_000
	e.minBitrateHistory = []minBitrateSample{{timeMs: 0, bitrateBps: 500_000}}
	e.lastFractionLoss = 200
	e.lastPacketReportMs = 1000
	e.lastFeedbackMs = 1000
	e.timeLastDecreaseMs = neverMs

	e.UpdateEstimate(1100)
	afterFirst := e.bitrateBps

	// A second tick with the same (not-yet-refreshed) loss report must not
	// decrease again, per hasDecreasedSinceLastFractionLoss.
	e.lastPacketReportMs = 1100
	e.UpdateEstimate(1200)

	assert.Equal(t, afterFirst, e.bitrateBps)
}

func TestUpdateEstimate_FeedbackTimeoutDecaysBitrate(t *testing.T) {
	e, log, _ := newTestEstimator()
	e.inTimeoutExperiment = true
	endStartPhase(e)
	e.bitrateBps = 1_000_000
	e.lastPacketReportMs = 0
	e.lastFeedbackMs = 0
	e.lastTimeoutMs = neverMs

	nowMs := FeedbackTimeoutIntervals*FeedbackIntervalMs + 1
	e.UpdateEstimate(nowMs)

	assert.Equal(t, int64(800_000), e.bitrateBps)
	require.Len(t, log.timeouts, 1)
}

func TestUpdateEstimate_FeedbackTimeoutDisabledByDefault(t *testing.T) {
	e, _, _ := newTestEstimator()
	endStartPhase(e)
	e.bitrateBps = 1_000_000
	e.lastPacketReportMs = 0
	e.lastFeedbackMs = 0

	nowMs := FeedbackTimeoutIntervals*FeedbackIntervalMs + 1
	e.UpdateEstimate(nowMs)

	assert.Equal(t, int64(1_000_000), e.bitrateBps, "without the experiment enabled, feedback timeout must not fire")
}

func TestUpdateEstimate_NeverRunBeforeAnyPacketReport(t *testing.T) {
	e, _, _ := newTestEstimator()
	e.bitrateBps = 400_000
	e.SetMinMaxBitrate(100_000, 2_000_000)

	e.UpdateEstimate(0)

	assert.Equal(t, int64(400_000), e.bitrateBps, "with no packet report yet, only the cap applies")
}
