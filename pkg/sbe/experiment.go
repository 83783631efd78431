package sbe

import (
	"fmt"
	"strings"
)

// ExperimentConfig carries the construct-time overrides spec.md §6 describes
// as process-wide field-trial lookups ("WebRTC-BweLossExperiment" and
// "WebRTC-FeedbackTimeout"). Per the design note in spec.md §9, this is
// modeled as an injected record rather than a global registry query, so the
// Estimator stays deterministic and testable.
type ExperimentConfig struct {
	// LowLossThreshold and HighLossThreshold bound the hold region of the
	// control loop. Must satisfy 0 < Low <= High <= 1.
	LowLossThreshold  float64
	HighLossThreshold float64
	// BitrateThresholdBps suppresses loss-based decrease below this
	// bitrate. 0 disables the override.
	BitrateThresholdBps int64
	// FeedbackTimeoutEnabled gates the 0.8x decay on feedback starvation.
	FeedbackTimeoutEnabled bool
}

// DefaultExperimentConfig returns the thresholds the original algorithm
// falls back to when no experiment string is present or parsing fails:
// 2% / 10% loss thresholds, no bitrate floor override, timeout decay off.
func DefaultExperimentConfig() ExperimentConfig {
	return ExperimentConfig{
		LowLossThreshold:     DefaultLowLossThreshold,
		HighLossThreshold:    DefaultHighLossThreshold,
		BitrateThresholdBps:  DefaultBitrateThresholdBps,
		FeedbackTimeoutEnabled: false,
	}
}

// ParseBweLossExperiment parses the "WebRTC-BweLossExperiment" field-trial
// string, of the form "Enabled-<low>,<high>,<kbps>". It returns the parsed
// thresholds and true on success. On any failure (absent, malformed, or out
// of bounds) it returns DefaultExperimentConfig()'s loss thresholds (with
// FeedbackTimeoutEnabled left false — callers combine this with
// ParseFeedbackTimeoutExperiment) and false, mirroring the original's
// "log a warning, use defaults" contract (spec.md §7) rather than returning
// an error: a malformed experiment string is not a programming bug.
func ParseBweLossExperiment(raw string) (ExperimentConfig, bool) {
	defaults := DefaultExperimentConfig()

	const prefix = "Enabled-"
	if !strings.HasPrefix(raw, prefix) {
		return defaults, false
	}

	var low, high float64
	var kbps int64
	n, err := fmt.Sscanf(raw[len(prefix):], "%f,%f,%d", &low, &high, &kbps)
	if err != nil || n != 3 {
		return defaults, false
	}

	if low <= 0 || low > 1 || high <= 0 || high > 1 || low > high {
		return defaults, false
	}
	if kbps < 0 || kbps >= (1<<31)/1000 {
		return defaults, false
	}

	return ExperimentConfig{
		LowLossThreshold:    low,
		HighLossThreshold:   high,
		BitrateThresholdBps: kbps * 1000,
	}, true
}

// ParseFeedbackTimeoutExperiment reports whether the "WebRTC-FeedbackTimeout"
// field trial is enabled. Any string beginning with "Enabled" counts,
// matching the original's prefix-match convention for boolean field trials.
func ParseFeedbackTimeoutExperiment(raw string) bool {
	return strings.HasPrefix(raw, "Enabled")
}

// LoadExperiment builds an ExperimentConfig from the two raw field-trial
// strings a caller might have sourced from a config file or environment
// variable. eventLog receives a LogExperimentParseFailure call if
// lossExperiment fails to parse (and is not empty) so operators can see why
// defaults were used; pass an empty string for "field trial not set", which
// is not treated as a failure.
func LoadExperiment(eventLog EventLog, lossExperiment, feedbackTimeoutExperiment string) ExperimentConfig {
	cfg := DefaultExperimentConfig()
	if lossExperiment != "" {
		parsed, ok := ParseBweLossExperiment(lossExperiment)
		if !ok && eventLog != nil {
			eventLog.LogExperimentParseFailure(lossExperiment)
		}
		if ok {
			cfg.LowLossThreshold = parsed.LowLossThreshold
			cfg.HighLossThreshold = parsed.HighLossThreshold
			cfg.BitrateThresholdBps = parsed.BitrateThresholdBps
		}
	}
	cfg.FeedbackTimeoutEnabled = ParseFeedbackTimeoutExperiment(feedbackTimeoutExperiment)
	return cfg
}
