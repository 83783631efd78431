// Package metrics provides the prometheus/client_golang-backed Metrics sink
// the sbe package's Estimator emits one-shot ramp-up and startup/convergence
// stats through.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/thesyncim/bwe/pkg/sbe"
)

// Recorder implements sbe.Metrics against a prometheus.Registerer. Unlike
// the UMA histograms it mirrors, these are exposed as gauges since
// each sender only ever contributes one sample per metric per lifetime.
type Recorder struct {
	rampUpTimeMs     *prometheus.GaugeVec
	initialLostPkts  prometheus.Gauge
	initialRttMs     prometheus.Gauge
	initialBandwidth prometheus.Gauge
	convergenceDiff  prometheus.Gauge
}

// New constructs a Recorder and registers its collectors against reg. Pass
// prometheus.NewRegistry() for an isolated registry (recommended per
// Estimator instance in tests), or prometheus.DefaultRegisterer in a process
// with a single sender.
func New(reg prometheus.Registerer, constLabels prometheus.Labels) *Recorder {
	r := &Recorder{
		rampUpTimeMs: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   "sbe",
			Subsystem:   "ramp_up",
			Name:        "time_ms",
			ConstLabels: constLabels,
		}, []string{"milestone"}),
		initialLostPkts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "sbe",
			Subsystem:   "startup",
			Name:        "initial_lost_packets",
			ConstLabels: constLabels,
		}),
		initialRttMs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "sbe",
			Subsystem:   "startup",
			Name:        "initial_rtt_ms",
			ConstLabels: constLabels,
		}),
		initialBandwidth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "sbe",
			Subsystem:   "startup",
			Name:        "initial_bandwidth_kbps",
			ConstLabels: constLabels,
		}),
		convergenceDiff: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "sbe",
			Subsystem:   "convergence",
			Name:        "bitrate_diff_kbps",
			ConstLabels: constLabels,
		}),
	}

	reg.MustRegister(r.rampUpTimeMs, r.initialLostPkts, r.initialRttMs, r.initialBandwidth, r.convergenceDiff)
	return r
}

// RecordRampUp implements sbe.Metrics.
func (r *Recorder) RecordRampUp(milestone sbe.RampUpMilestone, elapsedMs int64) {
	r.rampUpTimeMs.WithLabelValues(milestone.String()).Set(float64(elapsedMs))
}

// RecordInitialStats implements sbe.Metrics.
func (r *Recorder) RecordInitialStats(initiallyLostPackets int, initialRttMs int64, initialBandwidthKbps int64) {
	r.initialLostPkts.Set(float64(initiallyLostPackets))
	r.initialRttMs.Set(float64(initialRttMs))
	r.initialBandwidth.Set(float64(initialBandwidthKbps))
}

// RecordConvergence implements sbe.Metrics.
func (r *Recorder) RecordConvergence(bitrateDiffKbps int64) {
	r.convergenceDiff.Set(float64(bitrateDiffKbps))
}
