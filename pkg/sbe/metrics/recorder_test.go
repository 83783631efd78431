package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesyncim/bwe/pkg/sbe"
)

func newTestRecorder(t *testing.T) (*Recorder, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return New(reg, prometheus.Labels{"sender": "test"}), reg
}

func TestRecorder_RecordRampUp(t *testing.T) {
	r, _ := newTestRecorder(t)
	r.RecordRampUp(sbe.RampUp500Kbps, 1234)

	got := testutil.ToFloat64(r.rampUpTimeMs.WithLabelValues("500kbps"))
	assert.Equal(t, float64(1234), got)
}

func TestRecorder_RecordInitialStats(t *testing.T) {
	r, _ := newTestRecorder(t)
	r.RecordInitialStats(3, 80, 450)

	assert.Equal(t, float64(3), testutil.ToFloat64(r.initialLostPkts))
	assert.Equal(t, float64(80), testutil.ToFloat64(r.initialRttMs))
	assert.Equal(t, float64(450), testutil.ToFloat64(r.initialBandwidth))
}

func TestRecorder_RecordConvergence(t *testing.T) {
	r, _ := newTestRecorder(t)
	r.RecordConvergence(42)

	assert.Equal(t, float64(42), testutil.ToFloat64(r.convergenceDiff))
}

func TestNew_PanicsOnDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg, nil)
	require.Panics(t, func() { New(reg, nil) }, "registering the same collectors twice against one registry must panic")
}
