package rtcpingest

import (
	"testing"

	"github.com/pion/rtcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_Decode_IgnoresOtherSSRCs(t *testing.T) {
	tr := NewTracker()
	rr := &rtcp.ReceiverReport{
		Reports: []rtcp.ReceptionReport{{SSRC: 42}},
	}
	_, ok := tr.Decode(rr, 7)
	assert.False(t, ok)
}

func TestTracker_Decode_FirstReportHasZeroPacketCount(t *testing.T) {
	tr := NewTracker()
	rr := &rtcp.ReceiverReport{
		Reports: []rtcp.ReceptionReport{{SSRC: 7, FractionLost: 64, LastSequenceNumber: 1000}},
	}
	block, ok := tr.Decode(rr, 7)
	require.True(t, ok)
	assert.Equal(t, uint8(64), block.FractionLossQ8)
	assert.Equal(t, int64(0), block.PacketCount, "no prior report means no delta to derive a count from")
}

func TestTracker_Decode_ComputesDeltaOnSubsequentReports(t *testing.T) {
	tr := NewTracker()
	first := &rtcp.ReceiverReport{Reports: []rtcp.ReceptionReport{{SSRC: 7, LastSequenceNumber: 1000}}}
	tr.Decode(first, 7)

	second := &rtcp.ReceiverReport{Reports: []rtcp.ReceptionReport{{SSRC: 7, FractionLost: 10, LastSequenceNumber: 1050}}}
	block, ok := tr.Decode(second, 7)
	require.True(t, ok)
	assert.Equal(t, int64(50), block.PacketCount)
}

func TestTracker_Decode_TreatsRegressionAsZero(t *testing.T) {
	tr := NewTracker()
	first := &rtcp.ReceiverReport{Reports: []rtcp.ReceptionReport{{SSRC: 7, LastSequenceNumber: 1000}}}
	tr.Decode(first, 7)

	regressed := &rtcp.ReceiverReport{Reports: []rtcp.ReceptionReport{{SSRC: 7, LastSequenceNumber: 900}}}
	block, ok := tr.Decode(regressed, 7)
	require.True(t, ok)
	assert.Equal(t, int64(0), block.PacketCount)
}
