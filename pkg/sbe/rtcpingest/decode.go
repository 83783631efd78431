package rtcpingest

import (
	"github.com/pion/rtcp"
)

// ReceiverBlock is the tuple pkg/sbe.Estimator.UpdateReceiverBlock consumes,
// decoded from one rtcp.ReceptionReport belonging to our SSRC.
type ReceiverBlock struct {
	FractionLossQ8 uint8
	PacketCount    int64
}

// Tracker decodes incoming RTCP ReceiverReport blocks into ReceiverBlocks,
// keeping state per reported media SSRC (the localSSRC passed to Decode).
// It is stateful because the RTCP
// extended-highest-sequence-number field only reports a running total;
// PacketCount is derived as the delta since the previous report for that
// SSRC, which is what the loss fraction in the same block was computed
// over.
type Tracker struct {
	lastExtendedSeq map[uint32]uint32
	haveLast        map[uint32]bool
}

// NewTracker constructs an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		lastExtendedSeq: make(map[uint32]uint32),
		haveLast:        make(map[uint32]bool),
	}
}

// Decode extracts the ReceptionReport addressed to localSSRC out of an
// incoming rtcp.ReceiverReport, if present. ok is false when the report
// carries no block for us (e.g. it only reports on other SSRCs), in which
// case the caller should not treat this as a receiver block at all.
func (t *Tracker) Decode(rr *rtcp.ReceiverReport, localSSRC uint32) (block ReceiverBlock, ok bool) {
	for _, report := range rr.Reports {
		if report.SSRC != localSSRC {
			continue
		}
		return t.decodeReport(report), true
	}
	return ReceiverBlock{}, false
}

func (t *Tracker) decodeReport(report rtcp.ReceptionReport) ReceiverBlock {
	var packetCount int64
	if t.haveLast[report.SSRC] {
		packetCount = int64(int32(report.LastSequenceNumber - t.lastExtendedSeq[report.SSRC]))
		if packetCount < 0 {
			// A regression in the extended sequence number means a
			// reordered or duplicate report; treat it as "nothing new".
			packetCount = 0
		}
	}
	t.lastExtendedSeq[report.SSRC] = report.LastSequenceNumber
	t.haveLast[report.SSRC] = true

	return ReceiverBlock{
		FractionLossQ8: report.FractionLost,
		PacketCount:    packetCount,
	}
}
