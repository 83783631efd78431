// Package rtcpingest adapts RTCP packets off the wire into the tuples
// pkg/sbe's core Estimator consumes, and the reverse: encoding the REMB
// hints a receiver would send back to a sender running this estimator.
package rtcpingest

import (
	"github.com/pion/rtcp"
)

// REMBPacket is a convenience view over
// rtcp.ReceiverEstimatedMaximumBitrate, used by tests and by callers that
// want to inspect a REMB without depending on pion/rtcp directly.
type REMBPacket struct {
	SenderSSRC uint32
	Bitrate    uint64
	SSRCs      []uint32
}

// BuildREMB marshals a REMB RTCP packet. bitrateBps is the estimated
// maximum bitrate the sender should not exceed; mediaSSRCs names the media
// streams the estimate applies to.
func BuildREMB(senderSSRC uint32, bitrateBps uint64, mediaSSRCs []uint32) ([]byte, error) {
	pkt := &rtcp.ReceiverEstimatedMaximumBitrate{
		SenderSSRC: senderSSRC,
		Bitrate:    float32(bitrateBps),
		SSRCs:      mediaSSRCs,
	}
	return pkt.Marshal()
}

// ParseREMB decodes a REMB packet from raw RTCP bytes. It is the inverse of
// BuildREMB, and is how a sender feeds UpdateReceiverEstimate from incoming
// RTCP.
func ParseREMB(data []byte) (*REMBPacket, error) {
	pkt := &rtcp.ReceiverEstimatedMaximumBitrate{}
	if err := pkt.Unmarshal(data); err != nil {
		return nil, err
	}
	return &REMBPacket{
		SenderSSRC: pkt.SenderSSRC,
		Bitrate:    uint64(pkt.Bitrate),
		SSRCs:      pkt.SSRCs,
	}, nil
}

// Marshal re-encodes a REMBPacket.
func (p *REMBPacket) Marshal() ([]byte, error) {
	return BuildREMB(p.SenderSSRC, p.Bitrate, p.SSRCs)
}
