package rtcpingest

import "github.com/pion/rtcp"

// ntpShort converts an RTP sender-report NTP timestamp to its 32-bit "NTP
// short format" middle bits, the same truncation a receiver echoes back in
// ReceptionReport.LastSenderReport.
func ntpShort(ntp uint64) uint32 {
	return uint32(ntp >> 16)
}

// SenderReportTracker records when each outgoing SenderReport was sent so
// that a later ReceptionReport's LastSenderReport/Delay (DLSR) pair can be
// turned into a round-trip-time sample, per RFC 3550 §6.4.1.
//
// Only the most recent few sender reports are retained; a ReceptionReport
// that references an older, evicted one is silently ignored rather than
// misattributed to the wrong send time.
type SenderReportTracker struct {
	sent map[uint32]int64 // ntpShort(sr.NTPTime) -> local send time, ms
	order []uint32
}

const maxTrackedSenderReports = 16

// NewSenderReportTracker constructs an empty SenderReportTracker.
func NewSenderReportTracker() *SenderReportTracker {
	return &SenderReportTracker{sent: make(map[uint32]int64)}
}

// NoteSenderReportSent records that sr was sent at nowMs, so that an
// RTT(sr, ...) computation can be made once the matching ReceptionReport
// comes back.
func (t *SenderReportTracker) NoteSenderReportSent(sr *rtcp.SenderReport, nowMs int64) {
	key := ntpShort(sr.NTPTime)
	if _, exists := t.sent[key]; !exists {
		t.order = append(t.order, key)
		if len(t.order) > maxTrackedSenderReports {
			delete(t.sent, t.order[0])
			t.order = t.order[1:]
		}
	}
	t.sent[key] = nowMs
}

// RTT computes a round-trip-time sample in milliseconds from a
// ReceptionReport's LastSenderReport/Delay (DLSR) fields and the current
// time. ok is false when report.LastSenderReport is zero (no SR has been
// received yet by the peer) or references a send we no longer have on
// record.
func (t *SenderReportTracker) RTT(report *rtcp.ReceptionReport, nowMs int64) (rttMs int64, ok bool) {
	if report.LastSenderReport == 0 {
		return 0, false
	}
	sentMs, exists := t.sent[report.LastSenderReport]
	if !exists {
		return 0, false
	}

	// Delay is in units of 1/65536 seconds.
	dlsrMs := int64(report.Delay) * 1000 / 65536
	rttMs = nowMs - sentMs - dlsrMs
	if rttMs < 0 {
		rttMs = 0
	}
	return rttMs, true
}
