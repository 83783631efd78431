// Package interceptor provides a Pion WebRTC interceptor that runs the
// send-side bandwidth estimator against a sender's own outgoing stream,
// reading the RTCP feedback the remote peer sends back.
package interceptor

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/pion/interceptor"
	"github.com/pion/rtcp"

	"github.com/thesyncim/bwe/pkg/sbe/rtcpingest"
)

// tickInterval is how often UpdateEstimate is driven in the absence of a
// fresh receiver block, so feedback-timeout detection keeps advancing even
// when nothing new has arrived.
const tickInterval = 200 * time.Millisecond

// Estimator is the subset of *sbe.Estimator this interceptor drives. Kept
// as an interface so tests can substitute a recorder.
type Estimator interface {
	UpdateReceiverBlock(fractionLossQ8 uint8, rttMs int64, packetCount int64, nowMs int64)
	UpdateReceiverEstimate(nowMs int64, bandwidthBps int64)
	UpdateEstimate(nowMs int64)
}

// SBEInterceptor feeds incoming RTCP receiver reports and REMB packets to an
// Estimator and ticks it periodically.
//
// Usage:
//
//	est := sbe.New(eventLog, metrics, sbe.Config{...})
//	i := interceptor.NewSBEInterceptor(est)
//	defer i.Close()
//
// SBEInterceptor implements interceptor.Interceptor directly; this package
// provides no interceptor.Factory for it.
type SBEInterceptor struct {
	interceptor.NoOp

	estimator Estimator
	tracker   *rtcpingest.Tracker
	srTracker *rtcpingest.SenderReportTracker

	localSSRC atomic.Uint32

	// mu serializes calls into estimator from the RTCP reader and the tick
	// loop, since the Estimator itself is single-threaded.
	mu     sync.Mutex
	closed chan struct{}
	wg     sync.WaitGroup
}

// NewSBEInterceptor constructs an interceptor driving est.
func NewSBEInterceptor(est Estimator) *SBEInterceptor {
	return &SBEInterceptor{
		estimator: est,
		tracker:   rtcpingest.NewTracker(),
		closed:    make(chan struct{}),
	}
}

// BindLocalStream captures the SSRC of our own outgoing stream so incoming
// ReceiverReports can be matched against it.
func (i *SBEInterceptor) BindLocalStream(info *interceptor.StreamInfo, writer interceptor.RTPWriter) interceptor.RTPWriter {
	i.localSSRC.Store(info.SSRC)
	return writer
}

// BindRTCPReader wraps reader to observe every incoming RTCP packet,
// feeding ReceiverReports and REMB packets to the estimator, then passes
// the data through unchanged.
func (i *SBEInterceptor) BindRTCPReader(reader interceptor.RTCPReader) interceptor.RTCPReader {
	i.wg.Add(1)
	go i.tickLoop()

	return interceptor.RTCPReaderFunc(func(b []byte, a interceptor.Attributes) (int, interceptor.Attributes, error) {
		n, a, err := reader.Read(b, a)
		if err == nil && n > 0 {
			i.processRTCP(b[:n])
		}
		return n, a, err
	})
}

// Close shuts down the background tick loop.
func (i *SBEInterceptor) Close() error {
	select {
	case <-i.closed:
	default:
		close(i.closed)
	}
	i.wg.Wait()
	return nil
}

func (i *SBEInterceptor) processRTCP(raw []byte) {
	pkts, err := rtcp.Unmarshal(raw)
	if err != nil {
		return
	}

	nowMs := time.Now().UnixMilli()
	localSSRC := i.localSSRC.Load()

	i.mu.Lock()
	defer i.mu.Unlock()
	for _, pkt := range pkts {
		switch p := pkt.(type) {
		case *rtcp.ReceiverReport:
			block, ok := i.tracker.Decode(p, localSSRC)
			if !ok {
				continue
			}
			i.estimator.UpdateReceiverBlock(block.FractionLossQ8, 0, block.PacketCount, nowMs)
		case *rtcp.ReceiverEstimatedMaximumBitrate:
			i.estimator.UpdateReceiverEstimate(nowMs, int64(p.Bitrate))
		}
	}
}

func (i *SBEInterceptor) tickLoop() {
	defer i.wg.Done()

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-i.closed:
			return
		case now := <-ticker.C:
			i.mu.Lock()
			i.estimator.UpdateEstimate(now.UnixMilli())
			i.mu.Unlock()
		}
	}
}
