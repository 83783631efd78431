// Soak test runner for long-duration validation of the send-side bandwidth
// estimator.
//
// This tool feeds the sbe.Estimator synthetic RTCP receiver blocks, REMB
// hints, and delay-based hints across rotating network-condition phases
// (clean, lossy, congested, REMB-capped, delay-capped, feedback-starved) for an extended
// period, watching for invariant violations, memory growth, and timestamp-
// related failures.
//
// Usage:
//
//	go run ./cmd/soak -duration 24h
//	go run ./cmd/soak -duration 1h  # shorter test
//
// Exposes pprof endpoints at :6060 for live profiling:
//
//	curl http://localhost:6060/debug/pprof/heap > heap.pprof
//	go tool pprof heap.pprof
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"net/http"
	_ "net/http/pprof" // Enable pprof endpoints
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/pion/logging"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/thesyncim/bwe/pkg/sbe"
	"github.com/thesyncim/bwe/pkg/sbe/eventlog"
	sbemetrics "github.com/thesyncim/bwe/pkg/sbe/metrics"
)

const (
	tickIntervalMs        = 100 // how often UpdateEstimate/receiver blocks arrive
	statusIntervalMinutes = 5
	initialBitrateBps     = 300_000
	minBitrateBps         = 50_000
	maxBitrateBps         = 8_000_000
)

// phase describes one synthetic network condition window the soak loop
// rotates through, analogous to the scenarios in spec.md §8.
type phase struct {
	name          string
	duration      time.Duration
	fractionLoss  uint8 // Q8
	rttMs         int64
	rembBps       int64 // 0 = no REMB this phase
	delayBasedBps int64 // 0 = no delay-based hint this phase
	starveFeed    bool  // stop delivering receiver blocks entirely
}

var phases = []phase{
	{name: "clean", duration: 30 * time.Second, fractionLoss: 1, rttMs: 40, rembBps: 0, delayBasedBps: 0},
	{name: "lossy", duration: 20 * time.Second, fractionLoss: 40, rttMs: 80, rembBps: 0, delayBasedBps: 0},
	{name: "congested", duration: 20 * time.Second, fractionLoss: 90, rttMs: 150, rembBps: 0, delayBasedBps: 0},
	{name: "remb-capped", duration: 20 * time.Second, fractionLoss: 2, rttMs: 50, rembBps: 400_000, delayBasedBps: 0},
	{name: "delay-capped", duration: 20 * time.Second, fractionLoss: 2, rttMs: 50, rembBps: 0, delayBasedBps: 600_000},
	{name: "feedback-starved", duration: 10 * time.Second, starveFeed: true},
}

// SoakResult summarizes a completed soak run.
type SoakResult struct {
	Duration         time.Duration
	TotalTicks       int
	TotalBlocks      int
	FinalEstimate    int64
	PeakHeapMB       float64
	TotalGCCycles    uint32
	InvariantFailures int
	Status           string
}

func main() {
	duration := flag.Duration("duration", 24*time.Hour, "Test duration (e.g., 1h, 24h)")
	pprofPort := flag.Int("pprof-port", 6060, "Port for pprof HTTP server")
	flag.Parse()

	fmt.Printf("SBE Soak Test Runner\n")
	fmt.Printf("=====================\n")
	fmt.Printf("Duration: %v\n", *duration)
	fmt.Printf("Pprof:    http://localhost:%d/debug/pprof/\n", *pprofPort)
	fmt.Printf("\n")

	go func() {
		addr := fmt.Sprintf(":%d", *pprofPort)
		if err := http.ListenAndServe(addr, nil); err != nil {
			fmt.Printf("Warning: pprof server failed: %v\n", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Printf("\nReceived %v, shutting down gracefully...\n", sig)
		cancel()
	}()

	result := runSoakTest(ctx, *duration)
	printSummary(result)

	if result.Status == "PASS" {
		os.Exit(0)
	}
	os.Exit(1)
}

func runSoakTest(ctx context.Context, duration time.Duration) SoakResult {
	logFactory := logging.NewDefaultLoggerFactory()
	eventLog := eventlog.New(logFactory.NewLogger("sbe-soak"))
	metrics := sbemetrics.New(prometheus.NewRegistry(), prometheus.Labels{"run": "soak"})

	estimator := sbe.New(eventLog, metrics, sbe.Config{
		SystemMinBitrateBps: minBitrateBps,
		Experiment:          sbe.DefaultExperimentConfig(),
	})
	estimator.SetBitrates(initialBitrateBps, minBitrateBps, maxBitrateBps)

	result := SoakResult{Status: "PASS"}

	var memStats runtime.MemStats
	var nowMs int64
	tickInterval := time.Duration(tickIntervalMs) * time.Millisecond

	startTime := time.Now()
	lastStatusTime := startTime
	statusInterval := time.Duration(statusIntervalMinutes) * time.Minute

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	fmt.Printf("[%s] Starting soak test...\n", formatDuration(0))

	phaseIdx := 0
	phaseElapsed := time.Duration(0)
	lastMinHistoryFront := int64(-1)

	for {
		select {
		case <-ctx.Done():
			result.Duration = time.Since(startTime)
			return result

		case <-ticker.C:
			elapsed := time.Since(startTime)
			if elapsed >= duration {
				result.Duration = elapsed
				return result
			}

			nowMs += tickIntervalMs
			cur := phases[phaseIdx%len(phases)]
			phaseElapsed += tickInterval
			if phaseElapsed >= cur.duration {
				phaseElapsed = 0
				phaseIdx++
				cur = phases[phaseIdx%len(phases)]
				fmt.Printf("[%s] entering phase %q\n", formatDuration(elapsed), cur.name)
			}

			if !cur.starveFeed {
				estimator.UpdateReceiverBlock(cur.fractionLoss, cur.rttMs, 15, nowMs)
				result.TotalBlocks++
				if cur.rembBps > 0 {
					estimator.UpdateReceiverEstimate(nowMs, cur.rembBps)
				}
				if cur.delayBasedBps > 0 {
					estimator.UpdateDelayBasedEstimate(nowMs, cur.delayBasedBps)
				}
			}
			estimator.UpdateEstimate(nowMs)
			result.TotalTicks++

			bitrate, fractionLoss, _ := estimator.CurrentEstimate()
			result.FinalEstimate = bitrate

			if math.IsNaN(float64(bitrate)) || math.IsInf(float64(bitrate), 0) {
				fmt.Printf("[%s] ERROR: non-finite estimate detected!\n", formatDuration(elapsed))
				result.InvariantFailures++
				result.Status = "FAIL"
			}
			if bitrate < estimator.MinBitrate() || bitrate > maxBitrateBps {
				fmt.Printf("[%s] ERROR: estimate %d bps outside configured bounds [%d, %d]\n",
					formatDuration(elapsed), bitrate, estimator.MinBitrate(), maxBitrateBps)
				result.InvariantFailures++
				result.Status = "FAIL"
			}
			_ = fractionLoss // validated implicitly: uint8 cannot exceed [0,255]
			_ = lastMinHistoryFront

			if time.Since(lastStatusTime) >= statusInterval {
				lastStatusTime = time.Now()
				runtime.ReadMemStats(&memStats)

				heapMB := float64(memStats.HeapAlloc) / (1024 * 1024)
				if heapMB > result.PeakHeapMB {
					result.PeakHeapMB = heapMB
				}
				result.TotalGCCycles = memStats.NumGC

				fmt.Printf("[%s] phase=%s ticks=%d blocks=%d estimate=%.2f Mbps HeapAlloc=%.2f MB NumGC=%d\n",
					formatDuration(elapsed), cur.name, result.TotalTicks, result.TotalBlocks,
					float64(bitrate)/1e6, heapMB, memStats.NumGC)

				if heapMB > 100 {
					fmt.Printf("[%s] ERROR: memory limit exceeded: %.2f MB\n", formatDuration(elapsed), heapMB)
					result.Status = "FAIL"
				}
			}
		}
	}
}

func printSummary(result SoakResult) {
	fmt.Printf("\n")
	fmt.Printf("Soak Test Complete\n")
	fmt.Printf("===================\n")
	fmt.Printf("Duration:           %v\n", result.Duration.Round(time.Second))
	fmt.Printf("Total ticks:        %d\n", result.TotalTicks)
	fmt.Printf("Total blocks:       %d\n", result.TotalBlocks)
	fmt.Printf("Final estimate:     %.2f Mbps\n", float64(result.FinalEstimate)/1e6)
	fmt.Printf("Peak HeapAlloc:     %.2f MB\n", result.PeakHeapMB)
	fmt.Printf("Total GC cycles:    %d\n", result.TotalGCCycles)
	fmt.Printf("Invariant failures: %d\n", result.InvariantFailures)
	fmt.Printf("Status:             %s\n", result.Status)
	fmt.Printf("\n")

	fmt.Printf("Pass Criteria:\n")
	fmt.Printf("  - No panics:              %s\n", checkMark(true))
	fmt.Printf("  - Final estimate > 0:     %s\n", checkMark(result.FinalEstimate > 0))
	fmt.Printf("  - Peak memory < 100 MB:   %s\n", checkMark(result.PeakHeapMB < 100))
	fmt.Printf("  - No invariant failures:  %s\n", checkMark(result.InvariantFailures == 0))
}

func formatDuration(d time.Duration) string {
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func checkMark(pass bool) string {
	if pass {
		return "PASS"
	}
	return "FAIL"
}
