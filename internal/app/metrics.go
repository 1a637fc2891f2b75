package app

import (
	"sync/atomic"
	"time"
)

// Metrics tracks frame loop timing.
type Metrics struct {
	// Tick timing
	frameCount  atomic.Uint64
	frameTotal  atomic.Int64
	frameMin    atomic.Int64
	frameMax    atomic.Int64
	lastFrame   atomic.Int64
	overruns    atomic.Uint64
	reloadCount atomic.Uint64

	startTime time.Time
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	m := &Metrics{
		startTime: time.Now(),
	}
	// Initialize min to max int64 so first frame will be smaller
	m.frameMin.Store(1<<63 - 1)
	return m
}

// RecordFrame records how long one tick call took.
func (m *Metrics) RecordFrame(duration time.Duration) {
	ns := duration.Nanoseconds()

	m.frameCount.Add(1)
	m.frameTotal.Add(ns)
	m.lastFrame.Store(ns)

	for {
		old := m.frameMin.Load()
		if ns >= old || m.frameMin.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := m.frameMax.Load()
		if ns <= old || m.frameMax.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordOverrun records a tick that took longer than the frame interval.
func (m *Metrics) RecordOverrun() {
	m.overruns.Add(1)
}

// RecordReload records a script reload.
func (m *Metrics) RecordReload() {
	m.reloadCount.Add(1)
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	frameCount := m.frameCount.Load()

	var avg time.Duration
	if frameCount > 0 {
		avg = time.Duration(m.frameTotal.Load() / int64(frameCount))
	}

	minFrame := m.frameMin.Load()
	if minFrame == 1<<63-1 {
		minFrame = 0
	}

	return MetricsSnapshot{
		Uptime:       time.Since(m.startTime),
		FrameCount:   frameCount,
		AvgFrameTime: avg,
		MinFrameTime: time.Duration(minFrame),
		MaxFrameTime: time.Duration(m.frameMax.Load()),
		LastFrame:    time.Duration(m.lastFrame.Load()),
		Overruns:     m.overruns.Load(),
		Reloads:      m.reloadCount.Load(),
	}
}

// MetricsSnapshot is a point-in-time view of metrics.
type MetricsSnapshot struct {
	Uptime       time.Duration
	FrameCount   uint64
	AvgFrameTime time.Duration
	MinFrameTime time.Duration
	MaxFrameTime time.Duration
	LastFrame    time.Duration
	Overruns     uint64
	Reloads      uint64
}

// AvgFPS returns the frames per second achieved over the uptime.
func (s MetricsSnapshot) AvgFPS() float64 {
	if s.Uptime <= 0 {
		return 0
	}
	return float64(s.FrameCount) / s.Uptime.Seconds()
}

// OverrunRate returns the percentage of ticks that overran the interval.
func (s MetricsSnapshot) OverrunRate() float64 {
	if s.FrameCount == 0 {
		return 0
	}
	return float64(s.Overruns) / float64(s.FrameCount) * 100
}
