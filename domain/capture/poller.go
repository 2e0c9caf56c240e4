package capture

import (
	"context"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const statsLogInterval = 30 * time.Second

// Poller repeatedly captures the rectangle returned by a provider and keeps
// the most recent frame. It backs the live preview.
type Poller struct {
	capturer Capturer
	rectFn   func() (image.Rectangle, bool)
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	latest   atomic.Pointer[FrameSnapshot]
	captures atomic.Uint64
	failures atomic.Uint64
	nanos    atomic.Uint64
	sequence atomic.Uint64
}

// NewPoller builds a poller. rectFn returning false skips the tick.
func NewPoller(c Capturer, rectFn func() (image.Rectangle, bool), interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Poller{capturer: c, rectFn: rectFn, interval: interval, logger: logger}
}

// Start launches the polling goroutine. Calling Start twice is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.loop(ctx, p.done)
}

// Stop cancels polling and waits for the goroutine to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the poller goroutine is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

// LatestFrame returns the freshest snapshot, or a zero value.
func (p *Poller) LatestFrame() FrameSnapshot {
	snap := p.latest.Load()
	if snap == nil {
		return FrameSnapshot{}
	}
	return *snap
}

// Stats returns counters since construction.
func (p *Poller) Stats() Stats {
	captures := p.captures.Load()
	var avg time.Duration
	if captures > 0 {
		avg = time.Duration(p.nanos.Load() / captures)
	}
	snap := p.LatestFrame()
	var age time.Duration
	if !snap.CapturedAt.IsZero() {
		age = time.Since(snap.CapturedAt)
	}
	return Stats{
		Captures:       captures,
		Failures:       p.failures.Load(),
		AvgCapture:     avg,
		LastCapture:    snap.CapturedAt,
		LatestFrameAge: age,
		Sequence:       snap.Sequence,
	}
}

func (p *Poller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	logTicker := time.NewTicker(statsLogInterval)
	defer logTicker.Stop()
	p.tick()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick()
		case <-logTicker.C:
			p.logStats()
		}
	}
}

func (p *Poller) tick() {
	if p.rectFn == nil || p.capturer == nil {
		return
	}
	rect, ok := p.rectFn()
	if !ok {
		return
	}
	start := time.Now()
	img, err := p.capturer.Capture(rect)
	if err != nil {
		p.failures.Add(1)
		if p.logger != nil {
			p.logger.Debug("preview capture failed", "rect", rect.String(), "error", err)
		}
		return
	}
	p.nanos.Add(uint64(time.Since(start).Nanoseconds()))
	p.captures.Add(1)
	seq := p.sequence.Add(1)
	p.latest.Store(&FrameSnapshot{Image: img, Rect: rect, CapturedAt: time.Now(), Sequence: seq})
}

func (p *Poller) logStats() {
	if p.logger == nil {
		return
	}
	s := p.Stats()
	p.logger.Debug("preview.stats",
		"captures", s.Captures,
		"failures", s.Failures,
		"avg_capture", s.AvgCapture,
		"age", s.LatestFrameAge,
	)
}
