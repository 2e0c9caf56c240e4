package debug

// Runtime stats logger, started only when config.Debug is true. Logs the
// goroutine count, Go heap and stacks and, where available, the process
// working set so native leaks in capture backends show up next to heap growth.

import (
	"context"
	"log/slog"
	"runtime"
	"runtime/metrics"
	"time"

	"github.com/dustin/go-humanize"
)

// Snapshot is one sample of runtime statistics.
type Snapshot struct {
	Goroutines uint64
	HeapAlloc  uint64
	HeapInuse  uint64
	StackInuse uint64
	NumGC      uint32
	RSS        uint64
	HasRSS     bool
}

// Sample reads the current runtime statistics.
func Sample() Snapshot {
	samples := []metrics.Sample{{Name: "/sched/goroutines:goroutines"}}
	metrics.Read(samples)
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	s := Snapshot{
		HeapAlloc:  ms.HeapAlloc,
		HeapInuse:  ms.HeapInuse,
		StackInuse: ms.StackInuse,
		NumGC:      ms.NumGC,
	}
	if samples[0].Value.Kind() == metrics.KindUint64 {
		s.Goroutines = samples[0].Value.Uint64()
	}
	s.RSS, s.HasRSS = workingSet()
	return s
}

// Attrs renders s as log attributes with human readable sizes.
func (s Snapshot) Attrs() []any {
	attrs := []any{
		slog.Uint64("goroutines", s.Goroutines),
		slog.String("heap_alloc", humanize.Bytes(s.HeapAlloc)),
		slog.String("heap_inuse", humanize.Bytes(s.HeapInuse)),
		slog.String("stack_inuse", humanize.Bytes(s.StackInuse)),
		slog.Uint64("num_gc", uint64(s.NumGC)),
	}
	if s.HasRSS {
		attrs = append(attrs, slog.String("rss", humanize.Bytes(s.RSS)))
	}
	return attrs
}

// StartRuntimeLogger logs a Snapshot every interval until ctx is done.
func StartRuntimeLogger(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				logger.Info("runtime-stats", Sample().Attrs()...)
			}
		}
	}()
}
