package spanlog

import (
	"math"
	"sync/atomic"

	"fortio.org/safecast"
)

// stats holds the pipeline's diagnostic counters. All fields are atomic so
// producers and the drain goroutine update them without coordination.
type stats struct {
	emitted         atomic.Uint64
	filtered        atomic.Uint64
	droppedOverflow atomic.Uint64
	droppedExport   atomic.Uint64
	batchesSent     atomic.Uint64
	exportRetries   atomic.Uint64
}

// Stats is a point-in-time snapshot of the pipeline's diagnostic counters.
type Stats struct {
	Emitted         int64 `json:"emitted"`
	Filtered        int64 `json:"dropped_filtered"`
	DroppedOverflow int64 `json:"dropped_overflow"`
	DroppedExport   int64 `json:"dropped_export_failure"`
	BatchesSent     int64 `json:"export_batches_sent"`
	ExportRetries   int64 `json:"export_retries"`
}

func (s *stats) snapshot() Stats {
	return Stats{
		Emitted:         clampInt64(s.emitted.Load()),
		Filtered:        clampInt64(s.filtered.Load()),
		DroppedOverflow: clampInt64(s.droppedOverflow.Load()),
		DroppedExport:   clampInt64(s.droppedExport.Load()),
		BatchesSent:     clampInt64(s.batchesSent.Load()),
		ExportRetries:   clampInt64(s.exportRetries.Load()),
	}
}

func clampInt64(v uint64) int64 {
	n, err := safecast.Conv[int64](v)
	if err != nil {
		return math.MaxInt64
	}
	return n
}
