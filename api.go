// Package spanlog is a structured telemetry core: it captures application
// events and nested execution spans, attaches contextual metadata, and
// routes the resulting records through a pluggable chain of stages with
// bounded memory and predictable latency.
//
// Core Components:
//   - Pipeline: builds records and owns the dispatch chain.
//   - ActiveSpan: the caller's handle to an open span.
//   - Stage: filter/enrich/format capabilities applied in order.
//   - BufferedExporter: bounded queue + drain goroutine owning sink I/O.
//   - Sink: where rendered batches end up (writer, file, memory, fanout).
//
// Basic Usage:
//
//	pipe, err := spanlog.New(spanlog.DefaultConfig())
//	if err != nil { ... }
//	defer pipe.Shutdown(context.Background())
//
//	ctx, span := pipe.OpenSpan(ctx, spanlog.NewMetadata(spanlog.LevelInfo, "request", "http"))
//	pipe.Info(ctx, "validated", spanlog.String("user", "u-123"))
//	if err := span.Close(); err != nil { ... }
//
// Context Propagation:
//
// Each execution context carries its own stack of open spans inside the
// context.Context. Events are attributed to the innermost open span.
// Before starting a goroutine, call Detach so the child gets its own stack;
// its spans become cross-context children of the caller's current span.
//
// Error Containment:
//
// Misuse of the span API (closing out of order, touching a closed span) is
// returned to the caller. Faults inside the pipeline, such as stage errors,
// sink failures, and queue overflow, are counted, reported to the diagnostic
// sink, and never propagate into application control flow.
package spanlog
