package spanlog

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/zoobzio/clockz"
)

// Option customizes a Pipeline at construction.
type Option func(*Pipeline)

// WithStages sets the dispatch chain, replacing the default text formatter.
// Stages run in the given order.
func WithStages(stages ...Stage) Option {
	return func(p *Pipeline) { p.stages = stages }
}

// WithSink sets the sink the buffered exporter writes to. Defaults to
// stdout.
func WithSink(s Sink) Option {
	return func(p *Pipeline) { p.sink = s }
}

// WithClock injects a clock, enabling deterministic tests.
func WithClock(c clockz.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// WithDiagnostic sets the sink for pipeline-internal errors. Defaults to a
// line on stderr.
func WithDiagnostic(d DiagnosticFunc) Option {
	return func(p *Pipeline) { p.diag = d }
}

// Pipeline is the telemetry core: it builds records from application calls,
// routes them through the stage chain, and hands rendered output to the
// buffered exporter. Safe for concurrent use by multiple goroutines.
type Pipeline struct {
	cfg      Config
	clock    clockz.Clock
	stages   []Stage
	sink     Sink
	diag     DiagnosticFunc
	registry *registry
	states   *spanStates
	stats    *stats
	exporter *BufferedExporter
	seq      atomic.Uint64
	instance string
}

// New builds a pipeline from cfg. Zero capacity, policy, and batch size take
// defaults; a zero BatchWindow disables the batch window and a zero MinLevel
// is LevelTrace. DefaultConfig returns a fully populated starting point.
func New(cfg Config, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{
		cfg:      cfg,
		clock:    clockz.RealClock,
		stages:   []Stage{NewTextFormatter()},
		sink:     NewWriterSink(os.Stdout),
		registry: &registry{},
		states:   newSpanStates(),
		stats:    &stats{},
		instance: uuid.NewString(),
	}
	p.diag = func(err error) {
		fmt.Fprintf(os.Stderr, "spanlog: %v\n", err)
	}
	for _, opt := range opts {
		opt(p)
	}

	p.exporter = newBufferedExporter(cfg, p.sink, p.clock, p.stats, func(err error) { p.diag(err) })
	return p, nil
}

// Emit records a point-in-time event attributed to the context's current
// span, if any. Building is synchronous and performs no I/O; the producer
// blocks only at the export queue boundary under the Block policy.
func (p *Pipeline) Emit(ctx context.Context, md Metadata, fields ...Field) {
	p.stats.emitted.Add(1)
	if !md.Level.enabled(p.cfg.MinLevel) {
		p.stats.filtered.Add(1)
		return
	}
	rec := newEventRecord(md, p.seq.Add(1), currentSpan(ctx), fields, p.clock.Now())
	p.dispatch(rec)
}

// Trace emits an event at LevelTrace.
func (p *Pipeline) Trace(ctx context.Context, name string, fields ...Field) {
	p.Emit(ctx, Metadata{Level: LevelTrace, Name: name}, fields...)
}

// Debug emits an event at LevelDebug.
func (p *Pipeline) Debug(ctx context.Context, name string, fields ...Field) {
	p.Emit(ctx, Metadata{Level: LevelDebug, Name: name}, fields...)
}

// Info emits an event at LevelInfo.
func (p *Pipeline) Info(ctx context.Context, name string, fields ...Field) {
	p.Emit(ctx, Metadata{Level: LevelInfo, Name: name}, fields...)
}

// Warn emits an event at LevelWarn.
func (p *Pipeline) Warn(ctx context.Context, name string, fields ...Field) {
	p.Emit(ctx, Metadata{Level: LevelWarn, Name: name}, fields...)
}

// Error emits an event at LevelError.
func (p *Pipeline) Error(ctx context.Context, name string, fields ...Field) {
	p.Emit(ctx, Metadata{Level: LevelError, Name: name}, fields...)
}

// OpenSpan opens a span as a child of the context's current span, pushes it
// onto the context stack, and emits a SpanOpened record. The returned
// context carries the stack when ctx did not already; pass it to code
// running in the same execution context, and Detach it before starting a
// goroutine.
//
// Spans below the configured min level still maintain the stack and
// registry (nesting correctness never depends on level) but their records
// are counted as filtered instead of dispatched.
func (p *Pipeline) OpenSpan(ctx context.Context, md Metadata, fields ...Field) (context.Context, *ActiveSpan) {
	ctx, task := withTask(ctx)
	parent := task.current()
	now := p.clock.Now()

	filtered := !md.Level.enabled(p.cfg.MinLevel)
	id := p.registry.open(md, parent, fields, now, filtered)
	task.enter(id)

	p.stats.emitted.Add(1)
	if filtered {
		p.stats.filtered.Add(1)
	} else {
		p.dispatch(newSpanOpenedRecord(md, p.seq.Add(1), id, parent, fields, now))
	}

	return ctx, &ActiveSpan{pipeline: p, task: task, id: id, parent: parent}
}

// finishSpan emits the SpanClosed record and reclaims the registry entry
// once dispatch has completed.
func (p *Pipeline) finishSpan(id uint64, info closeInfo) {
	p.stats.emitted.Add(1)
	if info.filtered {
		p.stats.filtered.Add(1)
	} else {
		p.dispatch(newSpanClosedRecord(info, p.seq.Add(1), id, p.clock.Now()))
	}
	p.registry.reclaim(id)
}

// Stats returns a snapshot of the diagnostic counters.
func (p *Pipeline) Stats() Stats {
	return p.stats.snapshot()
}

// Shutdown stops the exporter's intake, drains the queue under the retry/
// drop rule, and flushes the sink. Records emitted afterwards are dropped
// and counted as overflow. Bounded by ctx's deadline.
func (p *Pipeline) Shutdown(ctx context.Context) error {
	return p.exporter.Shutdown(ctx)
}
