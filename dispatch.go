package spanlog

import (
	"fmt"
	"sync"
)

// Stage is a processing step registered with the pipeline. A stage declares
// its capabilities by implementing any of Filter, Enricher, or Formatter;
// a single stage may implement several. Capabilities are always applied in
// that order within a stage, and stages run in registration order.
type Stage any

// Filter decides whether a record continues down the chain. Returning false
// ends the chain for that record without an error.
type Filter interface {
	Filter(*Record) bool
}

// Enricher returns an augmented copy of the record. The input record must
// not be mutated.
type Enricher interface {
	Enrich(*Record) (*Record, error)
}

// Formatter renders a record to bytes for export.
type Formatter interface {
	Format(*Record) ([]byte, error)
}

// FilterFunc adapts a function into a Filter.
type FilterFunc func(*Record) bool

func (f FilterFunc) Filter(r *Record) bool { return f(r) }

// EnrichFunc adapts a function into an Enricher.
type EnrichFunc func(*Record) (*Record, error)

func (f EnrichFunc) Enrich(r *Record) (*Record, error) { return f(r) }

// DiagnosticFunc receives pipeline-internal errors: stage failures, export
// exhaustion, contract violations observed by dispatch. Telemetry failures
// must never crash instrumented code, so they end up here instead of being
// returned to application logic.
type DiagnosticFunc func(error)

// spanStates is dispatch's view of span lifecycles. A close record for an id
// it does not consider open is a contract violation, reported and dropped.
type spanStates struct {
	mu   sync.Mutex
	open map[uint64]struct{}
}

func newSpanStates() *spanStates {
	return &spanStates{open: make(map[uint64]struct{})}
}

func (s *spanStates) markOpen(id uint64) {
	s.mu.Lock()
	s.open[id] = struct{}{}
	s.mu.Unlock()
}

// markClosed transitions id to its terminal state, reporting whether it was
// open. Terminal entries are removed so the map stays bounded.
func (s *spanStates) markClosed(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.open[id]; !ok {
		return false
	}
	delete(s.open, id)
	return true
}

// dispatch routes a finished record through the stage chain in registration
// order: filters may drop it, enrichers may replace it, the last formatter's
// output is handed to the buffered exporter. Synchronous up to and including
// formatting; only the export hop is asynchronous.
func (p *Pipeline) dispatch(rec *Record) {
	switch rec.Kind {
	case KindSpanOpened:
		p.states.markOpen(rec.SpanID)
	case KindSpanClosed:
		if !p.states.markClosed(rec.SpanID) {
			p.diag(fmt.Errorf("spanlog: span close for id %d which is not open", rec.SpanID))
			return
		}
	}

	var rendered []byte
	for _, st := range p.stages {
		keep, out, data, err := runStage(st, rec)
		if err != nil {
			p.diag(&StageError{Stage: fmt.Sprintf("%T", st), Err: err})
			return
		}
		if !keep {
			p.stats.filtered.Add(1)
			return
		}
		rec = out
		if data != nil {
			rendered = data
		}
	}
	if rendered == nil {
		return
	}
	p.exporter.enqueue(rendered)
}

// runStage applies one stage's capabilities. A panic inside a stage is
// contained and converted to an error.
func runStage(st Stage, rec *Record) (keep bool, out *Record, rendered []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	keep, out = true, rec
	if f, ok := st.(Filter); ok {
		if !f.Filter(rec) {
			keep = false
			return
		}
	}
	if e, ok := st.(Enricher); ok {
		enriched, eerr := e.Enrich(out)
		if eerr != nil {
			err = eerr
			return
		}
		if enriched != nil {
			out = enriched
		}
	}
	if fm, ok := st.(Formatter); ok {
		rendered, err = fm.Format(out)
	}
	return
}
