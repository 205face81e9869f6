package spanlog

// ActiveSpan is the caller's handle to an open span. It is bound to the
// execution context that opened it; do not share one ActiveSpan between
// goroutines. Detach the context and open a child span instead.
type ActiveSpan struct {
	pipeline *Pipeline
	task     *taskStack
	id       uint64
	parent   uint64
}

// ID returns the span's registry identifier.
func (s *ActiveSpan) ID() uint64 { return s.id }

// ParentID returns the identifier of the enclosing span, or 0 for a root.
func (s *ActiveSpan) ParentID() uint64 { return s.parent }

// AddField appends a field to the span while it is open. The field appears
// on the SpanClosed record. Returns ErrSpanNotOpen once the span is closed.
func (s *ActiveSpan) AddField(f Field) error {
	return s.pipeline.registry.addField(s.id, f)
}

// Close ends the span: sets its end time, pops it from the context stack,
// and emits a SpanClosed record. The span must be the innermost open span
// of its context, otherwise ErrContextMismatch is returned and nothing
// changes. Closing twice (or losing a concurrent close race) returns
// ErrSpanNotOpen; the first close wins.
func (s *ActiveSpan) Close() error {
	if s.task.current() != s.id {
		// Already closed and reclaimed, or still open deeper in the
		// stack. Only the latter is a nesting violation.
		if !s.pipeline.registry.contains(s.id) {
			return ErrSpanNotOpen
		}
		return ErrContextMismatch
	}

	info, err := s.pipeline.registry.close(s.id, s.pipeline.clock.Now())
	if err != nil {
		return err
	}
	if err := s.task.exit(s.id); err != nil {
		return err
	}

	s.pipeline.finishSpan(s.id, info)
	return nil
}
