package spanlog

import (
	"errors"
	"fmt"
)

// Errors returned to instrumenting call sites. These indicate misuse of the
// span API and are never swallowed by the pipeline.
var (
	// ErrContextMismatch is returned when a span is closed while it is not
	// the innermost open span of its execution context. The context stack
	// is left unchanged and the span stays open.
	ErrContextMismatch = errors.New("spanlog: span is not the innermost open span of this context")

	// ErrSpanNotOpen is returned when a field is added to, or a close is
	// attempted on, a span that is already closed or unknown.
	ErrSpanNotOpen = errors.New("spanlog: span is not open")
)

// StageError wraps a failure raised by a dispatch stage. It is reported to
// the pipeline's diagnostic sink, never to the emitting call site.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("spanlog: stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
