package spanlog

import "context"

// taskKey is a private context key type to avoid collisions.
type taskKey struct{}

// taskStack is the per-execution-context stack of open span ids. It is
// confined to a single goroutine or logical task and therefore unlocked;
// a goroutine that forks work must call Detach first so the child gets its
// own stack.
type taskStack struct {
	ids  []uint64
	base uint64 // parent inherited at Detach time, 0 if none
}

// current returns the innermost open span id, falling back to the detached
// base parent, or 0 if the task has no enclosing span.
func (t *taskStack) current() uint64 {
	if t == nil {
		return 0
	}
	if n := len(t.ids); n > 0 {
		return t.ids[n-1]
	}
	return t.base
}

func (t *taskStack) enter(id uint64) {
	t.ids = append(t.ids, id)
}

// exit pops id iff it is the current top. On mismatch the stack is left
// unchanged.
func (t *taskStack) exit(id uint64) error {
	n := len(t.ids)
	if n == 0 || t.ids[n-1] != id {
		return ErrContextMismatch
	}
	t.ids = t.ids[:n-1]
	return nil
}

func (t *taskStack) depth() int {
	if t == nil {
		return 0
	}
	return len(t.ids)
}

// withTask returns the context's task stack, installing a fresh one if the
// context does not carry one yet.
func withTask(ctx context.Context) (context.Context, *taskStack) {
	if ctx == nil {
		ctx = context.Background()
	}
	if stack, ok := ctx.Value(taskKey{}).(*taskStack); ok {
		return ctx, stack
	}
	stack := &taskStack{}
	return context.WithValue(ctx, taskKey{}, stack), stack
}

// currentSpan resolves the current span id for a context, or 0.
func currentSpan(ctx context.Context) uint64 {
	if ctx == nil {
		return 0
	}
	if stack, ok := ctx.Value(taskKey{}).(*taskStack); ok {
		return stack.current()
	}
	return 0
}

// Detach returns a context with a fresh span stack whose base parent is the
// caller's current span. Call it before handing a context to a new
// goroutine: stacks are confined per execution context and must never be
// shared. Spans opened on the detached context are cross-context children of
// the caller's span and do not block its closure.
func Detach(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	stack := &taskStack{base: currentSpan(ctx)}
	return context.WithValue(ctx, taskKey{}, stack)
}

// CurrentSpanID returns the innermost open span id carried by ctx, if any.
func CurrentSpanID(ctx context.Context) (uint64, bool) {
	id := currentSpan(ctx)
	return id, id != 0
}
