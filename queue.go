package spanlog

import (
	"fmt"
	"sync"
	"time"

	"github.com/eapache/queue"
)

// OverflowPolicy selects producer behavior when the export queue is full.
type OverflowPolicy uint8

const (
	// Block makes the producer wait until space is available or the
	// pipeline shuts down.
	Block OverflowPolicy = iota + 1
	// DropNewest discards the incoming record and counts it.
	DropNewest
	// DropOldest evicts the queue head to make room for the incoming
	// record and counts the eviction.
	DropOldest
)

// String returns the policy's configuration name.
func (p OverflowPolicy) String() string {
	switch p {
	case Block:
		return "block"
	case DropNewest:
		return "drop_newest"
	case DropOldest:
		return "drop_oldest"
	default:
		return "unknown"
	}
}

// ParseOverflowPolicy converts a configuration string to a policy.
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch s {
	case "block", "Block", "BLOCK":
		return Block, nil
	case "drop_newest", "DropNewest", "drop-newest":
		return DropNewest, nil
	case "drop_oldest", "DropOldest", "drop-oldest":
		return DropOldest, nil
	default:
		return Block, fmt.Errorf("invalid overflow policy: %q (expected: block|drop_newest|drop_oldest)", s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML configuration.
func (p *OverflowPolicy) UnmarshalText(text []byte) error {
	parsed, err := ParseOverflowPolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (p OverflowPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// boundedQueue is the single synchronization point between producer
// contexts and the exporter's drain goroutine: a capacity-bounded FIFO ring
// with signal channels so the consumer can wait with a deadline. Safe for
// concurrent enqueue from many producers and a single dequeuer.
type boundedQueue struct {
	mu       sync.Mutex
	ring     *queue.Queue
	capacity int
	policy   OverflowPolicy
	closed   bool

	notEmpty  sigChan
	notFull   sigChan
	done      chan struct{}
	closeOnce sync.Once
}

// sigChan is a 1-buffered signal channel. Waiters always re-check state after
// a wakeup, so a coalesced signal is sufficient.
type sigChan chan struct{}

func (s sigChan) signal() {
	select {
	case s <- struct{}{}:
	default:
	}
}

func newBoundedQueue(capacity int, policy OverflowPolicy) *boundedQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &boundedQueue{
		ring:     queue.New(),
		capacity: capacity,
		policy:   policy,
		notEmpty: make(sigChan, 1),
		notFull:  make(sigChan, 1),
		done:     make(chan struct{}),
	}
}

// push enqueues rendered bytes under the configured policy.
// evicted reports a DropOldest head eviction; dropped reports that item
// itself was discarded (DropNewest overflow or shutdown).
func (q *boundedQueue) push(item []byte) (evicted, dropped bool) {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return false, true
		}
		if q.ring.Length() < q.capacity {
			q.ring.Add(item)
			hasSpace := q.ring.Length() < q.capacity
			q.mu.Unlock()
			q.notEmpty.signal()
			if hasSpace {
				// Cascade so a second blocked producer is not stranded.
				q.notFull.signal()
			}
			return evicted, false
		}

		switch q.policy {
		case DropNewest:
			q.mu.Unlock()
			return false, true
		case DropOldest:
			q.ring.Remove()
			q.ring.Add(item)
			q.mu.Unlock()
			q.notEmpty.signal()
			return true, false
		default: // Block
			q.mu.Unlock()
			select {
			case <-q.notFull:
			case <-q.done:
				return false, true
			}
		}
	}
}

// pop removes the head, blocking until an item arrives, the deadline fires,
// or the queue is closed and fully drained. A nil deadline never fires.
// Single consumer only.
func (q *boundedQueue) pop(deadline <-chan time.Time) (item []byte, ok, timedOut bool) {
	for {
		q.mu.Lock()
		if q.ring.Length() > 0 {
			item = q.ring.Remove().([]byte)
			q.mu.Unlock()
			q.notFull.signal()
			return item, true, false
		}
		if q.closed {
			q.mu.Unlock()
			return nil, false, false
		}
		q.mu.Unlock()

		select {
		case <-q.notEmpty:
		case <-deadline:
			return nil, false, true
		case <-q.done:
			// Loop once more to drain anything raced in before close.
		}
	}
}

// close stops intake. Blocked producers drop their record; the consumer
// drains the remaining items and then observes ok=false.
func (q *boundedQueue) close() {
	q.closeOnce.Do(func() {
		q.mu.Lock()
		q.closed = true
		q.mu.Unlock()
		close(q.done)
	})
}

func (q *boundedQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ring.Length()
}

// snapshot copies the queued items in FIFO order, for inspection in tests.
func (q *boundedQueue) snapshot() [][]byte {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([][]byte, 0, q.ring.Length())
	for i := 0; i < q.ring.Length(); i++ {
		out = append(out, q.ring.Get(i).([]byte))
	}
	return out
}
