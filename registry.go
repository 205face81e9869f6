package spanlog

import (
	"sync"
	"sync/atomic"
	"time"
)

// spanEntry is the registry's mutable per-span state. Entries are touched by
// many independent call sites, so each carries its own lock.
type spanEntry struct {
	mu       sync.Mutex
	md       Metadata
	parent   uint64
	fields   Fields
	start    time.Time
	end      time.Time
	closed   bool
	filtered bool // below min-level: lifecycle tracked, records not dispatched
}

// closeInfo is the read-only snapshot taken when a span closes, used to
// build its SpanClosed record after the entry may already be reclaimed.
type closeInfo struct {
	md       Metadata
	parent   uint64
	fields   Fields
	start    time.Time
	end      time.Time
	filtered bool
}

// registry owns span lifecycle state keyed by a monotonically issued id.
// Identifier allocation is atomic; the entry map is a concurrent map since
// entries are created and reclaimed by independent execution contexts.
type registry struct {
	nextID  atomic.Uint64
	entries sync.Map // uint64 -> *spanEntry
}

// open allocates a strictly increasing id and stores the span as open.
func (r *registry) open(md Metadata, parent uint64, fields Fields, now time.Time, filtered bool) uint64 {
	id := r.nextID.Add(1)
	r.entries.Store(id, &spanEntry{
		md:       md,
		parent:   parent,
		fields:   fields.clone(),
		start:    now,
		filtered: filtered,
	})
	return id
}

// addField appends to an open span's field set.
func (r *registry) addField(id uint64, f Field) error {
	v, ok := r.entries.Load(id)
	if !ok {
		return ErrSpanNotOpen
	}
	e := v.(*spanEntry)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrSpanNotOpen
	}
	e.fields = append(e.fields, f)
	return nil
}

// close marks the span closed and returns a snapshot for dispatch. The first
// close wins; a concurrent or repeated close observes ErrSpanNotOpen.
func (r *registry) close(id uint64, now time.Time) (closeInfo, error) {
	v, ok := r.entries.Load(id)
	if !ok {
		return closeInfo{}, ErrSpanNotOpen
	}
	e := v.(*spanEntry)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return closeInfo{}, ErrSpanNotOpen
	}
	e.closed = true
	e.end = now
	return closeInfo{
		md:       e.md,
		parent:   e.parent,
		fields:   e.fields.clone(),
		start:    e.start,
		end:      e.end,
		filtered: e.filtered,
	}, nil
}

// reclaim drops a closed span's entry once its close record has been handed
// to the exporter.
func (r *registry) reclaim(id uint64) {
	r.entries.Delete(id)
}

// contains reports whether the registry still tracks id.
func (r *registry) contains(id uint64) bool {
	_, ok := r.entries.Load(id)
	return ok
}
