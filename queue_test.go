package spanlog

import (
	"fmt"
	"testing"
	"time"
)

func TestParseOverflowPolicy(t *testing.T) {
	cases := map[string]OverflowPolicy{
		"block":       Block,
		"drop_newest": DropNewest,
		"drop_oldest": DropOldest,
	}
	for in, want := range cases {
		got, err := ParseOverflowPolicy(in)
		if err != nil {
			t.Errorf("ParseOverflowPolicy(%q) returned error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseOverflowPolicy(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseOverflowPolicy("spill"); err == nil {
		t.Error("Expected error for invalid policy")
	}
}

func TestQueueFIFO(t *testing.T) {
	q := newBoundedQueue(4, Block)
	for i := 0; i < 3; i++ {
		q.push([]byte{byte(i)})
	}
	for i := 0; i < 3; i++ {
		item, ok, timedOut := q.pop(nil)
		if !ok || timedOut {
			t.Fatalf("pop %d: ok=%v timedOut=%v", i, ok, timedOut)
		}
		if item[0] != byte(i) {
			t.Errorf("Expected item %d, got %d", i, item[0])
		}
	}
}

func TestQueueDropOldestEvictsHead(t *testing.T) {
	const capacity = 5
	q := newBoundedQueue(capacity, DropOldest)

	// Enqueue capacity+1 records with no draining: the head must be
	// evicted exactly once and records 2..N+1 must remain.
	evictions := 0
	for i := 1; i <= capacity+1; i++ {
		evicted, dropped := q.push([]byte(fmt.Sprintf("r%d", i)))
		if dropped {
			t.Fatalf("record %d unexpectedly dropped", i)
		}
		if evicted {
			evictions++
		}
	}

	if evictions != 1 {
		t.Errorf("Expected exactly 1 eviction, got %d", evictions)
	}
	if q.len() != capacity {
		t.Errorf("Expected queue length %d, got %d", capacity, q.len())
	}
	for i, item := range q.snapshot() {
		want := fmt.Sprintf("r%d", i+2)
		if string(item) != want {
			t.Errorf("Position %d: expected %s, got %s", i, want, item)
		}
	}
}

func TestQueueDropNewestDiscardsIncoming(t *testing.T) {
	q := newBoundedQueue(2, DropNewest)
	q.push([]byte("a"))
	q.push([]byte("b"))

	evicted, dropped := q.push([]byte("c"))
	if evicted || !dropped {
		t.Errorf("Expected incoming record to be dropped, got evicted=%v dropped=%v", evicted, dropped)
	}
	got := q.snapshot()
	if len(got) != 2 || string(got[0]) != "a" || string(got[1]) != "b" {
		t.Errorf("Expected queue to keep a,b; got %q", got)
	}
}

func TestQueueBlockWaitsForSpace(t *testing.T) {
	q := newBoundedQueue(1, Block)
	q.push([]byte("a"))

	entered := make(chan struct{})
	returned := make(chan struct{})
	go func() {
		close(entered)
		q.push([]byte("b"))
		close(returned)
	}()

	<-entered
	select {
	case <-returned:
		t.Fatal("Expected producer to block on a full queue")
	case <-time.After(50 * time.Millisecond):
	}

	// Freeing space must release the producer.
	if _, ok, _ := q.pop(nil); !ok {
		t.Fatal("Expected pop to succeed")
	}
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Expected producer to return after space was freed")
	}
	if item, ok, _ := q.pop(nil); !ok || string(item) != "b" {
		t.Errorf("Expected to pop b, got %q ok=%v", item, ok)
	}
}

func TestQueueBlockReleasedByShutdown(t *testing.T) {
	q := newBoundedQueue(1, Block)
	q.push([]byte("a"))

	result := make(chan bool, 1)
	go func() {
		_, dropped := q.push([]byte("b"))
		result <- dropped
	}()

	time.Sleep(20 * time.Millisecond)
	q.close()

	select {
	case dropped := <-result:
		if !dropped {
			t.Error("Expected blocked push to report its record dropped on shutdown")
		}
	case <-time.After(time.Second):
		t.Fatal("Expected blocked producer to be released by shutdown")
	}
}

func TestQueuePopDrainsAfterClose(t *testing.T) {
	q := newBoundedQueue(4, Block)
	q.push([]byte("a"))
	q.push([]byte("b"))
	q.close()

	for _, want := range []string{"a", "b"} {
		item, ok, _ := q.pop(nil)
		if !ok || string(item) != want {
			t.Fatalf("Expected %s, got %q ok=%v", want, item, ok)
		}
	}
	if _, ok, _ := q.pop(nil); ok {
		t.Error("Expected ok=false once closed queue is drained")
	}
}

func TestQueuePopDeadline(t *testing.T) {
	q := newBoundedQueue(4, Block)
	deadline := make(chan time.Time)
	close(deadline)

	_, ok, timedOut := q.pop(deadline)
	if ok || !timedOut {
		t.Errorf("Expected timeout on empty queue, got ok=%v timedOut=%v", ok, timedOut)
	}
}
