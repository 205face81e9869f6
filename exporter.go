package spanlog

import (
	"context"
	"fmt"
	"time"

	"github.com/zoobzio/clockz"
)

// BufferedExporter decouples dispatch from sink latency. Producers hand
// rendered records to a bounded queue; a dedicated drain goroutine owns all
// sink I/O, batching records up to a size or time window and retrying failed
// writes with doubling backoff before dropping the batch.
type BufferedExporter struct {
	queue *boundedQueue
	sink  Sink
	clock clockz.Clock
	stats *stats
	diag  DiagnosticFunc

	batchSize     int
	batchWindow   time.Duration
	retryAttempts int
	retryBackoff  time.Duration

	done chan struct{}
}

func newBufferedExporter(cfg Config, sink Sink, clock clockz.Clock, st *stats, diag DiagnosticFunc) *BufferedExporter {
	e := &BufferedExporter{
		queue:         newBoundedQueue(cfg.QueueCapacity, cfg.OverflowPolicy),
		sink:          sink,
		clock:         clock,
		stats:         st,
		diag:          diag,
		batchSize:     cfg.BatchSize,
		batchWindow:   time.Duration(cfg.BatchWindow),
		retryAttempts: cfg.RetryAttempts,
		retryBackoff:  time.Duration(cfg.RetryBackoff),
		done:          make(chan struct{}),
	}
	go e.drain()
	return e
}

// enqueue hands rendered bytes to the drain goroutine, applying the overflow
// policy. Never performs I/O on the caller's path.
func (e *BufferedExporter) enqueue(rendered []byte) {
	evicted, dropped := e.queue.push(rendered)
	if evicted || dropped {
		e.stats.droppedOverflow.Add(1)
	}
}

// drain is the exporter's single consumer loop. It runs until the queue is
// closed and fully drained, then flushes the sink.
func (e *BufferedExporter) drain() {
	defer close(e.done)
	for {
		first, ok, _ := e.queue.pop(nil)
		if !ok {
			break
		}
		e.export(e.gather(first))
	}
	if err := e.sink.Flush(); err != nil {
		e.diag(fmt.Errorf("spanlog: sink flush: %w", err))
	}
}

// gather accumulates a batch starting from first, until the batch is full,
// the window elapses, or the queue closes.
func (e *BufferedExporter) gather(first []byte) [][]byte {
	batch := [][]byte{first}
	if e.batchSize <= 1 {
		return batch
	}
	var window <-chan time.Time
	if e.batchWindow > 0 {
		window = e.clock.After(e.batchWindow)
	}
	for len(batch) < e.batchSize {
		item, ok, timedOut := e.queue.pop(window)
		if timedOut || !ok {
			break
		}
		batch = append(batch, item)
	}
	return batch
}

// export writes the batch, retrying up to the configured attempt count with
// doubling backoff, then drops it and counts the loss.
func (e *BufferedExporter) export(batch [][]byte) {
	err := e.sink.Write(batch)
	if err == nil {
		e.stats.batchesSent.Add(1)
		return
	}

	backoff := e.retryBackoff
	for attempt := 0; attempt < e.retryAttempts; attempt++ {
		e.stats.exportRetries.Add(1)
		if backoff > 0 {
			<-e.clock.After(backoff)
			backoff *= 2
		}
		if err = e.sink.Write(batch); err == nil {
			e.stats.batchesSent.Add(1)
			return
		}
	}

	e.stats.droppedExport.Add(uint64(len(batch)))
	e.diag(fmt.Errorf("spanlog: batch of %d dropped after %d retries: %w", len(batch), e.retryAttempts, err))
}

// Shutdown stops intake, drains the queue under the usual retry/drop rule,
// and flushes the sink. It returns early with the context's error if the
// deadline expires first; the drain goroutine still finishes in the
// background.
func (e *BufferedExporter) Shutdown(ctx context.Context) error {
	e.queue.close()
	select {
	case <-e.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// QueueDepth reports the records currently waiting for the drain goroutine.
func (e *BufferedExporter) QueueDepth() int {
	return e.queue.len()
}
