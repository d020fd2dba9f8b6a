package authgate

import (
	"context"
	"sync"
	"sync/atomic"
)

// auditDispatcher hands events to a single consumer goroutine so sink
// latency never blocks engine operations. Closing the queue channel is
// the shutdown signal: the consumer drains whatever is buffered and
// exits, and Close waits for that before returning.
type auditDispatcher struct {
	sink       AuditSink
	queue      chan AuditEvent
	done       chan struct{}
	dropIfFull bool

	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
}

func newAuditDispatcher(cfg AuditConfig, sink AuditSink) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &auditDispatcher{
		sink:       sink,
		queue:      make(chan AuditEvent, cfg.BufferSize),
		done:       make(chan struct{}),
		dropIfFull: cfg.DropIfFull,
	}
	go d.run()

	return d
}

func (d *auditDispatcher) run() {
	defer close(d.done)

	for event := range d.queue {
		d.sink.Emit(context.Background(), event)
	}
}

// Emit queues an event for delivery. The read lock keeps the queue open
// for the duration of the send, so a send never races Close's channel
// close.
func (d *auditDispatcher) Emit(ctx context.Context, event AuditEvent) {
	if d == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return
	}

	if d.dropIfFull {
		select {
		case d.queue <- event:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.queue <- event:
	case <-ctx.Done():
	}
}

// Close stops intake and blocks until every queued event has reached
// the sink. Safe to call more than once.
func (d *auditDispatcher) Close() {
	if d == nil {
		return
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		<-d.done
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	<-d.done
}

// Dropped reports how many events were discarded because the queue was
// full while DropIfFull was set.
func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
