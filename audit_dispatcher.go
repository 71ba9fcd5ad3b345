package resetkit

import (
	"context"
	"sync"
	"sync/atomic"
)

// auditDispatcher decouples flow latency from sink latency: entries go
// through a buffered channel to a single goroutine that feeds the sink.
// Close drains the buffer before returning.
type auditDispatcher struct {
	cfg       AuditConfig
	sink      AuditSink
	ch        chan AuditEntry
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
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
		cfg:  cfg,
		sink: sink,
		ch:   make(chan AuditEntry, cfg.BufferSize),
		done: make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *auditDispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case entry := <-d.ch:
			d.sink.Emit(context.Background(), entry)
		case <-d.done:
			for {
				select {
				case entry := <-d.ch:
					d.sink.Emit(context.Background(), entry)
				default:
					return
				}
			}
		}
	}
}

// Emit queues an entry. With DropIfFull, a full buffer drops the entry and
// bumps the drop counter instead of blocking the flow.
func (d *auditDispatcher) Emit(ctx context.Context, entry AuditEntry) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.cfg.DropIfFull {
		select {
		case d.ch <- entry:
		case <-d.done:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.ch <- entry:
	case <-ctx.Done():
	case <-d.done:
	}
}

// Close stops intake, drains buffered entries to the sink, and waits for
// the worker to exit.
func (d *auditDispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

// Dropped returns the number of entries discarded under DropIfFull.
func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
