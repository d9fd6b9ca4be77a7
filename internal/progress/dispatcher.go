package progress

import (
	"context"
	"sync"
	"time"
)

const defaultSyncTimeout = 10 * time.Second

type queue struct {
	calls []func(ctx context.Context)
	done  chan struct{}
}

// Dispatcher runs store calls in the background so the tracker never waits on I/O.
// Calls sharing a key run one at a time in the order they were queued.
type Dispatcher struct {
	wg      sync.WaitGroup
	timeout time.Duration

	mu     sync.Mutex
	queues map[string]*queue
}

func NewDispatcher(timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultSyncTimeout
	}
	return &Dispatcher{timeout: timeout, queues: make(map[string]*queue)}
}

// Go queues fn behind earlier calls for key. Each call gets its own context
// bounded by the dispatcher timeout.
func (d *Dispatcher) Go(key string, fn func(ctx context.Context)) {
	d.wg.Add(1)
	d.mu.Lock()
	defer d.mu.Unlock()
	if q, ok := d.queues[key]; ok {
		q.calls = append(q.calls, fn)
		return
	}
	q := &queue{calls: []func(ctx context.Context){fn}, done: make(chan struct{})}
	d.queues[key] = q
	go d.drain(key, q)
}

func (d *Dispatcher) drain(key string, q *queue) {
	for {
		d.mu.Lock()
		if len(q.calls) == 0 {
			delete(d.queues, key)
			close(q.done)
			d.mu.Unlock()
			return
		}
		fn := q.calls[0]
		q.calls = q.calls[1:]
		d.mu.Unlock()

		d.run(fn)
	}
}

func (d *Dispatcher) run(fn func(ctx context.Context)) {
	defer d.wg.Done()
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	fn(ctx)
}

// Flush blocks until every call queued for key has returned.
func (d *Dispatcher) Flush(key string) {
	d.mu.Lock()
	q, ok := d.queues[key]
	d.mu.Unlock()
	if ok {
		<-q.done
	}
}

// Wait blocks until every started call has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
