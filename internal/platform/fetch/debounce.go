// Package fetch coordinates deferred fetches: invocations are debounced
// behind a quiet interval, a newer trigger cancels the pending one, and
// results of superseded requests are never applied.
package fetch

import (
	"context"
	"sync"
	"time"
)

// DefaultInterval is the quiet period applied when none is configured.
const DefaultInterval = 300 * time.Millisecond

// Func performs the remote call. The context is cancelled when a newer
// trigger supersedes the request or the debouncer is closed.
type Func[Q, R any] func(ctx context.Context, query Q) (R, error)

// ApplyFunc receives the result of the most recent request. It is never
// invoked for superseded requests or after Close.
type ApplyFunc[Q, R any] func(query Q, result R, err error)

// Debouncer schedules a fetch no sooner than the quiet interval after the
// last trigger. Each trigger supersedes the previous one: a pending timer is
// reset, an in-flight request is cancelled, and only the newest request's
// result reaches the apply callback.
type Debouncer[Q, R any] struct {
	interval time.Duration
	fetch    Func[Q, R]
	apply    ApplyFunc[Q, R]

	mu         sync.Mutex
	timer      *time.Timer
	pending    Q
	generation uint64
	cancel     context.CancelFunc
	closed     bool

	wg sync.WaitGroup
}

// Option customises a Debouncer.
type Option func(*config)

type config struct {
	interval time.Duration
}

// WithInterval overrides the quiet interval.
func WithInterval(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.interval = d
		}
	}
}

// NewDebouncer constructs a Debouncer around the fetch and apply callbacks.
func NewDebouncer[Q, R any](fetch Func[Q, R], apply ApplyFunc[Q, R], opts ...Option) *Debouncer[Q, R] {
	cfg := config{interval: DefaultInterval}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if fetch == nil {
		fetch = func(context.Context, Q) (R, error) {
			var zero R
			return zero, nil
		}
	}
	if apply == nil {
		apply = func(Q, R, error) {}
	}
	return &Debouncer[Q, R]{
		interval: cfg.interval,
		fetch:    fetch,
		apply:    apply,
	}
}

// Trigger records a new query and (re)starts the quiet interval. A pending
// invocation is cancelled; an in-flight one keeps running but its result is
// suppressed and its context cancelled.
func (d *Debouncer[Q, R]) Trigger(query Q) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	d.generation++
	d.pending = query
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}

	if d.timer != nil {
		d.timer.Stop()
	}
	gen := d.generation
	d.timer = time.AfterFunc(d.interval, func() {
		d.fire(gen)
	})
}

// TriggerNow bypasses the quiet interval and issues the request immediately.
// It still participates in stale-response suppression.
func (d *Debouncer[Q, R]) TriggerNow(query Q) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.generation++
	d.pending = query
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	gen := d.generation
	d.mu.Unlock()

	d.fire(gen)
}

func (d *Debouncer[Q, R]) fire(gen uint64) {
	d.mu.Lock()
	if d.closed || gen != d.generation {
		d.mu.Unlock()
		return
	}
	query := d.pending
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.wg.Add(1)
	d.mu.Unlock()

	defer d.wg.Done()
	result, err := d.fetch(ctx, query)

	d.mu.Lock()
	stale := d.closed || gen != d.generation
	if !stale && d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.mu.Unlock()

	if stale {
		return
	}
	d.apply(query, result, err)
}

// Close stops the pending timer, cancels any in-flight request, and waits
// for it to drain. No apply callback runs after Close returns.
func (d *Debouncer[Q, R]) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.mu.Unlock()

	d.wg.Wait()
}
