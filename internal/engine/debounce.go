package engine

import (
	"sync"
	"time"
)

// DefaultDebounce is the trailing-edge window for canvas edits.
const DefaultDebounce = 250 * time.Millisecond

// Debouncer delays calls per key until no new call for that key has arrived
// for the wait window. A newer Schedule for the same key replaces the
// pending function and restarts its window.
//
// Flush delivers pending calls immediately; Stop flushes everything and
// refuses new work. Functions run on the timer goroutine, or on the caller
// of Flush/FlushAll/Stop, never while the Debouncer's lock is held.
//
// Calls for one key never overlap and never run out of order: a call that
// reaches its turn after a newer call for the same key has run is dropped.
//
// Thread-safety: all methods are safe for concurrent use.
type Debouncer struct {
	mu      sync.Mutex
	wait    time.Duration
	pending map[string]*pendingCall
	runners map[string]*keyRunner
	gen     uint64
	stopped bool
}

// keyRunner serializes the calls taken for one key. refs counts taken calls
// that have not finished; the runner is dropped when it reaches zero.
type keyRunner struct {
	mu   sync.Mutex
	last uint64
	refs int
}

type pendingCall struct {
	fn    func()
	timer *time.Timer
	gen   uint64
}

// NewDebouncer creates a debouncer. A non-positive wait uses DefaultDebounce.
func NewDebouncer(wait time.Duration) *Debouncer {
	if wait <= 0 {
		wait = DefaultDebounce
	}
	return &Debouncer{
		wait:    wait,
		pending: make(map[string]*pendingCall),
		runners: make(map[string]*keyRunner),
	}
}

// Schedule arms fn for key, superseding any pending call for key.
// Returns false if the debouncer has been stopped.
func (d *Debouncer) Schedule(key string, fn func()) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return false
	}
	if p, ok := d.pending[key]; ok {
		p.timer.Stop()
	}

	d.gen++
	gen := d.gen
	d.pending[key] = &pendingCall{
		fn:    fn,
		gen:   gen,
		timer: time.AfterFunc(d.wait, func() { d.fire(key, gen) }),
	}
	return true
}

// fire runs the call for key if it is still the one armed with gen. A call
// that was superseded, flushed or cancelled in the meantime is dropped.
func (d *Debouncer) fire(key string, gen uint64) {
	d.mu.Lock()
	p, ok := d.pending[key]
	if !ok || p.gen != gen {
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	r := d.acquireLocked(key)
	d.mu.Unlock()

	d.run(key, r, p)
}

// Flush runs the pending call for key now. Returns false if none was pending.
// If an earlier call for key is still running, Flush waits for it.
func (d *Debouncer) Flush(key string) bool {
	d.mu.Lock()
	p := d.takeLocked(key)
	if p == nil {
		d.mu.Unlock()
		return false
	}
	r := d.acquireLocked(key)
	d.mu.Unlock()

	d.run(key, r, p)
	return true
}

// FlushAll runs every pending call now, in no particular order across keys.
func (d *Debouncer) FlushAll() {
	type taken struct {
		key string
		r   *keyRunner
		p   *pendingCall
	}

	d.mu.Lock()
	calls := make([]taken, 0, len(d.pending))
	for key := range d.pending {
		p := d.takeLocked(key)
		calls = append(calls, taken{key: key, r: d.acquireLocked(key), p: p})
	}
	d.mu.Unlock()

	for _, c := range calls {
		d.run(c.key, c.r, c.p)
	}
}

// Cancel drops the pending call for key. Returns false if none was pending.
func (d *Debouncer) Cancel(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.takeLocked(key) != nil
}

// Pending returns the number of armed calls.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Stop flushes pending calls and makes later Schedule calls fail.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()

	d.FlushAll()
}

func (d *Debouncer) takeLocked(key string) *pendingCall {
	p, ok := d.pending[key]
	if !ok {
		return nil
	}
	p.timer.Stop()
	delete(d.pending, key)
	return p
}

// acquireLocked must be called in the same critical section that took the
// call from pending, so generations reach the runner in take order.
func (d *Debouncer) acquireLocked(key string) *keyRunner {
	r, ok := d.runners[key]
	if !ok {
		r = &keyRunner{}
		d.runners[key] = r
	}
	r.refs++
	return r
}

func (d *Debouncer) run(key string, r *keyRunner, p *pendingCall) {
	defer d.release(key, r)

	r.mu.Lock()
	defer r.mu.Unlock()
	if p.gen <= r.last {
		return
	}
	r.last = p.gen
	p.fn()
}

func (d *Debouncer) release(key string, r *keyRunner) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r.refs--
	if r.refs == 0 && d.runners[key] == r {
		delete(d.runners, key)
	}
}
