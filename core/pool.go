package core

import (
	"sync"
	"time"
)

// workerPool owns the set of live worker goroutines shared by both priority
// dispatchers. It tracks idle workers in LIFO order (most recently idle at
// the front) so that under light load the same few goroutines keep getting
// reused and the rest expire via keep-alive, matching the spec's "prefer
// reuse over churn" intent.
//
// High priority acquisition never gives up: if the pool is already at
// maxPoolSize and no worker is idle, the caller blocks until one becomes
// available. Low priority acquisition, while the pool has room to grow,
// first waits up to maxWaitForLowPriority for an existing idle worker and
// only then grows the pool; once the pool is at maxPoolSize it waits
// unbounded like High priority.
type workerPool struct {
	mu   sync.Mutex
	cond *sync.Cond

	idle    []*worker // front = most recently idle
	all     map[int]*worker
	nextID  int
	running bool

	corePoolSize            int
	maxPoolSize             int
	keepAlive               time.Duration
	maxWaitForLowPriorityMs int64
	allowCoreTimeout        bool

	panicHandler     PanicHandler
	metrics          Metrics
	goroutineFactory GoroutineFactory

	reaperStop chan struct{}
}

func newWorkerPool(corePoolSize, maxPoolSize int, keepAlive time.Duration, maxWaitForLowPriority time.Duration, allowCoreTimeout bool, panicHandler PanicHandler, metrics Metrics, goroutineFactory GoroutineFactory) *workerPool {
	if goroutineFactory == nil {
		goroutineFactory = DefaultGoroutineFactory
	}
	p := &workerPool{
		all:                     make(map[int]*worker),
		corePoolSize:            corePoolSize,
		maxPoolSize:             maxPoolSize,
		keepAlive:               keepAlive,
		maxWaitForLowPriorityMs: maxWaitForLowPriority.Milliseconds(),
		allowCoreTimeout:        allowCoreTimeout,
		panicHandler:            panicHandler,
		metrics:                 metrics,
		goroutineFactory:        goroutineFactory,
		running:                 true,
		reaperStop:              make(chan struct{}),
	}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// prestartCoreWorkers brings the pool up to corePoolSize immediately,
// rather than waiting for demand. Mirrors a fixed thread pool's eager
// startup behavior while still allowing growth past core under load.
func (p *workerPool) prestartCoreWorkers() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.all) < p.corePoolSize {
		w := p.newWorkerLocked()
		p.idle = append([]*worker{w}, p.idle...)
	}
}

func (p *workerPool) startReaper() {
	go p.reapLoop()
}

func (p *workerPool) reapLoop() {
	ticker := time.NewTicker(p.reapInterval())
	defer ticker.Stop()
	for {
		select {
		case <-p.reaperStop:
			return
		case <-ticker.C:
			p.expireIdleWorkers()
		}
	}
}

func (p *workerPool) reapInterval() time.Duration {
	if p.keepAlive <= 0 || p.keepAlive > time.Second {
		return time.Second
	}
	return p.keepAlive
}

// acquire returns an idle worker for priority. High priority always tries
// an idle worker or immediate growth first, falling back to an unbounded
// wait only once the pool is already at maxPoolSize. Low priority instead
// always waits up to maxWaitForLowPriorityMs for an existing idle worker
// before it is allowed to grow the pool past corePoolSize on its behalf;
// it only skips straight to the unbounded wait when the pool is already
// saturated, since growing is moot in that case. This mirrors
// runHighPriorityTask/runLowPriorityTask/getExistingWorker in the
// original PriorityScheduledExecutor.
func (p *workerPool) acquire(priority Priority) (*worker, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return nil, false
	}

	if priority == High {
		if len(p.all) >= p.maxPoolSize {
			return p.waitForIdleLocked(false, 0)
		}
		if len(p.idle) > 0 {
			return p.popIdleLocked(), true
		}
		return p.newWorkerLocked(), true
	}

	// Low priority.
	if len(p.all) >= p.maxPoolSize {
		return p.waitForIdleLocked(false, 0)
	}

	w, ok := p.waitForIdleLocked(true, time.Duration(p.maxWaitForLowPriorityMs)*time.Millisecond)
	if ok {
		return w, true
	}

	// Wait budget exhausted with nothing idle. Workers may have been
	// created by other acquirers while we waited; re-check headroom.
	if len(p.all) >= p.maxPoolSize {
		return p.waitForIdleLocked(false, 0)
	}
	return p.newWorkerLocked(), true
}

// tryAcquire attempts to obtain a worker for priority without blocking: an
// idle worker or immediate growth, nothing more. It reports false when
// the pool is already saturated and nothing is idle right now, leaving
// the decision of whether to wait instead to the caller (see acquire).
// Used by Scheduler.TrySubmit to fail fast rather than queue work.
func (p *workerPool) tryAcquire(priority Priority) (*worker, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return nil, false
	}
	if len(p.idle) > 0 {
		return p.popIdleLocked(), true
	}
	if len(p.all) < p.maxPoolSize {
		return p.newWorkerLocked(), true
	}
	return nil, false
}

// waitForIdleLocked blocks until an idle worker is available or, if
// bounded, until d elapses. p.mu must be held on entry and is held again
// on return. Mirrors getExistingWorker(maxWaitMs).
func (p *workerPool) waitForIdleLocked(bounded bool, d time.Duration) (*worker, bool) {
	var deadline time.Time
	if bounded {
		deadline = time.Now().Add(d)
	}

	for len(p.idle) == 0 {
		if !p.running {
			return nil, false
		}
		if !bounded {
			p.cond.Wait()
			continue
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, false
		}
		p.waitWithTimeoutLocked(remaining)
	}

	return p.popIdleLocked(), true
}

func (p *workerPool) popIdleLocked() *worker {
	w := p.idle[0]
	p.idle = p.idle[1:]
	return w
}

// waitWithTimeoutLocked blocks on the pool's condition variable for at
// most d, waking itself via a timer if nothing else broadcasts first.
// p.mu must be held on entry and is held again on return.
func (p *workerPool) waitWithTimeoutLocked(d time.Duration) {
	timer := time.AfterFunc(d, func() {
		p.mu.Lock()
		p.cond.Broadcast()
		p.mu.Unlock()
	})
	p.cond.Wait()
	timer.Stop()
}

func (p *workerPool) newWorkerLocked() *worker {
	id := p.nextID
	p.nextID++
	w := newWorker(id, p.panicHandler, p.metrics, p.goroutineFactory, p.release, p.removeExited)
	p.all[id] = w
	w.start()
	if p.metrics != nil {
		p.metrics.RecordWorkerCreated()
	}
	return w
}

// release returns a worker to the idle front of the list and wakes one
// waiter. Called by worker.loop after it finishes a task.
func (p *workerPool) release(w *worker) {
	p.mu.Lock()
	if _, ok := p.all[w.id]; ok {
		p.idle = append([]*worker{w}, p.idle...)
	}
	current, available := len(p.all), len(p.idle)
	p.cond.Signal()
	p.mu.Unlock()

	if p.metrics != nil {
		p.metrics.RecordPoolSize(current, available)
	}
}

func (p *workerPool) removeExited(w *worker) {
	p.mu.Lock()
	delete(p.all, w.id)
	for i, x := range p.idle {
		if x == w {
			p.idle = append(p.idle[:i], p.idle[i+1:]...)
			break
		}
	}
	p.mu.Unlock()
}

// expireIdleWorkers kills idle workers that have exceeded keepAlive,
// scanning from the back of the idle slice (the least recently used). A
// keepAlive of zero is not "never expire" — idleFor(now) reaches it almost
// immediately, so eligible idle workers are killed on the very next reaper
// tick. Workers above corePoolSize are always eligible; workers at or
// below corePoolSize are eligible too when allowCoreTimeout is set,
// mirroring the original's `(currentPoolSize > corePoolSize ||
// allowCorePoolTimeout) && ...` condition.
func (p *workerPool) expireIdleWorkers() {
	p.mu.Lock()
	now := nowMs()
	var toKill []*worker
	for len(p.idle) > 0 && (len(p.all) > p.corePoolSize || p.allowCoreTimeout) {
		tail := p.idle[len(p.idle)-1]
		if tail.idleFor(now) < p.keepAlive {
			break
		}
		p.idle = p.idle[:len(p.idle)-1]
		delete(p.all, tail.id)
		toKill = append(toKill, tail)
	}
	p.mu.Unlock()

	for _, w := range toKill {
		w.kill()
		if p.metrics != nil {
			p.metrics.RecordWorkerExpired()
		}
	}
}

func (p *workerPool) isRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *workerPool) stats() (current, available int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.all), len(p.idle)
}

// setCorePoolSize and setMaxPoolSize support live reconfiguration, same as
// spec's live config setters. Growth is lazy: workers are created on
// demand, not eagerly, except via prestartCoreWorkers. A shrink calls
// expireIdleWorkers opportunistically so it takes effect immediately
// rather than waiting for the next reaper tick.
func (p *workerPool) setCorePoolSize(n int) {
	p.mu.Lock()
	p.corePoolSize = n
	p.mu.Unlock()
	p.expireIdleWorkers()
}

func (p *workerPool) setMaxPoolSize(n int) {
	p.mu.Lock()
	p.maxPoolSize = n
	p.cond.Broadcast()
	p.mu.Unlock()
}

func (p *workerPool) setKeepAlive(d time.Duration) {
	p.mu.Lock()
	p.keepAlive = d
	p.mu.Unlock()
	p.expireIdleWorkers()
}

func (p *workerPool) setMaxWaitForLowPriority(d time.Duration) {
	p.mu.Lock()
	p.maxWaitForLowPriorityMs = d.Milliseconds()
	p.mu.Unlock()
	p.expireIdleWorkers()
}

// setAllowCoreTimeout toggles whether idle workers at or below
// corePoolSize are eligible for keep-alive expiry. Flipping it on expires
// eligible idle core workers immediately rather than on the next tick.
func (p *workerPool) setAllowCoreTimeout(allow bool) {
	p.mu.Lock()
	p.allowCoreTimeout = allow
	p.mu.Unlock()
	p.expireIdleWorkers()
}

// shutdown stops accepting new work, kills every worker, and stops the
// reaper. Blocked acquire calls are woken and return false.
func (p *workerPool) shutdown() {
	p.mu.Lock()
	p.running = false
	workers := make([]*worker, 0, len(p.all))
	for _, w := range p.all {
		workers = append(workers, w)
	}
	p.all = make(map[int]*worker)
	p.idle = nil
	p.cond.Broadcast()
	p.mu.Unlock()

	close(p.reaperStop)
	for _, w := range workers {
		w.kill()
	}
}
