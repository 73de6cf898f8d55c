package core

import "sync/atomic"

// dispatcher drains one priority's queue and hands each due task to a
// worker. There are exactly two dispatchers per Scheduler, one per
// Priority, so a flood of Low priority work can never delay a High
// priority task from being taken off its own queue. Its goroutine is
// lazily started on first enqueue rather than at Scheduler construction,
// so a Scheduler nothing is ever submitted to never spins up either
// dispatcher goroutine.
type dispatcher struct {
	priority         Priority
	queue            *delayQueue
	pool             *workerPool
	logger           Logger
	metrics          Metrics
	goroutineFactory GoroutineFactory

	started atomic.Bool
}

func newDispatcher(priority Priority, queue *delayQueue, pool *workerPool, logger Logger, metrics Metrics, goroutineFactory GoroutineFactory) *dispatcher {
	if goroutineFactory == nil {
		goroutineFactory = DefaultGoroutineFactory
	}
	return &dispatcher{
		priority:         priority,
		queue:            queue,
		pool:             pool,
		logger:           logger,
		metrics:          metrics,
		goroutineFactory: goroutineFactory,
	}
}

// maybeStart lazily starts this dispatcher's goroutine. The outer
// lock-free check is the fast path once started is true (it only ever
// flips false->true, so a stale read just means one extra lock
// acquisition, never a missed start); the queue-lock-guarded recheck is
// what actually prevents two submitters racing to start the goroutine
// twice. Mirrors TaskConsumer.maybeStart in the original scheduler.
func (d *dispatcher) maybeStart() {
	if d.started.Load() {
		return
	}

	d.queue.Lock()
	defer d.queue.Unlock()
	if d.started.Load() {
		return
	}
	d.started.Store(true)
	d.goroutineFactory(d.name(), d.loop)
}

func (d *dispatcher) name() string {
	return "priosched-dispatcher-" + d.priority.String()
}

func (d *dispatcher) loop() {
	for {
		d.queue.Lock()
		task, ok := d.queue.take()
		if !ok {
			d.queue.Unlock()
			return
		}
		// markExecuting must happen before the queue lock is released: a
		// Recurring task's remove() scan would otherwise see a window
		// where the task is neither queued nor marked executing.
		task.markExecuting()
		qlen := len(d.queue.tasks)
		d.queue.Unlock()

		if d.metrics != nil {
			d.metrics.RecordQueueDepth(d.priority, qlen)
		}

		w := d.acquireWorker()
		if w == nil {
			// Pool is shutting down; the task is dropped. A Recurring task
			// re-appended itself to the tail via markExecuting and will be
			// garbage once the queue itself is torn down.
			return
		}
		w.assign(task)
	}
}

// acquireWorker blocks until the pool hands out a worker, or returns nil
// once the pool has shut down. A single pool.acquire call already covers
// Low priority's bounded wait and the growth that follows it; acquire only
// reports false when the pool is no longer running.
func (d *dispatcher) acquireWorker() *worker {
	for {
		w, ok := d.pool.acquire(d.priority)
		if ok {
			return w
		}
		if !d.pool.isRunning() {
			return nil
		}
		if d.logger != nil {
			d.logger.Debug("waiting for worker capacity", F("priority", d.priority.String()))
		}
	}
}
