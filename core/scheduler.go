package core

import (
	"sync/atomic"
	"time"
)

// Scheduler is a dynamically sized, two-priority task scheduler: High and
// Low priority tasks each have their own delay queue and dispatcher
// goroutine, but share one worker pool. A High submission never waits
// behind Low priority work for a worker; a Low submission waits up to
// MaxWaitForLowPriority before the dispatcher is allowed to grow the pool
// past CorePoolSize on its behalf.
type Scheduler struct {
	opts  Options
	clock *clock

	highQueue *delayQueue
	lowQueue  *delayQueue
	pool      *workerPool

	highDispatcher *dispatcher
	lowDispatcher  *dispatcher

	shutdownFlag atomic.Bool
}

// New builds and starts a Scheduler. The returned Scheduler's core workers
// are prestarted immediately; each priority's dispatcher goroutine is
// started lazily on that priority's first submission, not here.
func New(opts ...Option) (*Scheduler, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, err
		}
	}
	if o.MaxPoolSize < o.CorePoolSize {
		return nil, &ArgumentError{Option: "MaxPoolSize", Reason: "must be >= CorePoolSize"}
	}

	c := newClock()
	s := &Scheduler{
		opts:      o,
		clock:     c,
		highQueue: newDelayQueue(c),
		lowQueue:  newDelayQueue(c),
	}
	s.pool = newWorkerPool(o.CorePoolSize, o.MaxPoolSize, o.KeepAlive, o.MaxWaitForLowPriority, o.AllowCoreTimeout, o.PanicHandler, o.Metrics, o.GoroutineFactory)
	s.pool.prestartCoreWorkers()
	s.pool.startReaper()

	// Dispatcher goroutines are lazily started on first enqueue (see
	// dispatcher.maybeStart), not here.
	s.highDispatcher = newDispatcher(High, s.highQueue, s.pool, o.Logger, o.Metrics, o.GoroutineFactory)
	s.lowDispatcher = newDispatcher(Low, s.lowQueue, s.pool, o.Logger, o.Metrics, o.GoroutineFactory)

	o.Logger.Info("scheduler started",
		F("corePoolSize", o.CorePoolSize),
		F("maxPoolSize", o.MaxPoolSize),
	)

	return s, nil
}

func (s *Scheduler) queueFor(p Priority) *delayQueue {
	if p == High {
		return s.highQueue
	}
	return s.lowQueue
}

// resolvePriority substitutes the scheduler's configured DefaultPriority
// for the Default sentinel, leaving an explicit High or Low untouched.
func (s *Scheduler) resolvePriority(p Priority) Priority {
	if p == Default {
		return s.opts.DefaultPriority
	}
	return p
}

// DefaultPriority reports the Priority a submission resolves to when it
// passes Default instead of an explicit High or Low.
func (s *Scheduler) DefaultPriority() Priority {
	return s.opts.DefaultPriority
}

// KeepAlive reports how long an idle worker above CorePoolSize (or, with
// AllowCoreTimeout, any idle worker) survives before being killed.
func (s *Scheduler) KeepAlive() time.Duration {
	return s.opts.KeepAlive
}

// MaxWaitForLowPriority reports how long a Low priority submission waits
// for an existing idle worker before the pool is allowed to grow past
// CorePoolSize on its behalf.
func (s *Scheduler) MaxWaitForLowPriority() time.Duration {
	return s.opts.MaxWaitForLowPriority
}

// Submit runs fn as soon as a worker is available for p. Pass Default to
// use the scheduler's configured default priority.
func (s *Scheduler) Submit(p Priority, fn func()) (Handle, error) {
	return s.SubmitDelayed(p, fn, 0)
}

// SubmitDelayed runs fn once, no earlier than delay from now. Pass Default
// to use the scheduler's configured default priority.
func (s *Scheduler) SubmitDelayed(p Priority, fn func(), delay time.Duration) (Handle, error) {
	p = s.resolvePriority(p)
	if s.shutdownFlag.Load() {
		s.opts.RejectedTaskHandler.HandleRejectedTask(p, "scheduler is shut down")
		return Handle{}, ErrShutdown
	}
	q := s.queueFor(p)
	runAt := s.clock.accurateTime() + delay.Milliseconds()
	t := newOneTimeTask(p, fn, runAt, q, s.clock)
	q.add(t)
	s.queueDispatcher(p).maybeStart()
	return Handle{task: t}, nil
}

// TrySubmit behaves like Submit but never waits for worker capacity: if no
// worker is immediately available (an idle one, or room to grow), it
// returns ErrNoCapacity instead of queuing fn for later. Unlike Submit, fn
// runs directly on the acquired worker rather than through a priority
// queue, so there is no Handle-based cancellation window.
func (s *Scheduler) TrySubmit(p Priority, fn func()) (Handle, error) {
	p = s.resolvePriority(p)
	if s.shutdownFlag.Load() {
		s.opts.RejectedTaskHandler.HandleRejectedTask(p, "scheduler is shut down")
		return Handle{}, ErrShutdown
	}
	w, ok := s.pool.tryAcquire(p)
	if !ok {
		return Handle{}, ErrNoCapacity
	}
	q := s.queueFor(p)
	t := newOneTimeTask(p, fn, s.clock.accurateTime(), q, s.clock)
	w.assign(t)
	return Handle{task: t}, nil
}

// SubmitRecurring runs fn repeatedly, first after initialDelay and then
// every interval measured from the end of the prior run. Pass Default to
// use the scheduler's configured default priority.
func (s *Scheduler) SubmitRecurring(p Priority, fn func(), initialDelay, interval time.Duration) (Handle, error) {
	p = s.resolvePriority(p)
	if s.shutdownFlag.Load() {
		s.opts.RejectedTaskHandler.HandleRejectedTask(p, "scheduler is shut down")
		return Handle{}, ErrShutdown
	}
	if interval <= 0 {
		return Handle{}, &ArgumentError{Option: "interval", Reason: "must be > 0"}
	}
	q := s.queueFor(p)
	firstRunAt := s.clock.accurateTime() + initialDelay.Milliseconds()
	t := newRecurringTask(p, fn, firstRunAt, interval, q, s.clock)
	q.add(t)
	s.queueDispatcher(p).maybeStart()
	return Handle{task: t}, nil
}

// SubmitFunc runs fn once and returns a Future for its result. It is a
// package-level function rather than a method because Go methods cannot
// carry their own type parameters. Pass Default to use the scheduler's
// configured default priority.
func SubmitFunc[T any](s *Scheduler, p Priority, fn func() (T, error)) (*Future[T], error) {
	p = s.resolvePriority(p)
	if s.shutdownFlag.Load() {
		s.opts.RejectedTaskHandler.HandleRejectedTask(p, "scheduler is shut down")
		return nil, ErrShutdown
	}
	f := newFuture[T]()
	q := s.queueFor(p)
	runAt := s.clock.accurateTime()
	t := newOneTimeTask(p, func() { f.complete(fn) }, runAt, q, s.clock)
	f.bind(t)
	q.add(t)
	s.queueDispatcher(p).maybeStart()
	return f, nil
}

func (s *Scheduler) queueDispatcher(p Priority) *dispatcher {
	if p == High {
		return s.highDispatcher
	}
	return s.lowDispatcher
}

// Remove cancels a previously submitted task and drops it from its queue if
// it is still queued. A Recurring task stays queued between runs and while
// running, so it can be removed at any point; a one-time task can no longer
// be removed once a dispatcher has taken it off its queue. Returns false if
// the task is no longer queued (taken, finished, or already removed).
func (s *Scheduler) Remove(h Handle) bool {
	if h.task == nil {
		return false
	}
	return h.task.queue.remove(h.task)
}

// Stats returns a point-in-time snapshot of the pool and queues.
func (s *Scheduler) Stats() PoolStats {
	current, available := s.pool.stats()
	return PoolStats{
		CurrentPoolSize:       current,
		AvailableWorkers:      available,
		CorePoolSize:          s.opts.CorePoolSize,
		MaxPoolSize:           s.opts.MaxPoolSize,
		KeepAlive:             s.opts.KeepAlive,
		MaxWaitForLowPriority: s.opts.MaxWaitForLowPriority,
		HighQueued:            s.highQueue.len(),
		LowQueued:             s.lowQueue.len(),
		Running:               !s.shutdownFlag.Load(),
	}
}

// SetCorePoolSize, SetMaxPoolSize, SetKeepAlive, and SetMaxWaitForLowPriority
// reconfigure a running Scheduler without restarting it. SetCorePoolSize
// and SetMaxPoolSize each reject a value that would leave MaxPoolSize <
// CorePoolSize, the same cross-field invariant New itself enforces
// (PriorityScheduledExecutor.setCorePoolSize/setMaxPoolSize throw
// IllegalArgumentException for the same violation).
func (s *Scheduler) SetCorePoolSize(n int) error {
	if n > s.opts.MaxPoolSize {
		return &ArgumentError{Option: "CorePoolSize", Reason: "must be <= MaxPoolSize"}
	}
	s.opts.CorePoolSize = n
	s.pool.setCorePoolSize(n)
	return nil
}

func (s *Scheduler) SetMaxPoolSize(n int) error {
	if n < s.opts.CorePoolSize {
		return &ArgumentError{Option: "MaxPoolSize", Reason: "must be >= CorePoolSize"}
	}
	s.opts.MaxPoolSize = n
	s.pool.setMaxPoolSize(n)
	return nil
}

func (s *Scheduler) SetKeepAlive(d time.Duration) {
	s.opts.KeepAlive = d
	s.pool.setKeepAlive(d)
}

func (s *Scheduler) SetMaxWaitForLowPriority(d time.Duration) {
	s.opts.MaxWaitForLowPriority = d
	s.pool.setMaxWaitForLowPriority(d)
}

// SetAllowCoreTimeout toggles whether idle workers at or below
// CorePoolSize are eligible for keep-alive expiry.
func (s *Scheduler) SetAllowCoreTimeout(allow bool) {
	s.opts.AllowCoreTimeout = allow
	s.pool.setAllowCoreTimeout(allow)
}

// Clear drops every not-yet-running task from both queues, cancelling
// each. Each queue is cleared under its own lock independently; the two
// operations are not atomic with respect to each other.
func (s *Scheduler) Clear() {
	s.highQueue.clear()
	s.lowQueue.clear()
}

// Shutdown stops accepting new submissions, cancels and drops every queued
// task, lets both dispatcher goroutines exit, and kills every worker. It
// does not wait for in-flight task executions to finish; callers that need
// that should coordinate via their own Future or WaitGroup.
func (s *Scheduler) Shutdown() {
	if !s.shutdownFlag.CompareAndSwap(false, true) {
		return
	}
	s.highQueue.shutdown()
	s.lowQueue.shutdown()
	s.Clear()
	s.pool.shutdown()
	s.opts.Logger.Info("scheduler shut down")
}

func (s *Scheduler) IsShutdown() bool {
	return s.shutdownFlag.Load()
}
