package core

import (
	"context"
	"fmt"
	"sync"
)

// Handle identifies a submitted task for later cancellation via
// Scheduler.Remove. It carries no exported fields; equality is by the
// underlying task identity.
type Handle struct {
	task *taskWrapper
}

// Future is returned by SubmitFunc. Unlike Java's lock/wait/notify Future,
// completion is signaled by closing done, which gives every Get call a
// happens-before relationship with the write to result/err for free.
type Future[T any] struct {
	task *taskWrapper
	done chan struct{}

	mu      sync.Mutex
	started bool
	result  T
	err     error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) bind(task *taskWrapper) {
	f.task = task
}

// complete runs fn, recording its result and closing done. Intended to be
// called from inside the taskWrapper's action. A panicking fn is recovered
// here rather than left to the Worker's handler: a Future-bearing task
// reports its panic as a failure result, it never reaches the uncaught
// panic handler the way a plain task's panic does.
func (f *Future[T]) complete(fn func() (T, error)) {
	f.mu.Lock()
	if f.task != nil && f.task.isCanceled() {
		f.mu.Unlock()
		return
	}
	f.started = true
	f.mu.Unlock()

	result, err := f.runRecovered(fn)

	f.mu.Lock()
	f.result = result
	f.err = err
	f.mu.Unlock()

	close(f.done)
}

func (f *Future[T]) runRecovered(fn func() (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			result = zero
			err = fmt.Errorf("priosched: task panicked: %v: %w", r, ErrExecution)
		}
	}()
	return fn()
}

// Cancel prevents the task from running if it has not yet started: it is
// removed from its queue, or, if a dispatcher has already taken it off the
// queue, marked canceled so it is skipped when a worker picks it up.
// Returns false once the task has started or already finished.
func (f *Future[T]) Cancel() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.started || f.task == nil {
		return false
	}
	if !f.task.queue.remove(f.task) {
		f.task.cancel()
	}
	return true
}

// IsDone reports whether the task has finished, successfully or not.
func (f *Future[T]) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Get blocks until the task completes or ctx is done, whichever comes
// first.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.result, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
