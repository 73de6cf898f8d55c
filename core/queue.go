package core

import (
	"sort"
	"sync"
	"time"
)

const (
	queueDefaultCap     = 16
	queueCompactMinCap  = 64
	queueCompactShrink  = 4
)

// delayQueue is the dynamic delay queue of spec component B: an ordered
// sequence of task wrappers, sorted ascending by current delay(), for one
// priority class. It is a plain slice, not a container/heap, because
// reposition (see below) needs mid-sequence removal and reinsertion, which
// a heap's swap-based invariant makes awkward to reason about under the
// callback dance reposition requires.
//
// The queue's own mutex doubles as the lock the dispatcher holds across
// "take, then mark executing" (see take() and markExecuting() in
// dispatcher.loop)
// so that a Recurring task is never observably absent from the queue
// between being taken and being re-appended.
type delayQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	tasks  []*taskWrapper
	clock  *clock
	closed bool
}

func newDelayQueue(c *clock) *delayQueue {
	q := &delayQueue{
		clock: c,
		tasks: make([]*taskWrapper, 0, queueDefaultCap),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Lock and Unlock expose the queue's mutex so a dispatcher can hold it
// across take() and the task's markExecuting() callback atomically.
func (q *delayQueue) Lock()   { q.mu.Lock() }
func (q *delayQueue) Unlock() { q.mu.Unlock() }

// add inserts t in the position implied by its current delay. O(n).
func (q *delayQueue) add(t *taskWrapper) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.addLocked(t)
}

func (q *delayQueue) addLocked(t *taskWrapper) {
	now := q.clock.accurateTime()
	target := t.delayMs(now)
	pos := sort.Search(len(q.tasks), func(i int) bool {
		return q.tasks[i].delayMs(now) > target
	})
	q.tasks = append(q.tasks, nil)
	copy(q.tasks[pos+1:], q.tasks[pos:])
	q.tasks[pos] = t
	q.cond.Broadcast()
}

// addLastLocked is an unconditional tail insert. Callers must already hold
// the queue lock and must guarantee t is not yet eligible to run (a
// Recurring task just marked executing, whose delay now reports +inf).
func (q *delayQueue) addLastLocked(t *taskWrapper) {
	q.tasks = append(q.tasks, t)
}

// reposition removes t from wherever it currently sits and reinserts it at
// the position implied by its new delay. Before reinserting, it invokes
// updater.allowDelayUpdate(), which clears the Recurring task's executing
// flag so the queue reads the true, finite new delay rather than +inf.
// This ordering is what lets a single queue lock acquisition complete the
// whole "task announces new due-time" protocol atomically.
func (q *delayQueue) reposition(t *taskWrapper, updater delayUpdater) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	idx := q.indexOfLocked(t)
	if idx < 0 {
		// Removed concurrently (e.g. by Remove); nothing to reposition.
		return
	}
	q.tasks = append(q.tasks[:idx], q.tasks[idx+1:]...)

	updater.allowDelayUpdate()
	q.addLocked(t)
}

func (q *delayQueue) indexOfLocked(t *taskWrapper) int {
	for i, x := range q.tasks {
		if x == t {
			return i
		}
	}
	return -1
}

// take blocks until the head's delay is <= 0, then removes and returns it.
// Callers must hold the queue lock (see Lock); take releases and reacquires
// it internally while waiting, and returns with it still held, matching
// the dispatcher's "acquire queueLock; task = queue.take(); ..." protocol.
func (q *delayQueue) take() (*taskWrapper, bool) {
	for {
		if q.closed {
			return nil, false
		}

		if len(q.tasks) == 0 {
			q.cond.Wait()
			continue
		}

		now := q.clock.accurateTime()
		head := q.tasks[0]
		delay := head.delayMs(now)
		if delay <= 0 {
			q.tasks = q.tasks[1:]
			q.maybeCompactLocked()
			return head, true
		}

		// Wake ourselves when the head becomes due, unless a mutation
		// (new earlier head, reposition, shutdown) broadcasts first.
		timer := time.AfterFunc(time.Duration(delay)*time.Millisecond, func() {
			q.mu.Lock()
			q.cond.Broadcast()
			q.mu.Unlock()
		})
		q.cond.Wait()
		timer.Stop()
	}
}

func (q *delayQueue) maybeCompactLocked() {
	n := len(q.tasks)
	c := cap(q.tasks)
	if c < queueCompactMinCap {
		return
	}
	if n == 0 {
		q.tasks = make([]*taskWrapper, 0, queueDefaultCap)
		return
	}
	if n*queueCompactShrink >= c {
		return
	}
	newCap := max(max(c/2, queueDefaultCap), n)
	fresh := make([]*taskWrapper, n, newCap)
	copy(fresh, q.tasks)
	q.tasks = fresh
}

// remove cancels and removes t if it is still present. Used by
// Scheduler.Remove, which calls it on the queue the handle's task was
// submitted to; the other priority's queue is not searched.
func (q *delayQueue) remove(t *taskWrapper) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	idx := q.indexOfLocked(t)
	if idx < 0 {
		return false
	}
	t.cancel()
	q.tasks = append(q.tasks[:idx], q.tasks[idx+1:]...)
	return true
}

// clear drops all entries, cancelling each first. Deliberately locks only
// this queue: coupling two queues' locks during a combined clear is the
// defect noted in the design notes, and each priority clears independently.
func (q *delayQueue) clear() {
	q.mu.Lock()
	tasks := q.tasks
	q.tasks = nil
	q.mu.Unlock()

	for _, t := range tasks {
		t.cancel()
	}
}

// shutdown marks the queue closed and wakes any blocked take().
func (q *delayQueue) shutdown() {
	q.mu.Lock()
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()
}

func (q *delayQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}
