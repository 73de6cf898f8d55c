package core

import (
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Runnable is the unit of work a taskWrapper carries.
type Runnable func()

type taskKind int

const (
	oneTime taskKind = iota
	recurring
)

// delayUpdater is implemented by taskWrapper and used by delayQueue.reposition
// to clear the executing flag at exactly the instant the queue is about to
// re-read the task's true delay. See delayQueue.reposition for why this
// callback dance exists instead of a two-phase lock handshake.
type delayUpdater interface {
	allowDelayUpdate()
}

// taskWrapper carries priority, due-time, and cancellation state for one
// submitted unit of work. Immutable fields (priority, kind, action,
// recurringDelayMs) are set once at construction; canceled, executing, and
// runTime are mutated under mu.
type taskWrapper struct {
	id             string
	priority       Priority
	kind           taskKind
	action         Runnable
	recurringDelayMs int64

	queue *delayQueue
	clock *clock

	mu        sync.Mutex
	canceled  bool
	executing bool  // Recurring only: true while dequeued-but-not-yet-rescheduled
	runTime   int64 // absolute monotonic ms; fixed for OneTime, mutated for Recurring
}

func newOneTimeTask(priority Priority, action Runnable, runAt int64, q *delayQueue, c *clock) *taskWrapper {
	return &taskWrapper{
		id:       uuid.NewString(),
		priority: priority,
		kind:     oneTime,
		action:   action,
		queue:    q,
		clock:    c,
		runTime:  runAt,
	}
}

func newRecurringTask(priority Priority, action Runnable, firstRunAt int64, recurringDelay time.Duration, q *delayQueue, c *clock) *taskWrapper {
	return &taskWrapper{
		id:               uuid.NewString(),
		priority:         priority,
		kind:             recurring,
		action:           action,
		recurringDelayMs: recurringDelay.Milliseconds(),
		queue:            q,
		clock:            c,
		runTime:          firstRunAt,
	}
}

// delayMs reports runTime-now in milliseconds. A Recurring task currently
// marked executing reports math.MaxInt64 so it can never again be taken
// from the head of its queue while it awaits rescheduling.
func (t *taskWrapper) delayMs(nowMs int64) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.kind == recurring && t.executing {
		return math.MaxInt64
	}
	return t.runTime - nowMs
}

func (t *taskWrapper) isCanceled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.canceled
}

// cancel sets the canceled flag. Idempotent: the second call is a no-op
// and reports false.
func (t *taskWrapper) cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.canceled {
		return false
	}
	t.canceled = true
	return true
}

// markExecuting is called by the dispatcher, under the owning queue's
// lock, at the moment the task is taken off the queue. A cancelled task is
// left off the queue entirely. A live Recurring task is marked executing
// (so delayMs reports +inf) and immediately re-appended to the tail of the
// same queue, so that remove() can still find it while it runs.
func (t *taskWrapper) markExecuting() {
	t.mu.Lock()
	if t.canceled {
		t.mu.Unlock()
		return
	}
	if t.kind != recurring {
		t.mu.Unlock()
		return
	}
	t.executing = true
	t.mu.Unlock()

	t.queue.addLastLocked(t)
}

// allowDelayUpdate clears the executing flag. Called by delayQueue.reposition
// immediately before it re-reads this task's delay for reinsertion.
func (t *taskWrapper) allowDelayUpdate() {
	t.mu.Lock()
	t.executing = false
	t.mu.Unlock()
}

// run executes the task's action unless cancelled. For a Recurring task, a
// reschedule is performed in a defer so it still happens if action panics,
// mirroring a try/finally: the panic keeps propagating to the Worker's
// recover after reschedule has run.
func (t *taskWrapper) run() {
	if t.isCanceled() {
		return
	}

	if t.kind == recurring {
		defer func() {
			if !t.isCanceled() {
				t.reschedule()
			}
		}()
	}

	t.action()
}

// reschedule computes the next run time and reinserts this task into its
// queue in sorted position. The clock is frozen for the duration so the
// delay this task commits to and the delay the queue later reads for
// sorting cannot disagree.
func (t *taskWrapper) reschedule() {
	t.clock.stopForcingUpdate()
	defer t.clock.resumeForcingUpdate()

	now := t.clock.updateClock()

	t.mu.Lock()
	t.runTime = now + t.recurringDelayMs
	t.mu.Unlock()

	t.queue.reposition(t, t)
}
