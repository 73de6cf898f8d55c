package core

import (
	"context"
	"fmt"
	"runtime/pprof"
	"time"
)

// =============================================================================
// GoroutineFactory: hook for starting long-lived scheduler goroutines
// =============================================================================

// GoroutineFactory is the Go analogue of a thread factory: a hook invoked
// whenever the scheduler starts a long-lived goroutine (a worker or a
// dispatcher), given a descriptive name and the function to run in it.
// Implementations are responsible for actually starting the goroutine;
// the scheduler never calls fn synchronously.
type GoroutineFactory func(name string, fn func())

// DefaultGoroutineFactory starts fn in a new goroutine labeled with name
// via runtime/pprof, so CPU/goroutine profiles can distinguish worker and
// dispatcher goroutines from each other without any extra dependency.
func DefaultGoroutineFactory(name string, fn func()) {
	go pprof.Do(context.Background(), pprof.Labels("goroutine", name), func(context.Context) {
		fn()
	})
}

// =============================================================================
// PanicHandler: Interface for handling task panics
// =============================================================================

// PanicHandler is called when a task panics during execution on a worker
// goroutine. Implementations should be thread-safe; they may be called
// concurrently from any worker.
type PanicHandler interface {
	// HandlePanic is called when a task panics.
	//
	// workerID identifies which worker goroutine ran the task. It has no
	// meaning beyond this process and exists only to correlate with logs.
	HandlePanic(workerID int, panicInfo any, stackTrace []byte)
}

// DefaultPanicHandler prints panic information to stdout.
type DefaultPanicHandler struct{}

// HandlePanic prints panic information to stdout.
func (h *DefaultPanicHandler) HandlePanic(workerID int, panicInfo any, stackTrace []byte) {
	fmt.Printf("[worker %d] panic: %v\nstack trace:\n%s", workerID, panicInfo, stackTrace)
}

// =============================================================================
// Metrics: Interface for observability and monitoring
// =============================================================================

// Metrics defines the interface for collecting scheduler metrics.
// Implementations can send metrics to monitoring systems (Prometheus,
// StatsD, etc.).
//
// All methods should be non-blocking and fast, since they run on the hot
// path: the dispatcher loop, the worker loop, and the pool manager.
type Metrics interface {
	// RecordTaskDuration records how long a task took to execute.
	RecordTaskDuration(priority Priority, duration time.Duration)

	// RecordTaskPanic records that a task panicked during execution.
	RecordTaskPanic(priority Priority, panicInfo any)

	// RecordQueueDepth records the current depth of one priority's queue.
	// Called by the dispatcher each time it takes a task off that queue,
	// with the depth left behind; adds and removals do not report it.
	RecordQueueDepth(priority Priority, depth int)

	// RecordTaskRejected records that a task was rejected, which only
	// happens after shutdown has begun.
	RecordTaskRejected(priority Priority, reason string)

	// RecordPoolSize records the current live and idle worker counts.
	RecordPoolSize(current, available int)

	// RecordWorkerCreated records that the pool grew by one worker.
	RecordWorkerCreated()

	// RecordWorkerExpired records that an idle worker was killed by
	// keep-alive expiration.
	RecordWorkerExpired()
}

// NilMetrics is a no-op Metrics implementation. It is the default when no
// Metrics implementation is configured.
type NilMetrics struct{}

func (m *NilMetrics) RecordTaskDuration(Priority, time.Duration) {}
func (m *NilMetrics) RecordTaskPanic(Priority, any)               {}
func (m *NilMetrics) RecordQueueDepth(Priority, int)              {}
func (m *NilMetrics) RecordTaskRejected(Priority, string)         {}
func (m *NilMetrics) RecordPoolSize(int, int)                     {}
func (m *NilMetrics) RecordWorkerCreated()                        {}
func (m *NilMetrics) RecordWorkerExpired()                        {}

// =============================================================================
// RejectedTaskHandler: Interface for handling rejected tasks
// =============================================================================

// RejectedTaskHandler is called when a task is rejected by the scheduler.
// This only happens once shutdown has begun; the scheduler has no other
// backpressure mechanism (queues are unbounded, per spec).
type RejectedTaskHandler interface {
	HandleRejectedTask(priority Priority, reason string)
}

// DefaultRejectedTaskHandler logs rejected tasks to stdout.
type DefaultRejectedTaskHandler struct{}

// HandleRejectedTask logs the rejected task.
func (h *DefaultRejectedTaskHandler) HandleRejectedTask(priority Priority, reason string) {
	fmt.Printf("[priosched] task rejected (priority=%s): %s\n", priority, reason)
}
