package core

import "time"

// PoolStats represents a point-in-time snapshot of the worker pool and the
// two priority queues feeding it. Returned by Scheduler.Stats.
type PoolStats struct {
	CurrentPoolSize       int
	AvailableWorkers      int
	CorePoolSize          int
	MaxPoolSize           int
	KeepAlive             time.Duration
	MaxWaitForLowPriority time.Duration
	HighQueued            int
	LowQueued             int
	Running               bool
}
