// Package priosched is a dynamically sized, two-priority task scheduler.
//
// High and Low priority tasks each have their own delay queue and
// dispatcher goroutine, but share one worker pool bounded by a core and a
// max size. A High priority submission never waits behind Low priority
// work for a worker; a Low priority submission waits up to a configurable
// bound for an existing idle worker before the pool is allowed to grow
// past its core size on its behalf.
//
// # Quick start
//
//	s, err := priosched.New(
//		priosched.WithCorePoolSize(4),
//		priosched.WithMaxPoolSize(32),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer s.Shutdown()
//
//	s.Submit(priosched.High, func() {
//		// latency-sensitive work
//	})
//
//	s.SubmitRecurring(priosched.Low, func() {
//		// background housekeeping
//	}, 0, 30*time.Second)
//
// Pass priosched.Default instead of an explicit High or Low to use the
// scheduler's configured default priority (see WithDefaultPriority).
// Each priority's dispatcher goroutine starts lazily on that priority's
// first submission rather than at New.
//
// # Results
//
// Use SubmitFunc to get a Future back for a task that produces a value:
//
//	f, err := priosched.SubmitFunc(s, priosched.High, func() (int, error) {
//		return compute()
//	})
//	v, err := f.Get(ctx)
//
// # Observability
//
// A Scheduler accepts a Logger, a Metrics sink, a PanicHandler, and a
// RejectedTaskHandler via Options. See the observability/prometheus
// subpackage for a ready-made Metrics implementation backed by
// github.com/prometheus/client_golang.
package priosched
