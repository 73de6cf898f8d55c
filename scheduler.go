package priosched

import "github.com/coaxial-labs/priosched/core"

// Scheduler is a dynamically sized, two-priority task scheduler. See core.Scheduler.
type Scheduler = core.Scheduler

// New builds and starts a Scheduler.
func New(opts ...Option) (*Scheduler, error) {
	return core.New(opts...)
}

// SubmitFunc runs fn once on s and returns a Future for its result.
func SubmitFunc[T any](s *Scheduler, p Priority, fn func() (T, error)) (*Future[T], error) {
	return core.SubmitFunc(s, p, fn)
}
