package priosched

import "github.com/coaxial-labs/priosched/core"

// Priority is the static priority class of a submitted task.
type Priority = core.Priority

const (
	Low  = core.Low
	High = core.High

	// Default is a submission-time sentinel meaning "use the scheduler's
	// configured default priority" instead of an explicit High or Low.
	Default = core.Default
)

// Handle identifies a submitted task for later cancellation via
// Scheduler.Remove.
type Handle = core.Handle

// Future is returned by SubmitFunc.
type Future[T any] = core.Future[T]

// PoolStats is a point-in-time snapshot returned by Scheduler.Stats.
type PoolStats = core.PoolStats

// Logger, Field, PanicHandler, Metrics, and RejectedTaskHandler are
// re-exported so implementations can be written against this package
// alone.
type (
	Logger              = core.Logger
	Field               = core.Field
	PanicHandler        = core.PanicHandler
	Metrics             = core.Metrics
	RejectedTaskHandler = core.RejectedTaskHandler
	GoroutineFactory    = core.GoroutineFactory
)

var DefaultGoroutineFactory GoroutineFactory = core.DefaultGoroutineFactory

var F = core.F

type (
	DefaultLogger              = core.DefaultLogger
	NoOpLogger                 = core.NoOpLogger
	DefaultPanicHandler        = core.DefaultPanicHandler
	NilMetrics                 = core.NilMetrics
	DefaultRejectedTaskHandler = core.DefaultRejectedTaskHandler
	ZapLogger                  = core.ZapLogger
)

var (
	NewDefaultLogger = core.NewDefaultLogger
	NewNoOpLogger    = core.NewNoOpLogger
	NewZapLogger     = core.NewZapLogger
)

// Sentinel errors.
var (
	ErrState      = core.ErrState
	ErrShutdown   = core.ErrShutdown
	ErrArgument   = core.ErrArgument
	ErrExecution  = core.ErrExecution
	ErrNoCapacity = core.ErrNoCapacity
)

// ArgumentError describes a rejected Option.
type ArgumentError = core.ArgumentError
