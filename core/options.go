package core

import "time"

const (
	DefaultCorePoolSize          = 2
	DefaultMaxPoolSize           = 64
	DefaultKeepAlive             = 60 * time.Second
	DefaultMaxWaitForLowPriority = 500 * time.Millisecond

	// defaultDefaultPriority mirrors the original's DEFAULT_PRIORITY: a
	// submission that asks for the scheduler's default gets High unless
	// WithDefaultPriority says otherwise.
	defaultDefaultPriority = High
)

// Options holds configuration for a Scheduler. Populate it via Option
// functions, not directly.
type Options struct {
	CorePoolSize          int
	MaxPoolSize           int
	KeepAlive             time.Duration
	MaxWaitForLowPriority time.Duration
	AllowCoreTimeout      bool
	DefaultPriority       Priority
	GoroutineFactory      GoroutineFactory

	PanicHandler        PanicHandler
	Metrics             Metrics
	Logger              Logger
	RejectedTaskHandler RejectedTaskHandler
}

// Option configures a Scheduler at construction time.
type Option func(*Options) error

// DefaultOptions returns the baseline configuration New starts from before
// applying caller Options.
func DefaultOptions() Options {
	return Options{
		CorePoolSize:          DefaultCorePoolSize,
		MaxPoolSize:           DefaultMaxPoolSize,
		KeepAlive:             DefaultKeepAlive,
		MaxWaitForLowPriority: DefaultMaxWaitForLowPriority,
		AllowCoreTimeout:      false,
		DefaultPriority:       defaultDefaultPriority,
		GoroutineFactory:      DefaultGoroutineFactory,
		PanicHandler:          &DefaultPanicHandler{},
		Metrics:               &NilMetrics{},
		Logger:                NewNoOpLogger(),
		RejectedTaskHandler:   &DefaultRejectedTaskHandler{},
	}
}

// WithCorePoolSize sets the number of workers kept alive even when idle.
// Must be >= 1: a scheduler with no core workers at all has nothing to
// prestart and nothing Submit can lean on short of growing past core on
// every submission, which defeats the point of a core pool.
func WithCorePoolSize(n int) Option {
	return func(o *Options) error {
		if n < 1 {
			return &ArgumentError{Option: "CorePoolSize", Reason: "must be >= 1"}
		}
		o.CorePoolSize = n
		return nil
	}
}

// WithDefaultPriority sets the Priority a submission resolves to when it
// passes Default instead of an explicit High or Low.
func WithDefaultPriority(p Priority) Option {
	return func(o *Options) error {
		if !p.IsValid() {
			return &ArgumentError{Option: "DefaultPriority", Reason: "must be High or Low"}
		}
		o.DefaultPriority = p
		return nil
	}
}

// WithGoroutineFactory overrides the hook used to start worker and
// dispatcher goroutines, the Go analogue of a thread factory.
func WithGoroutineFactory(f GoroutineFactory) Option {
	return func(o *Options) error {
		if f == nil {
			return &ArgumentError{Option: "GoroutineFactory", Reason: "must not be nil"}
		}
		o.GoroutineFactory = f
		return nil
	}
}

// WithMaxPoolSize sets the upper bound on live workers. Must be >= 1 and
// >= CorePoolSize; the latter is checked at New time since option order
// is not guaranteed.
func WithMaxPoolSize(n int) Option {
	return func(o *Options) error {
		if n < 1 {
			return &ArgumentError{Option: "MaxPoolSize", Reason: "must be >= 1"}
		}
		o.MaxPoolSize = n
		return nil
	}
}

// WithKeepAlive sets how long an idle worker above CorePoolSize survives
// before being killed. Zero does not disable expiration: it means an idle
// worker above core is eligible for expiry almost as soon as it goes idle.
func WithKeepAlive(d time.Duration) Option {
	return func(o *Options) error {
		if d < 0 {
			return &ArgumentError{Option: "KeepAlive", Reason: "must be >= 0"}
		}
		o.KeepAlive = d
		return nil
	}
}

// WithMaxWaitForLowPriority sets how long a Low priority submission waits
// for an existing idle worker before the dispatcher is allowed to grow the
// pool past CorePoolSize on its behalf. Zero means grow immediately once an
// idle worker isn't already available, with no wait first. This bound is
// only consulted while the pool still has room to grow; once the pool is
// already at MaxPoolSize, a Low submission waits unbounded for an existing
// worker, the same as High priority, since growing is no longer possible.
func WithMaxWaitForLowPriority(d time.Duration) Option {
	return func(o *Options) error {
		if d < 0 {
			return &ArgumentError{Option: "MaxWaitForLowPriority", Reason: "must be >= 0"}
		}
		o.MaxWaitForLowPriority = d
		return nil
	}
}

// WithAllowCoreTimeout controls whether idle workers at or below
// CorePoolSize are eligible for keep-alive expiry, the same as workers
// above it. False by default: core workers are kept alive indefinitely
// regardless of KeepAlive, matching a fixed-size core pool's usual
// behavior.
func WithAllowCoreTimeout(allow bool) Option {
	return func(o *Options) error {
		o.AllowCoreTimeout = allow
		return nil
	}
}

// WithPanicHandler overrides the default panic handler.
func WithPanicHandler(h PanicHandler) Option {
	return func(o *Options) error {
		if h == nil {
			return &ArgumentError{Option: "PanicHandler", Reason: "must not be nil"}
		}
		o.PanicHandler = h
		return nil
	}
}

// WithMetrics overrides the default no-op Metrics sink.
func WithMetrics(m Metrics) Option {
	return func(o *Options) error {
		if m == nil {
			return &ArgumentError{Option: "Metrics", Reason: "must not be nil"}
		}
		o.Metrics = m
		return nil
	}
}

// WithLogger overrides the default no-op Logger.
func WithLogger(l Logger) Option {
	return func(o *Options) error {
		if l == nil {
			return &ArgumentError{Option: "Logger", Reason: "must not be nil"}
		}
		o.Logger = l
		return nil
	}
}

// WithRejectedTaskHandler overrides the default rejected-task handler.
func WithRejectedTaskHandler(h RejectedTaskHandler) Option {
	return func(o *Options) error {
		if h == nil {
			return &ArgumentError{Option: "RejectedTaskHandler", Reason: "must not be nil"}
		}
		o.RejectedTaskHandler = h
		return nil
	}
}
