package priosched

import "github.com/coaxial-labs/priosched/core"

// Option configures a Scheduler at construction time.
type Option = core.Option

var (
	WithCorePoolSize          = core.WithCorePoolSize
	WithMaxPoolSize           = core.WithMaxPoolSize
	WithKeepAlive             = core.WithKeepAlive
	WithMaxWaitForLowPriority = core.WithMaxWaitForLowPriority
	WithAllowCoreTimeout      = core.WithAllowCoreTimeout
	WithDefaultPriority       = core.WithDefaultPriority
	WithGoroutineFactory      = core.WithGoroutineFactory
	WithPanicHandler          = core.WithPanicHandler
	WithMetrics               = core.WithMetrics
	WithLogger                = core.WithLogger
	WithRejectedTaskHandler   = core.WithRejectedTaskHandler
)
