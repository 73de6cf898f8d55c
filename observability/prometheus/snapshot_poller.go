package prometheus

import (
	"context"
	"sync"
	"time"

	"github.com/coaxial-labs/priosched/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// SchedulerSnapshotProvider provides a current Stats() snapshot. *core.Scheduler
// satisfies this directly.
type SchedulerSnapshotProvider interface {
	Stats() core.PoolStats
}

// SnapshotPoller periodically exports one or more schedulers' Stats()
// snapshots into Prometheus gauges. Unlike MetricsExporter, which is wired
// into the hot path via core.Metrics, this is a pull-style complement: it
// owns its own ticker and reads Stats() on each tick, so it imposes no
// overhead on task dispatch.
type SnapshotPoller struct {
	interval time.Duration

	mu         sync.RWMutex
	schedulers map[string]SchedulerSnapshotProvider

	poolCurrentSize *prom.GaugeVec
	poolAvailable   *prom.GaugeVec
	poolCoreSize    *prom.GaugeVec
	poolMaxSize     *prom.GaugeVec
	highQueued      *prom.GaugeVec
	lowQueued       *prom.GaugeVec
	running         *prom.GaugeVec

	stateMu sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSnapshotPoller creates a snapshot poller and registers its collectors.
func NewSnapshotPoller(reg prom.Registerer, interval time.Duration) (*SnapshotPoller, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	gauge := func(name, help string) *prom.GaugeVec {
		return prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "priosched",
			Name:      name,
			Help:      help,
		}, []string{"scheduler"})
	}

	poolCurrentSize := gauge("snapshot_pool_current_size", "Current number of live workers, by scheduler.")
	poolAvailable := gauge("snapshot_pool_available_workers", "Current number of idle workers, by scheduler.")
	poolCoreSize := gauge("snapshot_pool_core_size", "Configured core pool size, by scheduler.")
	poolMaxSize := gauge("snapshot_pool_max_size", "Configured max pool size, by scheduler.")
	highQueued := gauge("snapshot_high_queue_depth", "High priority queue depth, by scheduler.")
	lowQueued := gauge("snapshot_low_queue_depth", "Low priority queue depth, by scheduler.")
	running := gauge("snapshot_running", "Scheduler running state (1=running, 0=shut down).")

	var err error
	if poolCurrentSize, err = registerCollector(reg, poolCurrentSize); err != nil {
		return nil, err
	}
	if poolAvailable, err = registerCollector(reg, poolAvailable); err != nil {
		return nil, err
	}
	if poolCoreSize, err = registerCollector(reg, poolCoreSize); err != nil {
		return nil, err
	}
	if poolMaxSize, err = registerCollector(reg, poolMaxSize); err != nil {
		return nil, err
	}
	if highQueued, err = registerCollector(reg, highQueued); err != nil {
		return nil, err
	}
	if lowQueued, err = registerCollector(reg, lowQueued); err != nil {
		return nil, err
	}
	if running, err = registerCollector(reg, running); err != nil {
		return nil, err
	}

	return &SnapshotPoller{
		interval:        interval,
		schedulers:      make(map[string]SchedulerSnapshotProvider),
		poolCurrentSize: poolCurrentSize,
		poolAvailable:   poolAvailable,
		poolCoreSize:    poolCoreSize,
		poolMaxSize:     poolMaxSize,
		highQueued:      highQueued,
		lowQueued:       lowQueued,
		running:         running,
	}, nil
}

// AddScheduler adds or replaces a named scheduler to poll.
func (p *SnapshotPoller) AddScheduler(name string, provider SchedulerSnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "default")
	p.mu.Lock()
	p.schedulers[name] = provider
	p.mu.Unlock()
}

// Start begins periodic polling; repeated calls are no-ops.
func (p *SnapshotPoller) Start(ctx context.Context) {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if p.started {
		p.stateMu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.started = true
	p.stateMu.Unlock()

	go p.loop(pollCtx)
}

// Stop stops periodic polling; repeated calls are safe.
func (p *SnapshotPoller) Stop() {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if !p.started {
		p.stateMu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.stateMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	p.stateMu.Lock()
	p.started = false
	p.cancel = nil
	p.done = nil
	p.stateMu.Unlock()
}

func (p *SnapshotPoller) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.collectOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.collectOnce()
		}
	}
}

func (p *SnapshotPoller) collectOnce() {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for name, provider := range p.schedulers {
		stats := provider.Stats()
		p.poolCurrentSize.WithLabelValues(name).Set(float64(stats.CurrentPoolSize))
		p.poolAvailable.WithLabelValues(name).Set(float64(stats.AvailableWorkers))
		p.poolCoreSize.WithLabelValues(name).Set(float64(stats.CorePoolSize))
		p.poolMaxSize.WithLabelValues(name).Set(float64(stats.MaxPoolSize))
		p.highQueued.WithLabelValues(name).Set(float64(stats.HighQueued))
		p.lowQueued.WithLabelValues(name).Set(float64(stats.LowQueued))
		if stats.Running {
			p.running.WithLabelValues(name).Set(1)
		} else {
			p.running.WithLabelValues(name).Set(0)
		}
	}
}
