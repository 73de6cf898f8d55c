package prometheus

import (
	"errors"
	"fmt"
	"time"

	"github.com/coaxial-labs/priosched/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	DurationBuckets []float64
}

// MetricsExporter adapts core.Metrics to Prometheus collectors.
type MetricsExporter struct {
	taskDurationSeconds *prom.HistogramVec
	taskPanicTotal      *prom.CounterVec
	taskRejectedTotal   *prom.CounterVec
	queueDepth          *prom.GaugeVec
	poolCurrentSize     prom.Gauge
	poolAvailable       prom.Gauge
	workersCreated      prom.Counter
	workersExpired      prom.Counter
}

var _ core.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers Prometheus collectors for core.Metrics.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = "priosched"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = prom.DefBuckets
	}

	durationVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "task_duration_seconds",
		Help:      "Task execution duration in seconds.",
		Buckets:   buckets,
	}, []string{"priority"})
	panicVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_panic_total",
		Help:      "Total number of task panics.",
	}, []string{"priority"})
	rejectedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_rejected_total",
		Help:      "Total number of rejected tasks.",
	}, []string{"priority", "reason"})
	queueDepthVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_depth",
		Help:      "Current queue depth, by priority.",
	}, []string{"priority"})
	poolCurrentSize := prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "pool_current_size",
		Help:      "Current number of live workers.",
	})
	poolAvailable := prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "pool_available_workers",
		Help:      "Current number of idle workers.",
	})
	workersCreated := prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "workers_created_total",
		Help:      "Total number of workers created.",
	})
	workersExpired := prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "workers_expired_total",
		Help:      "Total number of idle workers killed by keep-alive expiration.",
	})

	var err error
	if durationVec, err = registerCollector(reg, durationVec); err != nil {
		return nil, err
	}
	if panicVec, err = registerCollector(reg, panicVec); err != nil {
		return nil, err
	}
	if rejectedVec, err = registerCollector(reg, rejectedVec); err != nil {
		return nil, err
	}
	if queueDepthVec, err = registerCollector(reg, queueDepthVec); err != nil {
		return nil, err
	}
	if poolCurrentSize, err = registerCollector(reg, poolCurrentSize); err != nil {
		return nil, err
	}
	if poolAvailable, err = registerCollector(reg, poolAvailable); err != nil {
		return nil, err
	}
	if workersCreated, err = registerCollector(reg, workersCreated); err != nil {
		return nil, err
	}
	if workersExpired, err = registerCollector(reg, workersExpired); err != nil {
		return nil, err
	}

	return &MetricsExporter{
		taskDurationSeconds: durationVec,
		taskPanicTotal:      panicVec,
		taskRejectedTotal:   rejectedVec,
		queueDepth:          queueDepthVec,
		poolCurrentSize:     poolCurrentSize,
		poolAvailable:       poolAvailable,
		workersCreated:      workersCreated,
		workersExpired:      workersExpired,
	}, nil
}

func (m *MetricsExporter) RecordTaskDuration(priority core.Priority, duration time.Duration) {
	if m == nil {
		return
	}
	m.taskDurationSeconds.WithLabelValues(priority.String()).Observe(duration.Seconds())
}

func (m *MetricsExporter) RecordTaskPanic(priority core.Priority, panicInfo any) {
	if m == nil {
		return
	}
	m.taskPanicTotal.WithLabelValues(priority.String()).Inc()
}

func (m *MetricsExporter) RecordQueueDepth(priority core.Priority, depth int) {
	if m == nil {
		return
	}
	m.queueDepth.WithLabelValues(priority.String()).Set(float64(depth))
}

func (m *MetricsExporter) RecordTaskRejected(priority core.Priority, reason string) {
	if m == nil {
		return
	}
	m.taskRejectedTotal.WithLabelValues(priority.String(), normalizeLabel(reason, "unknown")).Inc()
}

func (m *MetricsExporter) RecordPoolSize(current, available int) {
	if m == nil {
		return
	}
	m.poolCurrentSize.Set(float64(current))
	m.poolAvailable.Set(float64(available))
}

func (m *MetricsExporter) RecordWorkerCreated() {
	if m == nil {
		return
	}
	m.workersCreated.Inc()
}

func (m *MetricsExporter) RecordWorkerExpired() {
	if m == nil {
		return
	}
	m.workersExpired.Inc()
}

func normalizeLabel(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
