package metrics

import (
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusSink implements Sink using the Prometheus client library.
// All methods are non-blocking and fire-and-forget.
// Registration errors are logged but never propagated.
type PrometheusSink struct {
	// Watch pipeline metrics
	changesTotal           *prometheus.CounterVec
	triggersEmittedTotal   prometheus.Counter
	triggersCoalescedTotal prometheus.Counter

	// Coordinator metrics
	runsStartedTotal    prometheus.Counter
	runsCompletedTotal  *prometheus.CounterVec
	runsSupersededTotal prometheus.Counter
	runDuration         prometheus.Histogram

	// EventBus metrics
	bufferSize      prometheus.Gauge
	bufferCapacity  prometheus.Gauge
	emitErrorsTotal prometheus.Counter

	// Notifier metrics
	notificationsSentTotal  *prometheus.CounterVec
	notificationErrorsTotal prometheus.Counter
}

// NewPrometheusSink creates a new Prometheus metrics sink.
// If registration fails, it logs a warning and returns a functional sink.
func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	s := &PrometheusSink{}
	s.initWatchMetrics(reg)
	s.initCoordinatorMetrics(reg)
	s.initEventBusMetrics(reg)
	s.initNotifierMetrics(reg)
	return s
}

func (s *PrometheusSink) initWatchMetrics(reg prometheus.Registerer) {
	s.changesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cargotestify_watch_changes_total",
		Help: "Total filesystem changes observed, by relevance.",
	}, []string{"relevant"})
	s.triggersEmittedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cargotestify_debounce_triggers_emitted_total",
		Help: "Total triggers emitted after a quiet period.",
	})
	s.triggersCoalescedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cargotestify_debounce_triggers_coalesced_total",
		Help: "Total triggers absorbed into an already-pending trigger.",
	})

	s.register(reg, s.changesTotal, "cargotestify_watch_changes_total")
	s.register(reg, s.triggersEmittedTotal, "cargotestify_debounce_triggers_emitted_total")
	s.register(reg, s.triggersCoalescedTotal, "cargotestify_debounce_triggers_coalesced_total")
}

func (s *PrometheusSink) initCoordinatorMetrics(reg prometheus.Registerer) {
	s.runsStartedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cargotestify_runs_started_total",
		Help: "Total test runs started.",
	})
	s.runsCompletedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cargotestify_runs_completed_total",
		Help: "Total delivered run outcomes, by outcome kind.",
	}, []string{"outcome"})
	s.runsSupersededTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cargotestify_runs_superseded_total",
		Help: "Total runs discarded because a newer trigger arrived mid-run.",
	})
	s.runDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cargotestify_run_duration_seconds",
		Help:    "Duration of completed test runs in seconds.",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	})

	s.register(reg, s.runsStartedTotal, "cargotestify_runs_started_total")
	s.register(reg, s.runsCompletedTotal, "cargotestify_runs_completed_total")
	s.register(reg, s.runsSupersededTotal, "cargotestify_runs_superseded_total")
	s.register(reg, s.runDuration, "cargotestify_run_duration_seconds")
}

func (s *PrometheusSink) initEventBusMetrics(reg prometheus.Registerer) {
	s.bufferSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cargotestify_eventbus_buffer_size",
		Help: "Current number of change events in the event bus buffer.",
	})
	s.bufferCapacity = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cargotestify_eventbus_buffer_capacity",
		Help: "Configured capacity of the event bus buffer.",
	})
	s.emitErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cargotestify_eventbus_emit_errors_total",
		Help: "Total number of emit errors (buffer full).",
	})

	s.register(reg, s.bufferSize, "cargotestify_eventbus_buffer_size")
	s.register(reg, s.bufferCapacity, "cargotestify_eventbus_buffer_capacity")
	s.register(reg, s.emitErrorsTotal, "cargotestify_eventbus_emit_errors_total")
}

func (s *PrometheusSink) initNotifierMetrics(reg prometheus.Registerer) {
	s.notificationsSentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cargotestify_notifications_sent_total",
		Help: "Total notifications delivered, by backend.",
	}, []string{"backend"})
	s.notificationErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cargotestify_notification_errors_total",
		Help: "Total notification delivery failures.",
	})

	s.register(reg, s.notificationsSentTotal, "cargotestify_notifications_sent_total")
	s.register(reg, s.notificationErrorsTotal, "cargotestify_notification_errors_total")
}

// register attempts to register a collector, logging any errors without propagating them.
func (s *PrometheusSink) register(reg prometheus.Registerer, c prometheus.Collector, name string) {
	if err := reg.Register(c); err != nil {
		log.Printf("metrics: failed to register %s: %v", name, err)
	}
}

// Watch pipeline metrics implementation

func (s *PrometheusSink) ChangeObserved(relevant bool) {
	label := "false"
	if relevant {
		label = "true"
	}
	s.changesTotal.WithLabelValues(label).Inc()
}

func (s *PrometheusSink) TriggerEmitted() {
	s.triggersEmittedTotal.Inc()
}

func (s *PrometheusSink) TriggerCoalesced() {
	s.triggersCoalescedTotal.Inc()
}

// Coordinator metrics implementation

func (s *PrometheusSink) RunStarted() {
	s.runsStartedTotal.Inc()
}

func (s *PrometheusSink) RunCompleted(outcome string, duration time.Duration) {
	s.runsCompletedTotal.WithLabelValues(outcome).Inc()
	s.runDuration.Observe(duration.Seconds())
}

func (s *PrometheusSink) RunSuperseded() {
	s.runsSupersededTotal.Inc()
}

// EventBus metrics implementation

func (s *PrometheusSink) BufferSizeUpdate(size int) {
	s.bufferSize.Set(float64(size))
}

func (s *PrometheusSink) BufferCapacitySet(capacity int) {
	s.bufferCapacity.Set(float64(capacity))
}

func (s *PrometheusSink) EmitError() {
	s.emitErrorsTotal.Inc()
}

// Notifier metrics implementation

func (s *PrometheusSink) NotificationSent(backend string) {
	s.notificationsSentTotal.WithLabelValues(backend).Inc()
}

func (s *PrometheusSink) NotificationError() {
	s.notificationErrorsTotal.Inc()
}
