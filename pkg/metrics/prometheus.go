package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Arbitration
	candidates     *prometheus.CounterVec
	outcomes       *prometheus.CounterVec
	pending        prometheus.Counter
	staleEvents    prometheus.Counter
	notices        *prometheus.CounterVec
	modeSwitches   *prometheus.CounterVec
	currentMode    *prometheus.GaugeVec
	presentCount   prometheus.Gauge
	gatewayCalls   *prometheus.CounterVec
	gatewayLatency *prometheus.HistogramVec

	// Inbox queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Check-in service
	checkIns          *prometheus.CounterVec
	storeLatency      *prometheus.HistogramVec
	registrations     prometheus.Gauge
	errorsByComponent *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // shared metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "turnstile",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
		Buckets:     m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.candidates = m.counterVec("candidates_total", "Candidates evaluated by the dedup gate", "source", "decision")
	m.outcomes = m.counterVec("outcomes_total", "Outcomes shown to the operator", "status")
	m.pending = m.counter("pending_replacements_total", "Candidates parked in the pending replacement slot")
	m.staleEvents = m.counter("stale_events_total", "Channel events dropped after a mode switch")
	m.notices = m.counterVec("notices_total", "Non-fatal notices surfaced to the operator", "kind")
	m.modeSwitches = m.counterVec("mode_switches_total", "Input mode switches", "mode")
	m.currentMode = promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "mode",
		Help:        "1 for the live input mode, 0 otherwise",
		ConstLabels: m.constLabels,
	}, []string{"mode"})
	m.presentCount = m.gauge("present_count", "Attendees checked in, as last polled")
	m.gatewayCalls = m.counterVec("gateway_calls_total", "Check-in gateway calls", "endpoint", "result")
	m.gatewayLatency = m.histogramVec("gateway_latency_milliseconds", "Check-in gateway call latency in milliseconds", "endpoint")

	m.queueSize = m.gauge("queue_size", "Current size of the inbox queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum inbox queue capacity")
	m.queueEnqueueRate = m.counter("queue_enqueue_total", "Total number of events enqueued")
	m.queueDequeueRate = m.counter("queue_dequeue_total", "Total number of events dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Total number of rejected enqueues")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds",
		"endpoint", "method", "status_code")

	m.checkIns = m.counterVec("checkins_total", "Check-in requests by resolved status", "status")
	m.storeLatency = m.histogramVec("store_latency_milliseconds", "Attendance store operation latency in milliseconds", "op")
	m.registrations = m.gauge("registrations", "Registered attendees loaded in the store")
	m.errorsByComponent = m.counterVec("errors_by_component_total", "Total number of errors by component",
		"component", "error_type")
}

// RecordCandidate counts one gate evaluation.
func RecordCandidate(source, decision string) {
	globalManager.candidates.WithLabelValues(source, decision).Inc()
}

// RecordOutcome counts one outcome shown.
func RecordOutcome(status string) {
	globalManager.outcomes.WithLabelValues(status).Inc()
}

// RecordPendingReplacement counts a candidate parked while another is in flight.
func RecordPendingReplacement() {
	globalManager.pending.Inc()
}

// RecordStaleEvent counts an event discarded because its activation ended.
func RecordStaleEvent() {
	globalManager.staleEvents.Inc()
}

// RecordNotice counts a notice by kind.
func RecordNotice(kind string) {
	globalManager.notices.WithLabelValues(kind).Inc()
}

// RecordModeSwitch counts a switch and marks mode as the live one.
func RecordModeSwitch(mode string, all ...string) {
	globalManager.modeSwitches.WithLabelValues(mode).Inc()
	for _, other := range all {
		globalManager.currentMode.WithLabelValues(other).Set(0)
	}
	globalManager.currentMode.WithLabelValues(mode).Set(1)
}

// UpdatePresentCount sets the polled attendance count.
func UpdatePresentCount(count int) {
	globalManager.presentCount.Set(float64(count))
}

// RecordGatewayCall records one gateway round trip.
func RecordGatewayCall(endpoint, result string, latencyMs float64) {
	globalManager.gatewayCalls.WithLabelValues(endpoint, result).Inc()
	globalManager.gatewayLatency.WithLabelValues(endpoint).Observe(latencyMs)
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordCheckIn counts a resolved check-in request on the service side.
func RecordCheckIn(status string) {
	globalManager.checkIns.WithLabelValues(status).Inc()
}

// RecordStoreLatency records an attendance store operation latency.
func RecordStoreLatency(op string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(op).Observe(latencyMs)
}

// UpdateRegistrations sets the number of registered attendees.
func UpdateRegistrations(count int) {
	globalManager.registrations.Set(float64(count))
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
