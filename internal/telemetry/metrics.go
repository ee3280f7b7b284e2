package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shaiso/Courier/internal/domain"
)

// Metrics — Prometheus метрики listener-контейнеров.
//
// Все методы безопасны для nil-получателя: контейнер без метрик
// просто ничего не регистрирует.
type Metrics struct {
	state              *prometheus.GaugeVec
	transitions        *prometheus.CounterVec
	mismatches         *prometheus.CounterVec
	deliveries         *prometheus.CounterVec
	connectionAttempts *prometheus.CounterVec
}

// NewMetrics создаёт метрики и регистрирует их в reg.
// Если reg == nil, используется prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "courier_container_state",
			Help: "Current container state (1 for the active state, 0 otherwise)",
		}, []string{"container", "state"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "courier_container_transitions_total",
			Help: "Container state transitions",
		}, []string{"container", "from", "to"}),
		mismatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "courier_queue_mismatches_total",
			Help: "Queue mismatches detected between expected and broker-side properties",
		}, []string{"container", "queue"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "courier_deliveries_total",
			Help: "Messages dispatched to the listener",
		}, []string{"container", "queue"}),
		connectionAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "courier_connection_attempts_total",
			Help: "Connection acquisition attempts by result",
		}, []string{"container", "result"}),
	}

	reg.MustRegister(m.state, m.transitions, m.mismatches, m.deliveries, m.connectionAttempts)
	return m
}

// SetState выставляет gauge текущего состояния контейнера.
func (m *Metrics) SetState(container string, state domain.ContainerState) {
	if m == nil {
		return
	}
	for _, s := range domain.AllContainerStates() {
		v := 0.0
		if s == state {
			v = 1
		}
		m.state.WithLabelValues(container, string(s)).Set(v)
	}
}

// Transition учитывает переход между состояниями.
func (m *Metrics) Transition(container string, from, to domain.ContainerState) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(container, string(from), string(to)).Inc()
	m.SetState(container, to)
}

// Mismatch учитывает обнаруженное несоответствие очереди.
func (m *Metrics) Mismatch(container, queue string) {
	if m == nil {
		return
	}
	m.mismatches.WithLabelValues(container, queue).Inc()
}

// Delivery учитывает сообщение, переданное listener'у.
func (m *Metrics) Delivery(container, queue string) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(container, queue).Inc()
}

// ConnectionAttempt учитывает попытку получения соединения.
func (m *Metrics) ConnectionAttempt(container string, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.connectionAttempts.WithLabelValues(container, result).Inc()
}
