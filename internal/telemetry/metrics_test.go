package telemetry

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/shaiso/Courier/internal/domain"
)

func TestMetrics_Transition(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.Transition("c1", domain.StateStopped, domain.StateStarting)
	m.Transition("c1", domain.StateStarting, domain.StateRunning)

	if v := testutil.ToFloat64(m.state.WithLabelValues("c1", string(domain.StateRunning))); v != 1 {
		t.Errorf("expected RUNNING gauge 1, got %v", v)
	}
	if v := testutil.ToFloat64(m.state.WithLabelValues("c1", string(domain.StateStarting))); v != 0 {
		t.Errorf("expected STARTING gauge 0, got %v", v)
	}
	if v := testutil.ToFloat64(m.transitions.WithLabelValues("c1", "STARTING", "RUNNING")); v != 1 {
		t.Errorf("expected 1 transition, got %v", v)
	}
}

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.Mismatch("c1", "q")
	m.Mismatch("c1", "q")
	m.Delivery("c1", "q")
	m.ConnectionAttempt("c1", nil)
	m.ConnectionAttempt("c1", errors.New("refused"))

	if v := testutil.ToFloat64(m.mismatches.WithLabelValues("c1", "q")); v != 2 {
		t.Errorf("expected 2 mismatches, got %v", v)
	}
	if v := testutil.ToFloat64(m.deliveries.WithLabelValues("c1", "q")); v != 1 {
		t.Errorf("expected 1 delivery, got %v", v)
	}
	if v := testutil.ToFloat64(m.connectionAttempts.WithLabelValues("c1", "failure")); v != 1 {
		t.Errorf("expected 1 failed attempt, got %v", v)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.Transition("c1", domain.StateStopped, domain.StateStarting)
	m.Mismatch("c1", "q")
	m.Delivery("c1", "q")
	m.ConnectionAttempt("c1", nil)
}
