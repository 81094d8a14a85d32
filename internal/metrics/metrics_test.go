package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNew(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ConversionsTotal.WithLabelValues("raw").Inc()
	m.ConversionsTotal.WithLabelValues("raw").Inc()
	m.ConversionsTotal.WithLabelValues("markup").Inc()
	m.EmptyConversions.Inc()

	if got := testutil.ToFloat64(m.ConversionsTotal.WithLabelValues("raw")); got != 2 {
		t.Errorf("raw conversions = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ConversionsTotal.WithLabelValues("markup")); got != 1 {
		t.Errorf("markup conversions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.EmptyConversions); got != 1 {
		t.Errorf("empty conversions = %v, want 1", got)
	}
}

func TestNewIndependentRegistries(t *testing.T) {
	// Two instances must not collide when registered separately.
	a := New(prometheus.NewRegistry())
	b := New(prometheus.NewRegistry())

	a.EmptyConversions.Inc()
	if got := testutil.ToFloat64(b.EmptyConversions); got != 0 {
		t.Errorf("second registry counter = %v, want 0", got)
	}
}
