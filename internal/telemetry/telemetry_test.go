package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveLoad(3, 1)
		m.ObserveRecompute(2, true, time.Millisecond)
		m.RejectedSelection("owner")
	})
	assert.NotNil(t, m.Handler())
}

func TestCounters(t *testing.T) {
	m := New()
	m.ObserveLoad(10, 4)
	m.ObserveRecompute(6, false, time.Millisecond)
	m.ObserveRecompute(5, true, time.Millisecond)
	m.RejectedSelection("owner")

	assert.Equal(t, 10.0, testutil.ToFloat64(m.fetched))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.dropped))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.recomputes))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.invalidDateRanges))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.filtered))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejected.WithLabelValues("owner")))
}
