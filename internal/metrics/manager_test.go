package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager_RegistersEverything(t *testing.T) {
	m, reg := NewTestManagerAndRegistry()

	m.CounterRequests.WithLabelValues("GET", "200").Inc()
	m.CounterPlansStarted.Inc()
	m.CounterPlansFinished.WithLabelValues("active").Inc()
	m.CounterGeneratorAttempts.WithLabelValues("accepted").Add(3)
	m.CounterRuleViolations.WithLabelValues("long_run_day").Inc()
	m.CounterReconciled.WithLabelValues("missed").Inc()
	m.GaugeRequests.Set(2)
	m.GaugeGenerationsActive.Inc()
	m.HistPlanGenerationDuration.Observe(42)
	m.HistogramRequestDuration.WithLabelValues("/ping", "GET", "200").Observe(0.01)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 10)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.CounterGeneratorAttempts.WithLabelValues("accepted")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.GaugeRequests))
}

func TestNewTestManager_IsolatedRegistries(t *testing.T) {
	// two managers with the same names must not collide
	a := NewTestManager()
	b := NewTestManager()
	a.CounterPlansStarted.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.CounterPlansStarted))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.CounterPlansStarted))
}
