package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimMetrics_NilReceiver(t *testing.T) {
	var m *SimMetrics

	assert.NotPanics(t, func() {
		m.ObserveEvaluation()
		m.ObserveLowered("water")
		m.ObserveSpread("water", "down")
		m.ObserveCollision("lava", "water")
		m.ObservePathSearch(2)
		m.ObserveConfigError()
		m.ObserveTick(3)
	}, "Nil-метрики не должны паниковать")
}

func TestSimMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSimMetrics(reg)

	m.ObserveEvaluation()
	m.ObserveEvaluation()
	m.ObserveCollision("lava", "water")
	m.ObserveTick(5)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.evaluations))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.collisions.WithLabelValues("lava", "water")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.pending))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families, "Метрики должны быть зарегистрированы")
}
