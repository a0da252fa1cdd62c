package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	t.Parallel()

	t.Run("records renewals and hits", func(t *testing.T) {
		reg := prometheus.NewPedanticRegistry()
		m, err := New(reg)
		require.NoError(t, err)

		m.ObserveRenewal(ResultSuccess, time.Millisecond)
		m.ObserveRenewal(ResultSuccess, time.Millisecond)
		m.ObserveRenewal(ResultFailure, time.Millisecond)
		m.ObserveCacheHit()

		require.Equal(t, 2.0, testutil.ToFloat64(m.renewals.WithLabelValues(ResultSuccess)))
		require.Equal(t, 1.0, testutil.ToFloat64(m.renewals.WithLabelValues(ResultFailure)))
		require.Equal(t, 1.0, testutil.ToFloat64(m.cacheHits))
	})

	t.Run("registering twice reuses collectors", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		first, err := New(reg)
		require.NoError(t, err)
		second, err := New(reg)
		require.NoError(t, err)

		second.ObserveCacheHit()
		require.Equal(t, 1.0, testutil.ToFloat64(first.cacheHits))
	})

	t.Run("nil metrics is a no-op", func(t *testing.T) {
		var m *Metrics
		require.NotPanics(t, func() {
			m.ObserveRenewal(ResultSuccess, time.Second)
			m.ObserveCacheHit()
		})
	})
}
