// Package metrics exposes Prometheus collectors for the token cache.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	// ResultSuperseded marks a renewal whose token was dropped because a newer
	// one had already been published.
	ResultSuperseded = "superseded"
)

// Metrics records token cache activity. A nil *Metrics is a no-op.
type Metrics struct {
	renewals     *prometheus.CounterVec
	cacheHits    prometheus.Counter
	signDuration prometheus.Histogram
}

// New creates the collectors and registers them on reg, or on
// prometheus.DefaultRegisterer when reg is nil. Collectors that are already
// registered are reused.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		renewals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "push_token_renewals_total",
			Help: "Token renewals by result",
		}, []string{"result"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "push_token_cache_hits_total",
			Help: "Accesses served by the cached token without signing",
		}),
		signDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "push_token_sign_duration_seconds",
			Help:    "Time spent building and signing a token",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 12),
		}),
	}

	var err error
	if m.renewals, err = register(reg, m.renewals); err != nil {
		return nil, err
	}
	if m.cacheHits, err = register(reg, m.cacheHits); err != nil {
		return nil, err
	}
	if m.signDuration, err = register(reg, m.signDuration); err != nil {
		return nil, err
	}
	return m, nil
}

// ObserveRenewal records one renewal attempt.
func (m *Metrics) ObserveRenewal(result string, took time.Duration) {
	if m == nil {
		return
	}
	m.renewals.WithLabelValues(result).Inc()
	m.signDuration.Observe(took.Seconds())
}

// ObserveCacheHit records an access that reused the published token.
func (m *Metrics) ObserveCacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}
