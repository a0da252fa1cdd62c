package key

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/zarvd/push-token-signer/internal/metrics"
)

var _ TokenSource = (*Cache)(nil)

type buildFunc func(priv *ecdsa.PrivateKey, alg Algorithm, identity Identity, issuedAt time.Time) (string, error)

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now as the source of issuance and expiry times.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithAlgorithm selects the signature algorithm. Defaults to ES256.
func WithAlgorithm(alg Algorithm) Option {
	return func(c *Cache) {
		c.alg = alg
	}
}

// WithMetrics records renewals and cache hits on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// Cache holds one signed token and renews it once it is ttl old. Readers
// load the published token through an atomic pointer and never wait on a
// renewal in progress.
type Cache struct {
	logger  *slog.Logger
	metrics *metrics.Metrics

	privateKey *ecdsa.PrivateKey
	identity   Identity
	alg        Algorithm
	ttlSeconds int64
	now        func() time.Time
	build      buildFunc

	current atomic.Pointer[SignedToken]
}

// NewCache reads a PEM encoded P-256 private key from keySource and builds
// the first token. A ttl of zero renews on every access; sub-second parts of
// ttl are ignored.
func NewCache(
	logger *slog.Logger,
	keySource io.Reader,
	identity Identity,
	ttl time.Duration,
	opts ...Option,
) (*Cache, error) {
	if ttl < 0 {
		return nil, fmt.Errorf("ttl must not be negative, got %s", ttl)
	}
	privateKey, err := ReadECPrivateKey(keySource)
	if err != nil {
		return nil, err
	}

	c := &Cache{
		logger:     logger,
		privateKey: privateKey,
		identity:   identity,
		alg:        ES256,
		ttlSeconds: int64(ttl / time.Second),
		now:        time.Now,
		build:      Build,
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.renew(); err != nil {
		return nil, fmt.Errorf("failed to build initial token: %w", err)
	}
	return c, nil
}

// Access calls fn with a token that was valid when Access checked it,
// renewing first if the published token is ttl old. fn runs synchronously
// and should use the token for a single request only.
//
// If renewal fails the error is returned, fn is not called and the
// previously published token is kept.
func (c *Cache) Access(fn func(token string)) error {
	return c.AccessSigned(func(t SignedToken) {
		fn(t.Token)
	})
}

// AccessSigned is Access for callers that also need the issuance time.
func (c *Cache) AccessSigned(fn func(SignedToken)) error {
	current := c.current.Load()
	if c.isExpired(current) {
		if err := c.renew(); err != nil {
			return err
		}
		current = c.current.Load()
	} else {
		c.metrics.ObserveCacheHit()
	}

	if c.logger.Enabled(context.Background(), slog.LevelDebug) {
		c.logger.LogAttrs(context.Background(), slog.LevelDebug, "Using token",
			slog.String("key-id", c.identity.KeyID),
			slog.String("issuer-id", c.identity.IssuerID),
			slog.Duration("valid-for", c.validFor(current)),
		)
	}

	fn(*current)
	return nil
}

// Token returns the current token by value. The caller should attach it to
// one request and call Token again for the next.
func (c *Cache) Token() (string, error) {
	var rv string
	err := c.Access(func(token string) {
		rv = token
	})
	return rv, err
}

// Current returns the published token without checking expiry.
func (c *Cache) Current() SignedToken {
	return *c.current.Load()
}

// ValidFor returns how long the published token stays valid. It is zero or
// negative once the token is due for renewal.
func (c *Cache) ValidFor() time.Duration {
	return c.validFor(c.current.Load())
}

// TTL returns the configured token lifetime.
func (c *Cache) TTL() time.Duration {
	return time.Duration(c.ttlSeconds) * time.Second
}

// Identity returns the key and issuer identifiers tokens are built for.
func (c *Cache) Identity() Identity {
	return c.identity
}

// Algorithm returns the signature algorithm tokens are built with.
func (c *Cache) Algorithm() Algorithm {
	return c.alg
}

func (c *Cache) validFor(t *SignedToken) time.Duration {
	age := c.now().Unix() - t.IssuedAt
	return time.Duration(c.ttlSeconds-age) * time.Second
}

// isExpired reports whether t is due for renewal. A zero ttl always renews,
// even if the clock stepped back behind t's issuance time.
func (c *Cache) isExpired(t *SignedToken) bool {
	if c.ttlSeconds == 0 {
		return true
	}
	return c.now().Unix()-t.IssuedAt >= c.ttlSeconds
}

// renew builds a token issued now and publishes it. No lock is held while
// signing, so concurrent callers may each build one. With a non-zero ttl a
// token is only published if it is at least as new as the one already in
// place.
func (c *Cache) renew() error {
	issuedAt := c.now()
	logger := c.logger.With(
		slog.String("key-id", c.identity.KeyID),
		slog.String("issuer-id", c.identity.IssuerID),
		slog.Int64("issued-at", issuedAt.Unix()),
	)

	start := time.Now()
	token, err := c.build(c.privateKey, c.alg, c.identity, issuedAt)
	took := time.Since(start)
	if err != nil {
		c.metrics.ObserveRenewal(metrics.ResultFailure, took)
		logger.Error("Failed to renew token", slog.Any("error", err))
		return err
	}

	next := &SignedToken{Token: token, IssuedAt: issuedAt.Unix()}
	for {
		prev := c.current.Load()
		// A zero ttl never serves the published token, so it is replaced
		// even when its issuance time is ahead of the clock.
		if prev != nil && c.ttlSeconds > 0 && prev.IssuedAt > next.IssuedAt {
			c.metrics.ObserveRenewal(metrics.ResultSuperseded, took)
			logger.Debug("Dropped renewed token, a newer one is published",
				slog.Int64("published-issued-at", prev.IssuedAt))
			return nil
		}
		if c.current.CompareAndSwap(prev, next) {
			break
		}
	}

	c.metrics.ObserveRenewal(metrics.ResultSuccess, took)
	logger.Debug("Renewed token", slog.Int64("ttl-seconds", c.ttlSeconds))
	return nil
}
