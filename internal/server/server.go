package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zarvd/push-token-signer/internal/key"
)

// TokenCache is the part of key.Cache the server depends on.
type TokenCache interface {
	AccessSigned(fn func(key.SignedToken)) error
	Identity() key.Identity
	Algorithm() key.Algorithm
	TTL() time.Duration
}

var _ TokenCache = (*key.Cache)(nil)

// Server vends the cached provider token to co-located processes.
type Server struct {
	logger *slog.Logger
	cache  TokenCache
	router chi.Router
}

// NewServer routes the token API. metricsHandler is mounted at /metrics
// when not nil.
func NewServer(logger *slog.Logger, cache TokenCache, metricsHandler http.Handler) *Server {
	svr := &Server{
		logger: logger,
		cache:  cache,
		router: chi.NewRouter(),
	}

	svr.router.Get("/healthz", svr.Healthz)
	svr.router.Route("/v1", func(r chi.Router) {
		r.Get("/token", svr.Token)
		r.Get("/metadata", svr.Metadata)
	})
	if metricsHandler != nil {
		svr.router.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	return svr
}

func (svr *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	svr.router.ServeHTTP(w, r)
}

func (svr *Server) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
