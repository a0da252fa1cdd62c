package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/zarvd/push-token-signer/internal/key"
)

type TokenResponse struct {
	Token     string `json:"token"`
	IssuedAt  int64  `json:"issued_at"`
	ExpiresAt int64  `json:"expires_at"`
}

type MetadataResponse struct {
	KeyID      string `json:"key_id"`
	IssuerID   string `json:"issuer_id"`
	Algorithm  string `json:"algorithm"`
	TTLSeconds int64  `json:"ttl_seconds"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (svr *Server) Token(w http.ResponseWriter, r *http.Request) {
	logger := svr.logger.With(slog.String("method", "Token"))

	var rv TokenResponse
	err := svr.cache.AccessSigned(func(t key.SignedToken) {
		rv = TokenResponse{
			Token:     t.Token,
			IssuedAt:  t.IssuedAt,
			ExpiresAt: t.IssuedAt + int64(svr.cache.TTL().Seconds()),
		}
	})
	if err != nil {
		logger.Error("Failed to access token", slog.Any("error", err))
		svr.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "not able to sign token"})
		return
	}

	logger.Debug("Served token", slog.Int64("issued-at", rv.IssuedAt))

	w.Header().Set("Cache-Control", "no-store")
	svr.writeJSON(w, http.StatusOK, rv)
}

func (svr *Server) Metadata(w http.ResponseWriter, r *http.Request) {
	logger := svr.logger.With(slog.String("method", "Metadata"))

	identity := svr.cache.Identity()
	rv := MetadataResponse{
		KeyID:      identity.KeyID,
		IssuerID:   identity.IssuerID,
		Algorithm:  svr.cache.Algorithm().String(),
		TTLSeconds: int64(svr.cache.TTL().Seconds()),
	}
	logger.Info("Fetched metadata",
		slog.String("key-id", rv.KeyID),
		slog.Int64("ttl-seconds", rv.TTLSeconds),
	)

	svr.writeJSON(w, http.StatusOK, rv)
}

func (svr *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		svr.logger.Error("Failed to write response", slog.Any("error", err))
	}
}
