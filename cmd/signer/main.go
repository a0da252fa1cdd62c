package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zarvd/push-token-signer/internal/auth"
	"github.com/zarvd/push-token-signer/internal/key"
	"github.com/zarvd/push-token-signer/internal/metrics"
	"github.com/zarvd/push-token-signer/internal/server"
)

type KeyFlags struct {
	SigningKey []byte        `required:"" type:"filecontent" env:"PUSH_SIGNER_SIGNING_KEY_FILE" help:"Path to the PEM encoded P-256 provider key"`
	KeyID      string        `required:"" env:"PUSH_SIGNER_KEY_ID" help:"Key ID of the provider key"`
	IssuerID   string        `required:"" env:"PUSH_SIGNER_ISSUER_ID" help:"Issuer (team) ID the key belongs to"`
	TTL        time.Duration `default:"50m" env:"PUSH_SIGNER_TTL" help:"How long a signed token is reused before renewal"`
}

func (f *KeyFlags) newCache(logger *slog.Logger, opts ...key.Option) (*key.Cache, error) {
	identity := key.Identity{KeyID: f.KeyID, IssuerID: f.IssuerID}
	cache, err := key.NewCache(logger, bytes.NewReader(f.SigningKey), identity, f.TTL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create token cache: %w", err)
	}
	return cache, nil
}

type TokenCmd struct {
	KeyFlags `embed:""`

	Header bool `help:"Print the full authorization header value instead of the bare token"`
}

func (cmd *TokenCmd) Run(logger *slog.Logger, stdout io.Writer) error {
	cache, err := cmd.newCache(logger)
	if err != nil {
		return err
	}
	return cache.Access(func(token string) {
		if cmd.Header {
			token = auth.HeaderValue(token)
		}
		fmt.Fprintln(stdout, token)
	})
}

type ServeCmd struct {
	KeyFlags `embed:""`

	UnixDomainSocket string `arg:"" required:"" help:"Unix domain socket to listen on"`
}

func (cmd *ServeCmd) Run(ctx context.Context, logger *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(reg)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	cache, err := cmd.newCache(logger, key.WithMetrics(m))
	if err != nil {
		return err
	}

	svr := server.NewServer(logger, cache, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	httpServer := &http.Server{
		Handler:           svr,
		ReadHeaderTimeout: 10 * time.Second,
	}

	listener, err := net.Listen("unix", cmd.UnixDomainSocket)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	defer listener.Close()

	go func() {
		logger.Info("serving on", slog.String("address", listener.Addr().String()))
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to serve", slog.Any("error", err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

type CLI struct {
	Debug bool `env:"PUSH_SIGNER_DEBUG" help:"Enable debug logging"`

	Token TokenCmd `cmd:"" help:"Sign and print a single provider token"`
	Serve ServeCmd `cmd:"" help:"Serve the cached provider token over a unix domain socket"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var cli CLI
	cliCtx := kong.Parse(&cli,
		kong.Name("signer"),
		kong.Description("Issue and cache ES256 provider tokens for push notification services."),
	)

	level := slog.LevelInfo
	if cli.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cliCtx.BindTo(ctx, (*context.Context)(nil))
	cliCtx.BindTo(os.Stdout, (*io.Writer)(nil))
	cliCtx.Bind(logger)

	if err := cliCtx.Run(); err != nil {
		logger.Error("failed to run CLI", slog.Any("error", err))
		os.Exit(1)
	}
}
