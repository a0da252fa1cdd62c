// Package auth attaches cached provider tokens to outbound requests.
package auth

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/grpc/credentials"

	"github.com/zarvd/push-token-signer/internal/key"
)

// HeaderValue formats token as an authorization header value.
func HeaderValue(token string) string {
	return "bearer " + token
}

// Transport is an http.RoundTripper that sets the authorization header from
// Source on every request.
type Transport struct {
	Source key.TokenSource
	// Base is used to send the request. Defaults to http.DefaultTransport.
	Base http.RoundTripper
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	var value string
	if err := t.Source.Access(func(token string) {
		value = HeaderValue(token)
	}); err != nil {
		if req.Body != nil {
			req.Body.Close()
		}
		return nil, fmt.Errorf("failed to obtain provider token: %w", err)
	}

	// RoundTrippers must not modify the caller's request.
	r := req.Clone(req.Context())
	r.Header.Set("authorization", value)
	return t.base().RoundTrip(r)
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

var _ credentials.PerRPCCredentials = (*PerRPCCredentials)(nil)

// PerRPCCredentials sends the cached token as gRPC "authorization" metadata.
type PerRPCCredentials struct {
	Source key.TokenSource
	// Insecure allows the token to be sent over connections without
	// transport security. Only meant for local testing.
	Insecure bool
}

func (c *PerRPCCredentials) GetRequestMetadata(ctx context.Context, uri ...string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var value string
	if err := c.Source.Access(func(token string) {
		value = HeaderValue(token)
	}); err != nil {
		return nil, fmt.Errorf("failed to obtain provider token: %w", err)
	}
	return map[string]string{"authorization": value}, nil
}

func (c *PerRPCCredentials) RequireTransportSecurity() bool {
	return !c.Insecure
}
