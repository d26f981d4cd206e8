// Package exchange performs the authorization code for token exchange against
// a provider's token endpoint.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	brokererrors "github.com/jrsteele09/go-oauth-broker/internal/errors"
	"github.com/jrsteele09/go-oauth-broker/internal/utils"
	"github.com/jrsteele09/go-oauth-broker/oauthmodel"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	DefaultTimeout = 15 * time.Second

	// maxLoggedBody bounds how much of a provider error body reaches the logs.
	maxLoggedBody = 512
)

// Request carries everything the token endpoint needs for one exchange.
type Request struct {
	Provider      string
	TokenEndpoint string
	Code          string
	RedirectURI   string
	ClientID      string
	ClientSecret  string
	// CodeVerifier is sent only when set.
	CodeVerifier *string
}

// Client exchanges authorization codes. It never retries: codes are single use.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.timeout = d
		}
	}
}

func New(options ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Exchange posts the code to the token endpoint using HTTP Basic client
// authentication and returns the access and refresh tokens.
// Failures wrap ErrTokenExchangeFailed, timeouts additionally wrap ErrUpstreamTimeout.
func (c *Client) Exchange(ctx context.Context, req Request) (*oauthmodel.TokenResponse, error) {
	if req.Code == "" {
		return nil, fmt.Errorf("[exchange Exchange] %w", brokererrors.ErrMissingAuthorizationCode)
	}
	if req.TokenEndpoint == "" {
		return nil, fmt.Errorf("[exchange Exchange] token endpoint is required: %w", brokererrors.ErrTokenExchangeFailed)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	cfg := &oauth2.Config{
		ClientID:     req.ClientID,
		ClientSecret: req.ClientSecret,
		RedirectURL:  req.RedirectURI,
		Endpoint: oauth2.Endpoint{
			TokenURL:  req.TokenEndpoint,
			// Credentials are form encoded before base64, RFC 6749 section 2.3.1.
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}

	var opts []oauth2.AuthCodeOption
	if req.CodeVerifier != nil {
		opts = append(opts, oauth2.VerifierOption(*req.CodeVerifier))
	}

	start := time.Now()
	tok, err := cfg.Exchange(ctx, req.Code, opts...)
	if err != nil {
		return nil, c.mapError(ctx, req, err, time.Since(start))
	}
	if tok.AccessToken == "" {
		log.Warn().Str("provider", req.Provider).Msg("token endpoint response has no access_token")
		return nil, fmt.Errorf("[exchange Exchange] missing access_token: %w", brokererrors.ErrTokenExchangeFailed)
	}

	res := &oauthmodel.TokenResponse{
		AccessToken:  tok.AccessToken,
		RefreshToken: utils.NonEmpty(tok.RefreshToken),
		TokenType:    tok.TokenType,
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		res.Scope = scope
	}
	return res, nil
}

func (c *Client) mapError(ctx context.Context, req Request, err error, elapsed time.Duration) error {
	if isTimeout(ctx, err) {
		log.Warn().Str("provider", req.Provider).Dur("elapsed", elapsed).Msg("token exchange timed out")
		return fmt.Errorf("[exchange Exchange] %w: %w", brokererrors.ErrTokenExchangeFailed, brokererrors.ErrUpstreamTimeout)
	}

	var rErr *oauth2.RetrieveError
	if errors.As(err, &rErr) {
		ev := log.Warn().Str("provider", req.Provider).Str("error_code", rErr.ErrorCode)
		if rErr.Response != nil {
			ev = ev.Int("status", rErr.Response.StatusCode)
		}
		ev.Str("body", truncate(string(rErr.Body), maxLoggedBody)).Msg("token endpoint rejected the exchange")
		return fmt.Errorf("[exchange Exchange] %w", brokererrors.ErrTokenExchangeFailed)
	}

	log.Warn().Err(err).Str("provider", req.Provider).Msg("token exchange failed")
	return fmt.Errorf("[exchange Exchange] %w", brokererrors.ErrTokenExchangeFailed)
}

// isTimeout reports whether err came from a deadline on ctx or the transport.
func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
