// Package tokensink delivers exchanged tokens to the backend token store.
package tokensink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"
	brokererrors "github.com/jrsteele09/go-oauth-broker/internal/errors"
	"github.com/rs/zerolog/log"
)

const (
	tokenPath = "/api/token"

	DefaultTimeout     = 10 * time.Second
	DefaultMaxAttempts = 4
)

// Delivery is the record posted to the backend after a successful exchange.
type Delivery struct {
	APIKey       string  `json:"api_key"`
	AccessToken  string  `json:"access_token"`
	RefreshToken *string `json:"refresh_token"`
	ClientID     string  `json:"client_id"`
	ClientSecret string  `json:"client_secret"`
	TableName    string  `json:"table_name"`
}

// Sink receives tokens. Deliver is called at most once per successful exchange.
type Sink interface {
	Deliver(ctx context.Context, d Delivery) error
}

// StatusChecker reports whether the backend already holds a token for an integration.
type StatusChecker interface {
	Status(ctx context.Context, apiKey, tableName string) (bool, error)
}

type statusResponse struct {
	IsAuthenticated bool `json:"is_authenticated"`
}

// HTTPSink talks to the backend's /api/token endpoint.
type HTTPSink struct {
	baseURL     string
	httpClient  *http.Client
	timeout     time.Duration
	maxAttempts uint
	newBackOff  func() backoff.BackOff
}

var (
	_ Sink          = (*HTTPSink)(nil)
	_ StatusChecker = (*HTTPSink)(nil)
)

type Option func(*HTTPSink)

func WithHTTPClient(c *http.Client) Option {
	return func(s *HTTPSink) {
		s.httpClient = c
	}
}

// WithTimeout bounds each delivery attempt.
func WithTimeout(d time.Duration) Option {
	return func(s *HTTPSink) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithMaxAttempts(n uint) Option {
	return func(s *HTTPSink) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithBackOff replaces the retry schedule (primarily for testing).
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(s *HTTPSink) {
		s.newBackOff = newBackOff
	}
}

func NewHTTPSink(baseURL string, options ...Option) *HTTPSink {
	s := &HTTPSink{
		baseURL:     baseURL,
		httpClient:  &http.Client{},
		timeout:     DefaultTimeout,
		maxAttempts: DefaultMaxAttempts,
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Deliver posts the tokens, retrying transport failures, 5xx and 429 with
// exponential backoff. Other 4xx responses fail immediately.
func (s *HTTPSink) Deliver(ctx context.Context, d Delivery) error {
	body, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("[HTTPSink Deliver] marshal: %w", err)
	}

	attempt := 0
	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		return struct{}{}, s.post(ctx, body)
	},
		backoff.WithBackOff(s.newBackOff()),
		backoff.WithMaxTries(s.maxAttempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Warn().Err(err).Str("table_name", d.TableName).Int("attempt", attempt).Dur("retry_in", next).Msg("token sink delivery failed, retrying")
		}),
	)
	if err != nil {
		if isTimeout(err) {
			return fmt.Errorf("[HTTPSink Deliver] after %d attempts: %w: %w", attempt, brokererrors.ErrTokenSinkUnavailable, brokererrors.ErrUpstreamTimeout)
		}
		return fmt.Errorf("[HTTPSink Deliver] after %d attempts: %w: %w", attempt, brokererrors.ErrTokenSinkUnavailable, err)
	}
	return nil
}

// maxRetryAfterSeconds caps a Retry-After wait at the per-attempt timeout,
// the browser is still waiting on the callback.
func (s *HTTPSink) maxRetryAfterSeconds() int {
	return max(1, int(s.timeout/time.Second))
}

func (s *HTTPSink) post(ctx context.Context, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+tokenPath, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
			return backoff.RetryAfter(min(secs, s.maxRetryAfterSeconds()))
		}
		return &statusError{code: resp.StatusCode}
	case resp.StatusCode == http.StatusRequestTimeout || resp.StatusCode >= 500:
		return &statusError{code: resp.StatusCode}
	default:
		return backoff.Permanent(&statusError{code: resp.StatusCode})
	}
}

// Status asks the backend whether a token is stored for apiKey and tableName.
func (s *HTTPSink) Status(ctx context.Context, apiKey, tableName string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("api_key", apiKey)
	q.Set("table_name", tableName)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+tokenPath+"?"+q.Encode(), nil)
	if err != nil {
		return false, fmt.Errorf("[HTTPSink Status] build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return false, fmt.Errorf("[HTTPSink Status] %w: %w", brokererrors.ErrTokenSinkUnavailable, brokererrors.ErrUpstreamTimeout)
		}
		return false, fmt.Errorf("[HTTPSink Status] %w: %w", brokererrors.ErrTokenSinkUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Errorf("[HTTPSink Status] %w: %w", brokererrors.ErrTokenSinkUnavailable, &statusError{code: resp.StatusCode})
	}
	var sr statusResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&sr); err != nil {
		return false, fmt.Errorf("[HTTPSink Status] decode: %w: %w", brokererrors.ErrTokenSinkUnavailable, err)
	}
	return sr.IsAuthenticated, nil
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("token sink responded with status %d", e.code)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
