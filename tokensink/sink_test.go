package tokensink_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jrsteele09/go-oauth-broker/internal/errors"
	"github.com/jrsteele09/go-oauth-broker/internal/utils"
	"github.com/jrsteele09/go-oauth-broker/tokensink"
	"github.com/stretchr/testify/require"
)

func fastBackOff() backoff.BackOff {
	return backoff.NewConstantBackOff(time.Millisecond)
}

func testDelivery() tokensink.Delivery {
	return tokensink.Delivery{
		APIKey:       "api-key",
		AccessToken:  "abc",
		ClientID:     "client-1",
		ClientSecret: "secret-1",
		TableName:    "gmail",
	}
}

func newSink(t *testing.T, handler http.HandlerFunc, options ...tokensink.Option) (*tokensink.HTTPSink, *atomic.Int32) {
	t.Helper()
	calls := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	options = append([]tokensink.Option{tokensink.WithBackOff(fastBackOff)}, options...)
	return tokensink.NewHTTPSink(srv.URL, options...), calls
}

func TestDeliver(t *testing.T) {
	ctx := context.Background()

	t.Run("posts the token record", func(t *testing.T) {
		var got map[string]any
		sink, calls := newSink(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/api/token", r.URL.Path)
			require.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.WriteHeader(http.StatusOK)
		})

		require.NoError(t, sink.Deliver(ctx, testDelivery()))
		require.Equal(t, int32(1), calls.Load())
		require.Equal(t, "api-key", got["api_key"])
		require.Equal(t, "abc", got["access_token"])
		require.Contains(t, got, "refresh_token")
		require.Nil(t, got["refresh_token"], "a missing refresh token is sent as null")
		require.Equal(t, "client-1", got["client_id"])
		require.Equal(t, "secret-1", got["client_secret"])
		require.Equal(t, "gmail", got["table_name"])
	})

	t.Run("refresh token is sent when present", func(t *testing.T) {
		var got map[string]any
		sink, _ := newSink(t, func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		})
		d := testDelivery()
		d.RefreshToken = utils.Ptr("def")
		require.NoError(t, sink.Deliver(ctx, d))
		require.Equal(t, "def", got["refresh_token"])
	})

	t.Run("retries server errors then succeeds", func(t *testing.T) {
		var n atomic.Int32
		sink, calls := newSink(t, func(w http.ResponseWriter, _ *http.Request) {
			if n.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		})
		require.NoError(t, sink.Deliver(ctx, testDelivery()))
		require.Equal(t, int32(3), calls.Load())
	})

	t.Run("retries rate limiting", func(t *testing.T) {
		var n atomic.Int32
		sink, calls := newSink(t, func(w http.ResponseWriter, _ *http.Request) {
			if n.Add(1) == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.WriteHeader(http.StatusOK)
		})
		require.NoError(t, sink.Deliver(ctx, testDelivery()))
		require.Equal(t, int32(2), calls.Load())
	})

	t.Run("retry after is capped at the sink timeout", func(t *testing.T) {
		var n atomic.Int32
		sink, calls := newSink(t, func(w http.ResponseWriter, _ *http.Request) {
			if n.Add(1) == 1 {
				w.Header().Set("Retry-After", "3600")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.WriteHeader(http.StatusOK)
		}, tokensink.WithTimeout(time.Second))

		start := time.Now()
		require.NoError(t, sink.Deliver(ctx, testDelivery()))
		require.Equal(t, int32(2), calls.Load())
		require.Less(t, time.Since(start), 10*time.Second)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		sink, calls := newSink(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}, tokensink.WithMaxAttempts(3))
		err := sink.Deliver(ctx, testDelivery())
		require.ErrorIs(t, err, errors.ErrTokenSinkUnavailable)
		require.NotErrorIs(t, err, errors.ErrUpstreamTimeout)
		require.Equal(t, int32(3), calls.Load())
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		sink, calls := newSink(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
		})
		err := sink.Deliver(ctx, testDelivery())
		require.ErrorIs(t, err, errors.ErrTokenSinkUnavailable)
		require.Equal(t, int32(1), calls.Load())
	})

	t.Run("attempt timeout is reported distinctly", func(t *testing.T) {
		sink, calls := newSink(t, func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}, tokensink.WithTimeout(20*time.Millisecond), tokensink.WithMaxAttempts(2))
		err := sink.Deliver(ctx, testDelivery())
		require.ErrorIs(t, err, errors.ErrTokenSinkUnavailable)
		require.ErrorIs(t, err, errors.ErrUpstreamTimeout)
		require.Equal(t, int32(2), calls.Load())
	})

	t.Run("secrets never appear in the error", func(t *testing.T) {
		sink, _ := newSink(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		})
		err := sink.Deliver(ctx, testDelivery())
		require.Error(t, err)
		require.NotContains(t, err.Error(), "secret-1")
		require.NotContains(t, err.Error(), "abc")
	})
}

func TestStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("reports the backend's answer", func(t *testing.T) {
		for _, authenticated := range []bool{true, false} {
			sink, _ := newSink(t, func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, http.MethodGet, r.Method)
				require.Equal(t, "/api/token", r.URL.Path)
				require.Equal(t, "api-key", r.URL.Query().Get("api_key"))
				require.Equal(t, "gmail", r.URL.Query().Get("table_name"))
				_ = json.NewEncoder(w).Encode(map[string]bool{"is_authenticated": authenticated})
			})
			got, err := sink.Status(ctx, "api-key", "gmail")
			require.NoError(t, err)
			require.Equal(t, authenticated, got)
		}
	})

	t.Run("backend failure", func(t *testing.T) {
		sink, calls := newSink(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		_, err := sink.Status(ctx, "api-key", "gmail")
		require.ErrorIs(t, err, errors.ErrTokenSinkUnavailable)
		require.Equal(t, int32(1), calls.Load())
	})

	t.Run("malformed body", func(t *testing.T) {
		sink, _ := newSink(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("not json"))
		})
		_, err := sink.Status(ctx, "api-key", "gmail")
		require.ErrorIs(t, err, errors.ErrTokenSinkUnavailable)
	})
}
