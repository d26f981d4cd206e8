// Package storetest holds behaviour tests shared by every flowstate.Store implementation.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-oauth-broker/flowstate"
	"github.com/jrsteele09/go-oauth-broker/internal/utils"
	"github.com/stretchr/testify/require"
)

// Factory creates an empty store whose expiry checks use now.
type Factory func(t *testing.T, now func() time.Time) flowstate.Store

// Clock is a settable time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// NewState returns a populated flow state expiring ttl after now.
func NewState(now time.Time, ttl time.Duration) *flowstate.FlowState {
	return &flowstate.FlowState{
		State:            "3f1d2a3c-7c55-4ac3-9a8e-0c1f1f0b6e51",
		Provider:         "gmail",
		ClientID:         "client-id",
		ClientSecret:     "client-secret",
		APIKey:           "api-key",
		TableName:        "gmail",
		RedirectURI:      "https://broker.example.com/api/oauth2/callback",
		CodeVerifier:     utils.Ptr("verifier"),
		CodeChallenge:    utils.Ptr("challenge"),
		VerifierRequired: true,
		ExchangeBase:     "https://oauth2.googleapis.com/token",
		CreatedAt:        now.UTC().Truncate(time.Second),
		ExpiresAt:        now.Add(ttl).UTC().Truncate(time.Second),
	}
}

// Run exercises the Store contract.
func Run(t *testing.T, newStore Factory) {
	ctx := context.Background()
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("take returns what was put", func(t *testing.T) {
		clock := NewClock(start)
		s := newStore(t, clock.Now)
		want := NewState(start, 10*time.Minute)

		require.NoError(t, s.Put(ctx, "flow-1", want))
		got, err := s.TakeAndInvalidate(ctx, "flow-1")
		require.NoError(t, err)
		require.Equal(t, want.State, got.State)
		require.Equal(t, want.ClientSecret, got.ClientSecret)
		require.Equal(t, utils.Value(want.CodeVerifier), utils.Value(got.CodeVerifier))
		require.Equal(t, want.VerifierRequired, got.VerifierRequired)
		require.True(t, want.ExpiresAt.Equal(got.ExpiresAt))
	})

	t.Run("second take returns not found", func(t *testing.T) {
		clock := NewClock(start)
		s := newStore(t, clock.Now)
		require.NoError(t, s.Put(ctx, "flow-1", NewState(start, 10*time.Minute)))

		_, err := s.TakeAndInvalidate(ctx, "flow-1")
		require.NoError(t, err)
		_, err = s.TakeAndInvalidate(ctx, "flow-1")
		require.ErrorIs(t, err, flowstate.ErrNotFound)
	})

	t.Run("unknown flow returns not found", func(t *testing.T) {
		s := newStore(t, NewClock(start).Now)
		_, err := s.TakeAndInvalidate(ctx, "missing")
		require.ErrorIs(t, err, flowstate.ErrNotFound)
	})

	t.Run("put overwrites the earlier flow", func(t *testing.T) {
		clock := NewClock(start)
		s := newStore(t, clock.Now)
		first := NewState(start, 10*time.Minute)
		second := NewState(start, 10*time.Minute)
		second.State = "second-state"

		require.NoError(t, s.Put(ctx, "flow-1", first))
		require.NoError(t, s.Put(ctx, "flow-1", second))

		got, err := s.TakeAndInvalidate(ctx, "flow-1")
		require.NoError(t, err)
		require.Equal(t, "second-state", got.State)
		_, err = s.TakeAndInvalidate(ctx, "flow-1")
		require.ErrorIs(t, err, flowstate.ErrNotFound)
	})

	t.Run("expired flow returns not found and is removed", func(t *testing.T) {
		clock := NewClock(start)
		s := newStore(t, clock.Now)
		require.NoError(t, s.Put(ctx, "flow-1", NewState(start, time.Minute)))

		clock.Advance(2 * time.Minute)
		_, err := s.TakeAndInvalidate(ctx, "flow-1")
		require.ErrorIs(t, err, flowstate.ErrNotFound)

		clock.Advance(-2 * time.Minute)
		_, err = s.TakeAndInvalidate(ctx, "flow-1")
		require.ErrorIs(t, err, flowstate.ErrNotFound)
	})

	t.Run("stored value is isolated from the caller", func(t *testing.T) {
		s := newStore(t, NewClock(start).Now)
		st := NewState(start, 10*time.Minute)
		require.NoError(t, s.Put(ctx, "flow-1", st))
		st.ClientSecret = "changed"
		*st.CodeVerifier = "changed"

		got, err := s.TakeAndInvalidate(ctx, "flow-1")
		require.NoError(t, err)
		require.Equal(t, "client-secret", got.ClientSecret)
		require.Equal(t, "verifier", utils.Value(got.CodeVerifier))
	})

	t.Run("rejects empty input", func(t *testing.T) {
		s := newStore(t, NewClock(start).Now)
		require.Error(t, s.Put(ctx, "", NewState(start, time.Minute)))
		require.Error(t, s.Put(ctx, "flow-1", nil))
	})

	t.Run("rejects a flow without expiry", func(t *testing.T) {
		s := newStore(t, NewClock(start).Now)
		st := NewState(start, time.Minute)
		st.ExpiresAt = time.Time{}
		require.ErrorIs(t, s.Put(ctx, "flow-1", st), flowstate.ErrNoExpiry)

		_, err := s.TakeAndInvalidate(ctx, "flow-1")
		require.ErrorIs(t, err, flowstate.ErrNotFound)
	})

	t.Run("concurrent takes succeed exactly once", func(t *testing.T) {
		s := newStore(t, NewClock(start).Now)
		require.NoError(t, s.Put(ctx, "flow-1", NewState(start, 10*time.Minute)))

		const workers = 16
		var wg sync.WaitGroup
		results := make(chan error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.TakeAndInvalidate(ctx, "flow-1")
				results <- err
			}()
		}
		wg.Wait()
		close(results)

		successes := 0
		for err := range results {
			if err == nil {
				successes++
				continue
			}
			require.ErrorIs(t, err, flowstate.ErrNotFound)
		}
		require.Equal(t, 1, successes)
	})

	if _, ok := newStore(t, NewClock(start).Now).(flowstate.Cleaner); ok {
		t.Run("cleanup purges only expired flows", func(t *testing.T) {
			clock := NewClock(start)
			s := newStore(t, clock.Now)
			for i := 0; i < 3; i++ {
				require.NoError(t, s.Put(ctx, fmt.Sprintf("short-%d", i), NewState(start, time.Minute)))
			}
			require.NoError(t, s.Put(ctx, "long", NewState(start, time.Hour)))

			clock.Advance(5 * time.Minute)
			n, err := s.(flowstate.Cleaner).Cleanup(ctx)
			require.NoError(t, err)
			require.Equal(t, 3, n)

			_, err = s.TakeAndInvalidate(ctx, "long")
			require.NoError(t, err)
		})
	}
}
