package flowstate

import (
	"context"
	"errors"
	"time"

	brokererrors "github.com/jrsteele09/go-oauth-broker/internal/errors"
)

// ErrNotFound is returned when no live flow exists for a flow id.
var ErrNotFound = brokererrors.ErrNotFound

var (
	errEmptyFlowID = errors.New("flow id cannot be empty")
	errNilState    = errors.New("flow state cannot be nil")

	// ErrNoExpiry rejects a flow without a deadline. Every store bounds a flow's lifetime.
	ErrNoExpiry = errors.New("flow state has no expiry")
)

// Store persists flow state between initiation and callback.
type Store interface {
	// Put writes the state for flowID, replacing any existing entry. States
	// with a zero ExpiresAt are rejected with ErrNoExpiry.
	Put(ctx context.Context, flowID string, state *FlowState) error
	// TakeAndInvalidate returns the state for flowID and deletes it in the same
	// step. Expired or missing entries yield ErrNotFound.
	TakeAndInvalidate(ctx context.Context, flowID string) (*FlowState, error)
}

// Cleaner is implemented by stores that need expired entries purged periodically.
type Cleaner interface {
	Cleanup(ctx context.Context) (int, error)
}

// ValidatePut checks the arguments of Store.Put.
func ValidatePut(flowID string, state *FlowState) error {
	if flowID == "" {
		return errEmptyFlowID
	}
	if state == nil {
		return errNilState
	}
	if state.ExpiresAt.IsZero() {
		return ErrNoExpiry
	}
	return nil
}

// RunJanitor calls Cleanup every interval until ctx is done.
func RunJanitor(ctx context.Context, c Cleaner, interval time.Duration, onError func(error), onPurge func(int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := c.Cleanup(ctx)
			if err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			if n > 0 && onPurge != nil {
				onPurge(n)
			}
		}
	}
}
