package flowstate_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/go-oauth-broker/flowstate"
	"github.com/jrsteele09/go-oauth-broker/flowstate/storetest"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T, now func() time.Time) flowstate.Store {
		return flowstate.NewInMemoryStore(flowstate.WithNowTime(now))
	})
}

func TestRunJanitor(t *testing.T) {
	start := time.Now()
	store := flowstate.NewInMemoryStore(flowstate.WithNowTime(func() time.Time { return start.Add(time.Hour) }))
	require.NoError(t, store.Put(context.Background(), "flow-1", storetest.NewState(start, time.Minute)))

	ctx, cancel := context.WithCancel(context.Background())
	purged := make(chan int, 1)
	done := make(chan struct{})
	go func() {
		flowstate.RunJanitor(ctx, store, 5*time.Millisecond, nil, func(n int) {
			select {
			case purged <- n:
			default:
			}
		})
		close(done)
	}()

	select {
	case n := <-purged:
		require.Equal(t, 1, n)
	case <-time.After(2 * time.Second):
		t.Fatal("janitor did not run")
	}
	require.Equal(t, 0, store.Len())

	cancel()
	<-done
}
