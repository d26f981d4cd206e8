package valkeystore

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-oauth-broker/flowstate"
	"github.com/stretchr/testify/require"
)

func TestKeyTTL(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expiresAt time.Time
		want      time.Duration
		ok        bool
	}{
		{"whole seconds", now.Add(10 * time.Minute), 10 * time.Minute, true},
		{"rounds up", now.Add(1500 * time.Millisecond), 2 * time.Second, true},
		{"sub second", now.Add(time.Millisecond), time.Second, true},
		{"expired", now.Add(-time.Second), 0, false},
		{"exactly now", now, 0, false},
		{"no expiry", time.Time{}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := keyTTL(&flowstate.FlowState{ExpiresAt: tt.expiresAt}, now)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestKeyPrefix(t *testing.T) {
	s := &Store{keyPrefix: defaultKeyPrefix}
	require.Equal(t, "oauth-broker:flow:abc", s.key("abc"))

	WithKeyPrefix("test:")(s)
	require.Equal(t, "test:abc", s.key("abc"))
}

func TestOpenUnreachable(t *testing.T) {
	sealer, err := flowstate.NewSealer([]byte("secret"))
	require.NoError(t, err)

	_, err = Open("127.0.0.1:1", flowstate.NewCodec(sealer))
	require.Error(t, err)

	_, err = Open("127.0.0.1:1", nil)
	require.Error(t, err)
}
