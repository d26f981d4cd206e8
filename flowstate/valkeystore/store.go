// Package valkeystore keeps flow state in Valkey so that several broker
// replicas can share in-flight logins. Expiry is delegated to the server.
package valkeystore

import (
	"context"
	"fmt"
	"time"

	"github.com/jrsteele09/go-oauth-broker/flowstate"
	"github.com/valkey-io/valkey-go"
)

const defaultKeyPrefix = "oauth-broker:flow:"

type Store struct {
	client    valkey.Client
	codec     *flowstate.Codec
	keyPrefix string
	nowTime   func() time.Time
}

var _ flowstate.Store = (*Store)(nil)

type Option func(*Store)

func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		s.keyPrefix = prefix
	}
}

// WithNowTime sets the clock used to compute key TTLs (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Store) {
		s.nowTime = nowFunc
	}
}

// Open connects to the Valkey server at addr.
func Open(addr string, codec *flowstate.Codec, options ...Option) (*Store, error) {
	if codec == nil {
		return nil, fmt.Errorf("[valkeystore Open] codec is required")
	}
	client, err := valkey.NewClient(valkey.ClientOption{InitAddress: []string{addr}})
	if err != nil {
		return nil, fmt.Errorf("[valkeystore Open] connect %s: %w", addr, err)
	}
	return New(client, codec, options...), nil
}

// New wraps an existing client.
func New(client valkey.Client, codec *flowstate.Codec, options ...Option) *Store {
	s := &Store{
		client:    client,
		codec:     codec,
		keyPrefix: defaultKeyPrefix,
		nowTime:   time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *Store) Close() {
	s.client.Close()
}

func (s *Store) Put(ctx context.Context, flowID string, state *flowstate.FlowState) error {
	if err := flowstate.ValidatePut(flowID, state); err != nil {
		return fmt.Errorf("[valkeystore Put] %w", err)
	}
	ttl, ok := keyTTL(state, s.nowTime())
	if !ok {
		return fmt.Errorf("[valkeystore Put] flow %s is already expired", flowID)
	}
	blob, err := s.codec.Encode(flowID, state)
	if err != nil {
		return fmt.Errorf("[valkeystore Put] %w", err)
	}

	cmd := s.client.B().Set().Key(s.key(flowID)).Value(valkey.BinaryString(blob)).Ex(ttl).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("[valkeystore Put] set: %w", err)
	}
	return nil
}

// TakeAndInvalidate uses GETDEL so that concurrent callbacks cannot both read the flow.
func (s *Store) TakeAndInvalidate(ctx context.Context, flowID string) (*flowstate.FlowState, error) {
	if flowID == "" {
		return nil, fmt.Errorf("[valkeystore TakeAndInvalidate] flow id is required")
	}
	blob, err := s.client.Do(ctx, s.client.B().Getdel().Key(s.key(flowID)).Build()).AsBytes()
	if valkey.IsValkeyNil(err) {
		return nil, fmt.Errorf("[valkeystore TakeAndInvalidate] %w", flowstate.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("[valkeystore TakeAndInvalidate] getdel: %w", err)
	}
	state, err := s.codec.Decode(flowID, blob)
	if err != nil {
		return nil, fmt.Errorf("[valkeystore TakeAndInvalidate] %w", err)
	}
	if state.Expired(s.nowTime()) {
		return nil, fmt.Errorf("[valkeystore TakeAndInvalidate] expired: %w", flowstate.ErrNotFound)
	}
	return state, nil
}

func (s *Store) key(flowID string) string {
	return s.keyPrefix + flowID
}

// keyTTL rounds the remaining lifetime up to whole seconds, the resolution of EX.
func keyTTL(state *flowstate.FlowState, now time.Time) (time.Duration, bool) {
	if state.ExpiresAt.IsZero() {
		return 0, false
	}
	remaining := state.ExpiresAt.Sub(now)
	if remaining <= 0 {
		return 0, false
	}
	secs := (remaining + time.Second - 1) / time.Second
	return secs * time.Second, true
}
