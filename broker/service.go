// Package broker runs the two halves of an authorization code login: it
// starts a flow by redirecting to the provider and completes it when the
// provider calls back.
package broker

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-oauth-broker/exchange"
	"github.com/jrsteele09/go-oauth-broker/flowstate"
	"github.com/jrsteele09/go-oauth-broker/oauthmodel"
	"github.com/jrsteele09/go-oauth-broker/pkce"
	"github.com/jrsteele09/go-oauth-broker/providers"
	"github.com/jrsteele09/go-oauth-broker/tokensink"
)

const DefaultFlowTTL = 10 * time.Minute

// Exchanger swaps an authorization code for tokens.
type Exchanger interface {
	Exchange(ctx context.Context, req exchange.Request) (*oauthmodel.TokenResponse, error)
}

var _ Exchanger = (*exchange.Client)(nil)

// Dependencies holds the collaborators of the Service
type Dependencies struct {
	Registry  *providers.Registry // Provider profiles
	Store     flowstate.Store     // Flow state between initiate and callback
	Exchanger Exchanger           // Token endpoint client
	Sink      tokensink.Sink      // Backend token store
}

// Settings are the deployment values the Service needs.
type Settings struct {
	CallbackURL           string
	LandingURL            string
	FlowTTL               time.Duration
	VerifierLength        int
	AllowEndpointOverride bool
}

type Service struct {
	deps     Dependencies
	settings Settings
	nowTime  func() time.Time
	newID    func() string
}

type Option func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// WithIDGenerator replaces the generator used for flow ids and state values (primarily for testing)
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		s.newID = newID
	}
}

func New(deps Dependencies, settings Settings, options ...Option) (*Service, error) {
	if deps.Registry == nil {
		return nil, errors.New("[broker New] Registry is required")
	}
	if deps.Store == nil {
		return nil, errors.New("[broker New] Store is required")
	}
	if deps.Exchanger == nil {
		return nil, errors.New("[broker New] Exchanger is required")
	}
	if deps.Sink == nil {
		return nil, errors.New("[broker New] Sink is required")
	}
	if settings.CallbackURL == "" {
		return nil, errors.New("[broker New] CallbackURL is required")
	}
	if settings.LandingURL == "" {
		return nil, errors.New("[broker New] LandingURL is required")
	}
	if settings.FlowTTL <= 0 {
		settings.FlowTTL = DefaultFlowTTL
	}
	if settings.VerifierLength == 0 {
		settings.VerifierLength = pkce.DefaultVerifierLength
	}

	s := &Service{
		deps:     deps,
		settings: settings,
		nowTime:  time.Now,
		newID:    func() string { return uuid.New().String() },
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Providers returns the registry the service initiates flows against.
func (s *Service) Providers() *providers.Registry {
	return s.deps.Registry
}

// FlowTTL is how long an initiated flow stays claimable.
func (s *Service) FlowTTL() time.Duration {
	return s.settings.FlowTTL
}
