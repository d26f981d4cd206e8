package broker

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/go-oauth-broker/flowstate"
	brokererrors "github.com/jrsteele09/go-oauth-broker/internal/errors"
	"github.com/jrsteele09/go-oauth-broker/internal/utils"
	"github.com/jrsteele09/go-oauth-broker/oauthmodel"
	"github.com/jrsteele09/go-oauth-broker/pkce"
	"github.com/jrsteele09/go-oauth-broker/providers"
	"github.com/rs/zerolog/log"
)

// InitiateRequest is a parsed login request. Optional inputs are nil when absent.
type InitiateRequest struct {
	Integration  string
	ClientID     string
	ClientSecret string
	APIKey       string
	// TableName defaults to the integration name.
	TableName *string
	// Scope replaces the profile's scope when set.
	Scope *string
	// RedirectURI defaults to the broker's callback URL.
	RedirectURI *string
	// LoginBase and ExchangeBase replace the profile endpoints, only when overrides are enabled.
	LoginBase    *string
	ExchangeBase *string
	// CodeVerifier and CodeChallenge are a caller generated PKCE pair.
	CodeVerifier  *string
	CodeChallenge *string
	// VerifierRequired asks for PKCE even when the provider does not require it.
	// An explicit false drops a caller supplied pair for providers without PKCE.
	VerifierRequired *bool
	// FlowID continues an existing browser session's flow slot. Empty starts a new one.
	FlowID string
}

type InitiateResult struct {
	FlowID      string
	RedirectURL string
	ExpiresAt   time.Time
}

// Initiate validates the request, stores a new flow state and returns the
// provider authorization URL. It makes no calls to the provider.
func (s *Service) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	res, err := s.initiate(ctx, req)
	if err != nil {
		initiationFailures.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}
	return res, nil
}

func (s *Service) initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	if strings.TrimSpace(req.ClientID) == "" || strings.TrimSpace(req.ClientSecret) == "" {
		return nil, fmt.Errorf("[Service Initiate] %w", brokererrors.ErrMissingCredentials)
	}

	profile, err := s.deps.Registry.Get(req.Integration)
	if err != nil {
		return nil, fmt.Errorf("[Service Initiate] %w", err)
	}

	if strings.TrimSpace(req.APIKey) == "" {
		return nil, fmt.Errorf("[Service Initiate] api key is required: %w", brokererrors.ErrInvalidRequest)
	}

	authEndpoint, tokenEndpoint := s.endpoints(profile, req)

	pair, err := s.pkcePair(profile, req)
	if err != nil {
		return nil, err
	}

	now := s.nowTime()
	flowID := req.FlowID
	if flowID == "" {
		flowID = s.newID()
	}

	state := &flowstate.FlowState{
		State:            s.newID(),
		Provider:         profile.Name,
		ClientID:         req.ClientID,
		ClientSecret:     req.ClientSecret,
		APIKey:           req.APIKey,
		TableName:        utils.FirstNonEmpty(utils.Value(req.TableName), profile.Name),
		RedirectURI:      utils.FirstNonEmpty(utils.Value(req.RedirectURI), s.settings.CallbackURL),
		VerifierRequired: pair != nil,
		ExchangeBase:     tokenEndpoint,
		CreatedAt:        now,
		ExpiresAt:        now.Add(s.settings.FlowTTL),
	}
	if pair != nil {
		state.CodeVerifier = utils.Ptr(pair.Verifier)
		state.CodeChallenge = utils.Ptr(pair.Challenge)
	}

	authReq := oauthmodel.AuthorizationRequest{
		ClientID:      state.ClientID,
		RedirectURI:   state.RedirectURI,
		Scope:         utils.FirstNonEmpty(utils.Value(req.Scope), profile.Scope),
		State:         state.State,
		CodeChallenge: state.CodeChallenge,
	}
	if pair != nil {
		authReq.CodeChallengeMethod = oauthmodel.CodeMethodTypeS256
	}
	redirectURL, err := authReq.URL(authEndpoint)
	if err != nil {
		return nil, fmt.Errorf("[Service Initiate] %w: %w", brokererrors.ErrInvalidRequest, err)
	}

	if err := s.deps.Store.Put(ctx, flowID, state); err != nil {
		return nil, fmt.Errorf("[Service Initiate] store flow: %w: %w", brokererrors.ErrInternal, err)
	}

	initiations.WithLabelValues(profile.Name, strconv.FormatBool(pair != nil)).Inc()
	log.Debug().Str("provider", profile.Name).Bool("pkce", pair != nil).Msg("login flow initiated")

	return &InitiateResult{
		FlowID:      flowID,
		RedirectURL: redirectURL,
		ExpiresAt:   state.ExpiresAt,
	}, nil
}

func (s *Service) endpoints(profile providers.Profile, req InitiateRequest) (string, string) {
	authEndpoint, tokenEndpoint := profile.AuthorizationEndpoint, profile.TokenEndpoint
	if req.LoginBase == nil && req.ExchangeBase == nil {
		return authEndpoint, tokenEndpoint
	}
	if !s.settings.AllowEndpointOverride {
		log.Debug().Str("provider", profile.Name).Msg("ignoring endpoint override, overrides are disabled")
		return authEndpoint, tokenEndpoint
	}
	if req.LoginBase != nil {
		authEndpoint = *req.LoginBase
	}
	if req.ExchangeBase != nil {
		tokenEndpoint = *req.ExchangeBase
	}
	return authEndpoint, tokenEndpoint
}

// pkcePair returns nil when PKCE is not active for the flow. The caller can
// turn PKCE on but never off for a provider that requires it.
func (s *Service) pkcePair(profile providers.Profile, req InitiateRequest) (*pkce.Pair, error) {
	if !pkceActive(profile, req) {
		return nil, nil
	}

	if req.CodeVerifier == nil {
		if req.CodeChallenge != nil {
			return nil, fmt.Errorf("[Service Initiate] code challenge without verifier: %w", brokererrors.ErrInvalidPKCE)
		}
		pair, err := pkce.NewPair(s.settings.VerifierLength)
		if err != nil {
			return nil, fmt.Errorf("[Service Initiate] %w", err)
		}
		return &pair, nil
	}

	verifier := *req.CodeVerifier
	if !pkce.ValidVerifier(verifier) {
		return nil, fmt.Errorf("[Service Initiate] malformed code verifier: %w", brokererrors.ErrInvalidPKCE)
	}
	if req.CodeChallenge != nil && !pkce.Verify(verifier, *req.CodeChallenge) {
		return nil, fmt.Errorf("[Service Initiate] %w", brokererrors.ErrInvalidPKCE)
	}
	return &pkce.Pair{Verifier: verifier, Challenge: pkce.DeriveChallenge(verifier)}, nil
}

func pkceActive(profile providers.Profile, req InitiateRequest) bool {
	if profile.PKCERequired {
		return true
	}
	if req.VerifierRequired != nil {
		return *req.VerifierRequired
	}
	return req.CodeVerifier != nil || req.CodeChallenge != nil
}
