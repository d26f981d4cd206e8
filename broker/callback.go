package broker

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/go-oauth-broker/exchange"
	"github.com/jrsteele09/go-oauth-broker/flowstate"
	brokererrors "github.com/jrsteele09/go-oauth-broker/internal/errors"
	"github.com/jrsteele09/go-oauth-broker/internal/utils"
	"github.com/jrsteele09/go-oauth-broker/oauthmodel"
	"github.com/jrsteele09/go-oauth-broker/tokensink"
	"github.com/rs/zerolog/log"
)

// CallbackRequest is the provider's authorization response plus the flow id
// bound to the browser. FlowID is empty when the browser carried no binding.
type CallbackRequest struct {
	FlowID string
	Params oauthmodel.CallbackParameters
}

type CallbackResult struct {
	Provider   string
	LandingURL string
}

// Complete validates the callback against the stored flow, exchanges the code
// and hands the tokens to the sink. The stored flow is consumed whatever the
// outcome, so a state value can succeed at most once.
func (s *Service) Complete(ctx context.Context, req CallbackRequest) (*CallbackResult, error) {
	var (
		stored  *flowstate.FlowState
		takeErr error
	)
	if req.FlowID != "" {
		stored, takeErr = s.deps.Store.TakeAndInvalidate(ctx, req.FlowID)
	}

	provider := "unknown"
	if stored != nil {
		provider = stored.Provider
	}

	res, err := s.complete(ctx, req, stored, takeErr)
	if err != nil {
		callbacks.WithLabelValues(provider, failureReason(err)).Inc()
		return nil, err
	}
	callbacks.WithLabelValues(provider, "success").Inc()
	return res, nil
}

func (s *Service) complete(ctx context.Context, req CallbackRequest, stored *flowstate.FlowState, takeErr error) (*CallbackResult, error) {
	if req.Params.State == nil {
		return nil, fmt.Errorf("[Service Complete] state is missing: %w", brokererrors.ErrStateMismatch)
	}
	if takeErr != nil && !errors.Is(takeErr, flowstate.ErrNotFound) {
		return nil, fmt.Errorf("[Service Complete] load flow: %w: %w", brokererrors.ErrInternal, takeErr)
	}
	if stored == nil {
		return nil, fmt.Errorf("[Service Complete] %w", brokererrors.ErrFlowExpired)
	}
	if subtle.ConstantTimeCompare([]byte(*req.Params.State), []byte(stored.State)) != 1 {
		return nil, fmt.Errorf("[Service Complete] %w", brokererrors.ErrStateMismatch)
	}

	if req.Params.Error != nil {
		log.Warn().
			Str("provider", stored.Provider).
			Str("error", *req.Params.Error).
			Str("error_description", utils.Value(req.Params.ErrorDescription)).
			Msg("provider returned an authorization error")
		return nil, fmt.Errorf("[Service Complete] provider error: %w", brokererrors.ErrMissingAuthorizationCode)
	}
	if req.Params.Code == nil {
		return nil, fmt.Errorf("[Service Complete] %w", brokererrors.ErrMissingAuthorizationCode)
	}

	exReq := exchange.Request{
		Provider:      stored.Provider,
		TokenEndpoint: stored.ExchangeBase,
		Code:          *req.Params.Code,
		RedirectURI:   stored.RedirectURI,
		ClientID:      stored.ClientID,
		ClientSecret:  stored.ClientSecret,
	}
	if stored.VerifierRequired {
		exReq.CodeVerifier = stored.CodeVerifier
	}

	start := time.Now()
	tokens, err := s.deps.Exchanger.Exchange(ctx, exReq)
	exchangeDuration.WithLabelValues(stored.Provider).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("[Service Complete] %w", err)
	}

	// The code is spent, so delivery outlives the browser request. The sink
	// bounds each attempt and the number of attempts.
	err = s.deps.Sink.Deliver(context.WithoutCancel(ctx), tokensink.Delivery{
		APIKey:       stored.APIKey,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ClientID:     stored.ClientID,
		ClientSecret: stored.ClientSecret,
		TableName:    stored.TableName,
	})
	if err != nil {
		return nil, fmt.Errorf("[Service Complete] %w", err)
	}

	log.Info().Str("provider", stored.Provider).Str("table_name", stored.TableName).Msg("integration connected")
	return &CallbackResult{
		Provider:   stored.Provider,
		LandingURL: s.settings.LandingURL,
	}, nil
}

// failureReason turns an error into a low cardinality metric label.
func failureReason(err error) string {
	switch {
	case errors.Is(err, brokererrors.ErrUpstreamTimeout):
		return "timeout"
	case errors.Is(err, brokererrors.ErrMissingCredentials):
		return "missing_credentials"
	case errors.Is(err, brokererrors.ErrUnknownProvider):
		return "unknown_provider"
	case errors.Is(err, brokererrors.ErrInvalidPKCE):
		return "invalid_pkce"
	case errors.Is(err, brokererrors.ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, brokererrors.ErrStateMismatch):
		return "state_mismatch"
	case errors.Is(err, brokererrors.ErrFlowExpired):
		return "flow_expired"
	case errors.Is(err, brokererrors.ErrMissingAuthorizationCode):
		return "missing_code"
	case errors.Is(err, brokererrors.ErrTokenExchangeFailed):
		return "exchange_failed"
	case errors.Is(err, brokererrors.ErrTokenSinkUnavailable):
		return "sink_unavailable"
	default:
		return "internal"
	}
}
