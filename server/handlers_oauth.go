package server

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/jrsteele09/go-oauth-broker/broker"
	brokererrors "github.com/jrsteele09/go-oauth-broker/internal/errors"
	"github.com/jrsteele09/go-oauth-broker/internal/utils"
	"github.com/jrsteele09/go-oauth-broker/oauthmodel"
	"github.com/rs/zerolog"
)

// Login query parameters. Aliases are accepted for older front ends.
const (
	paramIntegration      = "integration"
	paramClientID         = "clientId"
	paramClientSecret     = "clientSecret"
	paramAPIKey           = "apiKey"
	paramControllerAPIKey = "controllerApiKey"
	paramExpandAPIKey     = "expandApiKey"
	paramTableName        = "tableName"
	paramScope            = "scope"
	paramRedirectURI      = "redirect_uri"
	paramRedirectURIAlias = "redirectUri"
	paramLoginBase        = "loginBase"
	paramExchangeBase     = "exchangeBase"
	paramCodeVerifier     = "code_verifier"
	paramVerifierRequired = "verifierRequired"
)

// LoginHandler starts a flow and redirects the browser to the provider.
//
//	GET /api/oauth2/login?integration=gmail&clientId=..&clientSecret=..&apiKey=..
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.allow(r) {
			rateLimited.Inc()
			writeError(w, r, fmt.Errorf("[Server LoginHandler] %s: %w", clientAddress(r), brokererrors.ErrRateLimited))
			return
		}

		req, err := parseInitiateRequest(r.URL.Query())
		if err != nil {
			writeError(w, r, err)
			return
		}
		req.FlowID = s.cookies.flowID(r)

		res, err := s.broker.Initiate(r.Context(), req)
		if err != nil {
			writeError(w, r, err)
			return
		}

		if err := s.cookies.issue(w, r, res.FlowID, res.ExpiresAt); err != nil {
			writeError(w, r, fmt.Errorf("[Server LoginHandler] %w: %w", brokererrors.ErrInternal, err))
			return
		}

		zerolog.Ctx(r.Context()).Info().Str("provider", req.Integration).Msg("login initiated")
		http.Redirect(w, r, res.RedirectURL, http.StatusFound)
	}
}

// CallbackHandler completes a flow. The binding cookie is cleared whatever the outcome.
//
//	GET /api/oauth2/callback?state=..&code=..
func (s *Server) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flowID := s.cookies.flowID(r)
		s.cookies.clear(w, r)

		res, err := s.broker.Complete(r.Context(), broker.CallbackRequest{
			FlowID: flowID,
			Params: oauthmodel.ParseCallbackParameters(r.URL.Query()),
		})
		if err != nil {
			writeError(w, r, err)
			return
		}

		zerolog.Ctx(r.Context()).Info().Str("provider", res.Provider).Msg("login completed")
		http.Redirect(w, r, res.LandingURL, http.StatusFound)
	}
}

func parseInitiateRequest(q url.Values) (broker.InitiateRequest, error) {
	req := broker.InitiateRequest{
		Integration:   strings.TrimSpace(utils.FirstNonEmpty(q.Get(paramIntegration), q.Get(paramTableName))),
		ClientID:      strings.TrimSpace(q.Get(paramClientID)),
		ClientSecret:  q.Get(paramClientSecret),
		APIKey:        utils.FirstNonEmpty(q.Get(paramAPIKey), q.Get(paramControllerAPIKey), q.Get(paramExpandAPIKey)),
		TableName:     utils.NonEmpty(q.Get(paramTableName)),
		Scope:         utils.NonEmpty(q.Get(paramScope)),
		RedirectURI:   utils.NonEmpty(utils.FirstNonEmpty(q.Get(paramRedirectURI), q.Get(paramRedirectURIAlias))),
		LoginBase:     utils.NonEmpty(q.Get(paramLoginBase)),
		ExchangeBase:  utils.NonEmpty(q.Get(paramExchangeBase)),
		CodeVerifier:  utils.NonEmpty(q.Get(paramCodeVerifier)),
		CodeChallenge: utils.NonEmpty(q.Get(oauthmodel.ParamCodeChallenge)),
	}

	if method := q.Get(oauthmodel.ParamCodeChallengeMethod); method != "" && method != string(oauthmodel.CodeMethodTypeS256) {
		return req, fmt.Errorf("[parseInitiateRequest] unsupported code_challenge_method %q: %w", method, brokererrors.ErrInvalidPKCE)
	}

	if raw := q.Get(paramVerifierRequired); raw != "" {
		required, err := strconv.ParseBool(raw)
		if err != nil {
			return req, fmt.Errorf("[parseInitiateRequest] %s must be a boolean: %w", paramVerifierRequired, brokererrors.ErrInvalidRequest)
		}
		req.VerifierRequired = &required
	}
	return req, nil
}
