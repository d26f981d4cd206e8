package oauthmodel_test

import (
	"net/url"
	"strings"
	"testing"

	"github.com/jrsteele09/go-oauth-broker/internal/utils"
	"github.com/jrsteele09/go-oauth-broker/oauthmodel"
	"github.com/stretchr/testify/require"
)

const (
	testEndpoint    = "https://accounts.google.com/o/oauth2/v2/auth"
	testRedirectURI = "https://broker.example.com/api/oauth2/callback"
	testChallenge   = "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"
)

func TestAuthorizationRequestURL(t *testing.T) {
	t.Run("includes the fixed authorization parameters", func(t *testing.T) {
		req := oauthmodel.AuthorizationRequest{
			ClientID:    "client-1",
			RedirectURI: testRedirectURI,
			Scope:       "https://mail.google.com/",
			State:       "state-1",
		}
		raw, err := req.URL(testEndpoint)
		require.NoError(t, err)

		u, err := url.Parse(raw)
		require.NoError(t, err)
		require.Equal(t, "accounts.google.com", u.Host)
		q := u.Query()
		require.Equal(t, "code", q.Get("response_type"))
		require.Equal(t, "client-1", q.Get("client_id"))
		require.Equal(t, testRedirectURI, q.Get("redirect_uri"))
		require.Equal(t, "https://mail.google.com/", q.Get("scope"))
		require.Equal(t, "state-1", q.Get("state"))
		require.Equal(t, "offline", q.Get("access_type"))
		require.Equal(t, "consent", q.Get("prompt"))
		require.False(t, q.Has("code_challenge"))
		require.False(t, q.Has("code_challenge_method"))
	})

	t.Run("adds the PKCE challenge when present", func(t *testing.T) {
		req := oauthmodel.AuthorizationRequest{
			ClientID:            "client-1",
			RedirectURI:         testRedirectURI,
			State:               "state-1",
			CodeChallenge:       utils.Ptr(testChallenge),
			CodeChallengeMethod: oauthmodel.CodeMethodTypeS256,
		}
		raw, err := req.URL(testEndpoint)
		require.NoError(t, err)

		q, err := url.ParseQuery(strings.SplitN(raw, "?", 2)[1])
		require.NoError(t, err)
		require.Equal(t, testChallenge, q.Get("code_challenge"))
		require.Equal(t, "S256", q.Get("code_challenge_method"))
	})

	t.Run("encodes spaces as %20 and never emits a literal plus", func(t *testing.T) {
		req := oauthmodel.AuthorizationRequest{
			ClientID:    "client+1",
			RedirectURI: testRedirectURI,
			Scope:       "tweet.read tweet.write users.read offline.access",
			State:       "state-1",
		}
		raw, err := req.URL("https://twitter.com/i/oauth2/authorize")
		require.NoError(t, err)
		require.NotContains(t, raw, "+")
		require.Contains(t, raw, "tweet.read%20tweet.write")
		require.Contains(t, raw, "client%2B1")

		u, err := url.Parse(raw)
		require.NoError(t, err)
		require.Equal(t, "tweet.read tweet.write users.read offline.access", u.Query().Get("scope"))
		require.Equal(t, "client+1", u.Query().Get("client_id"))
	})

	t.Run("keeps query parameters already on the endpoint", func(t *testing.T) {
		req := oauthmodel.AuthorizationRequest{ClientID: "c", RedirectURI: testRedirectURI, State: "s"}
		raw, err := req.URL("https://login.example.com/authorize?tenant=common")
		require.NoError(t, err)
		u, err := url.Parse(raw)
		require.NoError(t, err)
		require.Equal(t, "common", u.Query().Get("tenant"))
	})

	t.Run("rejects invalid requests", func(t *testing.T) {
		tests := []struct {
			name     string
			req      oauthmodel.AuthorizationRequest
			endpoint string
			err      error
		}{
			{"missing client id", oauthmodel.AuthorizationRequest{RedirectURI: testRedirectURI, State: "s"}, testEndpoint, oauthmodel.ErrMissingClientID},
			{"missing state", oauthmodel.AuthorizationRequest{ClientID: "c", RedirectURI: testRedirectURI}, testEndpoint, oauthmodel.ErrMissingState},
			{"relative redirect", oauthmodel.AuthorizationRequest{ClientID: "c", RedirectURI: "/callback", State: "s"}, testEndpoint, oauthmodel.ErrInvalidRedirectUri},
			{"non http redirect", oauthmodel.AuthorizationRequest{ClientID: "c", RedirectURI: "javascript:alert(1)", State: "s"}, testEndpoint, oauthmodel.ErrInvalidRedirectUri},
			{"challenge without method", oauthmodel.AuthorizationRequest{ClientID: "c", RedirectURI: testRedirectURI, State: "s", CodeChallenge: utils.Ptr(testChallenge)}, testEndpoint, oauthmodel.ErrInvalidCodeChallengeMethod},
			{"relative endpoint", oauthmodel.AuthorizationRequest{ClientID: "c", RedirectURI: testRedirectURI, State: "s"}, "/authorize", oauthmodel.ErrInvalidAuthorizationEndpoint},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := tt.req.URL(tt.endpoint)
				require.ErrorIs(t, err, tt.err)
			})
		}
	})
}

func TestParseCallbackParameters(t *testing.T) {
	t.Run("success response", func(t *testing.T) {
		p := oauthmodel.ParseCallbackParameters(url.Values{"state": {"s"}, "code": {"abc"}})
		require.Equal(t, "s", utils.Value(p.State))
		require.Equal(t, "abc", utils.Value(p.Code))
		require.Nil(t, p.Error)
	})

	t.Run("error response", func(t *testing.T) {
		p := oauthmodel.ParseCallbackParameters(url.Values{
			"state":             {"s"},
			"error":             {"access_denied"},
			"error_description": {"The user denied access"},
		})
		require.Nil(t, p.Code)
		require.Equal(t, "access_denied", utils.Value(p.Error))
		require.Equal(t, "The user denied access", utils.Value(p.ErrorDescription))
	})

	t.Run("blank values are absent", func(t *testing.T) {
		p := oauthmodel.ParseCallbackParameters(url.Values{"state": {""}, "code": {"  "}})
		require.Nil(t, p.State)
		require.Nil(t, p.Code)
	})
}
