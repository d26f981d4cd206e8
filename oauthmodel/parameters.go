package oauthmodel

import (
	"fmt"
	"net/url"
	"strings"
)

// AuthorizationRequest holds the parameters the broker sends to a provider's
// authorization endpoint when it redirects the browser.
type AuthorizationRequest struct {
	// ClientID identifies the end user's application registered at the provider.
	// Required: Yes
	// Example: "1234567890-abc.apps.googleusercontent.com"
	ClientID string

	// RedirectURI is where the provider sends the browser back to.
	// Required: Yes
	// Example: "https://broker.example.com/api/oauth2/callback"
	// Security: Must be an absolute http(s) URL and must match the value registered at the provider
	RedirectURI string

	// Scope is the permission string requested from the provider.
	// Required: No
	// Example: "https://mail.google.com/" or "read,write"
	// Delimiter: Space or comma, depending on the provider. Sent as is.
	Scope string

	// State is the opaque CSRF token the provider echoes back on the callback.
	// Required: Yes
	// Security: Random UUID, compared in constant time on the callback
	State string

	// CodeChallenge is the PKCE challenge derived from the flow's code verifier.
	// Required: Only when PKCE is active for the flow. Nil otherwise.
	// Length: 43 characters for S256
	CodeChallenge *string

	// CodeChallengeMethod specifies how CodeChallenge was derived.
	// Required: Yes if CodeChallenge is set. Only S256 is sent.
	CodeChallengeMethod CodeMethodType
}

// Validate checks the request before it is turned into a URL.
func (p *AuthorizationRequest) Validate() error {
	if strings.TrimSpace(p.ClientID) == "" {
		return ErrMissingClientID
	}
	if strings.TrimSpace(p.State) == "" {
		return ErrMissingState
	}
	if !redirectURIValid(p.RedirectURI) {
		return ErrInvalidRedirectUri
	}
	if p.CodeChallenge != nil && p.CodeChallengeMethod != CodeMethodTypeS256 {
		return ErrInvalidCodeChallengeMethod
	}
	return nil
}

// URL builds the provider redirect from the authorization endpoint. Query
// parameters already present on the endpoint are preserved. Spaces are encoded
// as %20 and the result never contains a literal '+', since some providers
// reject form-style encoding in scope values.
func (p *AuthorizationRequest) URL(authorizationEndpoint string) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	u, err := url.Parse(authorizationEndpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("[AuthorizationRequest URL] %q: %w", authorizationEndpoint, ErrInvalidAuthorizationEndpoint)
	}

	q := u.Query()
	q.Set(ParamResponseType, string(CodeResponseType))
	q.Set(ParamClientID, p.ClientID)
	q.Set(ParamRedirectURI, p.RedirectURI)
	q.Set(ParamScope, p.Scope)
	q.Set(ParamState, p.State)
	q.Set(ParamAccessType, AccessTypeOffline)
	q.Set(ParamPrompt, PromptConsent)
	if p.CodeChallenge != nil {
		q.Set(ParamCodeChallenge, *p.CodeChallenge)
		q.Set(ParamCodeChallengeMethod, string(p.CodeChallengeMethod))
	}

	// url.Values.Encode escapes a literal '+' as %2B, so every '+' left is a space.
	u.RawQuery = strings.ReplaceAll(q.Encode(), "+", "%20")
	return u.String(), nil
}

func redirectURIValid(redirectURI string) bool {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" && u.Fragment == ""
}
