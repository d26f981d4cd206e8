package oauthmodel

// TokenResponse is the part of a provider's token endpoint response the broker
// forwards to the token sink.
type TokenResponse struct {
	// AccessToken grants access to the provider's API on behalf of the end user.
	// Always present on a successful exchange.
	// Security: Never logged, never written to a response body or redirect URL
	AccessToken string `json:"access_token"`

	// RefreshToken is used by the backend to renew the access token.
	// Nil when the provider did not issue one. Serialised as null, not as "".
	// Security: Never logged, never written to a response body or redirect URL
	RefreshToken *string `json:"refresh_token"`

	// TokenType is usually "Bearer". Informational only.
	TokenType string `json:"token_type,omitempty"`

	// Scope as granted by the provider. May be narrower than requested.
	Scope string `json:"scope,omitempty"`
}
