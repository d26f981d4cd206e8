package oauthmodel

// ResponseType represents the OAuth 2.0 response type.
// Determines what is returned from the authorization endpoint.
type ResponseType string

const (
	// CodeResponseType indicates the authorization code flow.
	// The provider returns an authorization code that the broker exchanges at the token endpoint.
	// Example: https://accounts.google.com/o/oauth2/v2/auth?response_type=code&client_id=...
	CodeResponseType ResponseType = "code"
)

// CodeMethodType represents the PKCE (Proof Key for Code Exchange) challenge method.
type CodeMethodType string

const (
	// CodeMethodTypeS256 indicates SHA-256 hashing is used for the code challenge.
	// Sent: code_challenge = BASE64URL(SHA256(code_verifier))
	// Provider validates: SHA256(code_verifier from token request) == stored code_challenge
	// The broker never sends "plain".
	CodeMethodTypeS256 CodeMethodType = "S256"
)

// GrantType represents the OAuth 2.0 grant type used at the token endpoint.
type GrantType string

const (
	// AuthorizationCodeGrant exchanges an authorization code for tokens.
	// Token request includes: code, redirect_uri, code_verifier (if PKCE) and
	// HTTP Basic client authentication.
	AuthorizationCodeGrant GrantType = "authorization_code"
)

const (
	// AccessTypeOffline asks the provider for a refresh token alongside the access token.
	// Google honours it, other providers ignore unknown parameters.
	AccessTypeOffline = "offline"

	// PromptConsent forces the consent screen so a refresh token is issued on every login.
	PromptConsent = "consent"
)

// Query parameter names used on the authorization request and response.
const (
	ParamResponseType        = "response_type"
	ParamClientID            = "client_id"
	ParamRedirectURI         = "redirect_uri"
	ParamScope               = "scope"
	ParamState               = "state"
	ParamAccessType          = "access_type"
	ParamPrompt              = "prompt"
	ParamCodeChallenge       = "code_challenge"
	ParamCodeChallengeMethod = "code_challenge_method"
	ParamCode                = "code"
	ParamError               = "error"
	ParamErrorDescription    = "error_description"
)
