package oauthmodel

import (
	"net/url"

	"github.com/jrsteele09/go-oauth-broker/internal/utils"
)

// CallbackParameters is the authorization response delivered to the callback
// endpoint by the provider.
type CallbackParameters struct {
	// State echoes the value sent on the authorization request.
	State *string

	// Code is the single use authorization code. Nil when the provider returned an error.
	Code *string

	// Error is the provider's error code, e.g. "access_denied".
	Error *string

	// ErrorDescription is optional human readable text from the provider.
	// Logged, never returned to the browser.
	ErrorDescription *string
}

// ParseCallbackParameters reads the authorization response from a query string.
// Blank values are treated as absent.
func ParseCallbackParameters(q url.Values) CallbackParameters {
	return CallbackParameters{
		State:            utils.NonEmpty(q.Get(ParamState)),
		Code:             utils.NonEmpty(q.Get(ParamCode)),
		Error:            utils.NonEmpty(q.Get(ParamError)),
		ErrorDescription: utils.NonEmpty(q.Get(ParamErrorDescription)),
	}
}
