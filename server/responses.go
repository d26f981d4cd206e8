package server

import (
	"encoding/json"
	"errors"
	"net/http"

	brokererrors "github.com/jrsteele09/go-oauth-broker/internal/errors"
	"github.com/rs/zerolog"
)

const contentTypeJSON = "application/json"

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	// Headers are already sent, an encode failure cannot be reported
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, errorResponse{Error: message})
}

// clientErrors are reported to the caller with their own message.
var clientErrors = []error{
	brokererrors.ErrMissingCredentials,
	brokererrors.ErrUnknownProvider,
	brokererrors.ErrInvalidPKCE,
	brokererrors.ErrInvalidRequest,
	brokererrors.ErrStateMismatch,
	brokererrors.ErrFlowExpired,
	brokererrors.ErrMissingAuthorizationCode,
}

// statusFor maps the error taxonomy to a status code and a message safe to
// show the browser. Provider bodies and internal detail never leave the server.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, brokererrors.ErrUpstreamTimeout):
		return http.StatusGatewayTimeout, brokererrors.ErrUpstreamTimeout.Error()
	case errors.Is(err, brokererrors.ErrRateLimited):
		return http.StatusTooManyRequests, brokererrors.ErrRateLimited.Error()
	case errors.Is(err, brokererrors.ErrTokenExchangeFailed):
		return http.StatusBadGateway, brokererrors.ErrTokenExchangeFailed.Error()
	case errors.Is(err, brokererrors.ErrTokenSinkUnavailable):
		return http.StatusServiceUnavailable, brokererrors.ErrTokenSinkUnavailable.Error()
	}
	for _, target := range clientErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest, target.Error()
		}
	}
	return http.StatusInternalServerError, brokererrors.ErrInternal.Error()
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := statusFor(err)
	event := zerolog.Ctx(r.Context()).Warn()
	if status >= http.StatusInternalServerError {
		event = zerolog.Ctx(r.Context()).Error()
	}
	event.Err(err).Int("status", status).Str("path", r.URL.Path).Msg("request failed")
	writeJSONError(w, message, status)
}
