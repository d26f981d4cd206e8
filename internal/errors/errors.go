package errors

import (
	"errors"
	"fmt"
)

// Error taxonomy for the OAuth2 flow broker. Every error that crosses the HTTP
// boundary wraps exactly one of these so the server can map it to a status code.
var (
	// Initiation errors
	ErrMissingCredentials = errors.New("client id and client secret are required")
	ErrUnknownProvider    = errors.New("unknown provider")
	ErrInvalidPKCE        = errors.New("code verifier does not match code challenge")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrRateLimited        = errors.New("too many login attempts")

	// Callback errors
	ErrStateMismatch            = errors.New("invalid state parameter")
	ErrFlowExpired              = errors.New("login flow expired or not found")
	ErrMissingAuthorizationCode = errors.New("authorization code is missing")

	// Upstream errors
	ErrTokenExchangeFailed  = errors.New("failed to retrieve access token")
	ErrTokenSinkUnavailable = errors.New("failed to store access token")
	ErrUpstreamTimeout      = errors.New("upstream request timed out")

	// Storage errors
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Join is errors.Join, re-exported so callers only import this package.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
