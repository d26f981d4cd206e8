package oauthmodel

import "errors"

var (
	ErrInvalidAuthorizationEndpoint = errors.New("invalid authorization endpoint")
	ErrInvalidCodeChallengeMethod   = errors.New("invalid code challenge method")
	ErrInvalidRedirectUri           = errors.New("invalid or no redirect uri")
	ErrMissingClientID              = errors.New("client id is required")
	ErrMissingState                 = errors.New("state is required")
)
