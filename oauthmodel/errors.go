package oauthmodel

import "errors"

var (
	ErrMissingClientID        = errors.New("client id is required")
	ErrMissingRedirectURI     = errors.New("redirect uri is required")
	ErrMissingLoginURL        = errors.New("login url is required")
	ErrMissingCodeChallenge   = errors.New("code challenge is required")
	ErrInvalidChallengeMethod = errors.New("code challenge method must be S256")
)
