package errors

import (
	"errors"
	"fmt"
)

// Error taxonomy for the analyzer
var (
	// ErrConfiguration means OAuth configuration or the stored PKCE verifier is missing.
	// The caller must restart the authorization flow.
	ErrConfiguration = errors.New("configuration error")

	// ErrAuthExchange means the platform rejected the credentials or authorization code.
	ErrAuthExchange = errors.New("auth exchange failed")

	// ErrNotAuthenticated means an operation needing a session ran without one.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrRemoteQuery means a transport failure or a rejected query. May be transient.
	ErrRemoteQuery = errors.New("remote query failed")

	// ErrInvalidIdentifier means an object or field name cannot be placed in a query.
	ErrInvalidIdentifier = errors.New("invalid identifier")
)

// ConfigurationError carries the reason an OAuth flow cannot proceed.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrConfiguration, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// AuthExchangeError carries the upstream error code and description verbatim.
type AuthExchangeError struct {
	Status      int    // HTTP status of the token endpoint response, 0 if not applicable
	Code        string // OAuth2 "error" value, e.g. "invalid_grant"
	Description string // OAuth2 "error_description" value
}

func (e *AuthExchangeError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("%s: %s", ErrAuthExchange, e.Code)
	}
	return fmt.Sprintf("%s: %s: %s", ErrAuthExchange, e.Code, e.Description)
}

func (e *AuthExchangeError) Is(target error) bool {
	return target == ErrAuthExchange
}

// RemoteQueryError is a failed call against the platform API.
// Status is 0 when the request never produced a response.
type RemoteQueryError struct {
	Status  int
	Code    string
	Message string
}

func (e *RemoteQueryError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("%s (status %d): %s", ErrRemoteQuery, e.Status, e.Message)
	}
	return fmt.Sprintf("%s (status %d): %s: %s", ErrRemoteQuery, e.Status, e.Code, e.Message)
}

func (e *RemoteQueryError) Is(target error) bool {
	return target == ErrRemoteQuery
}

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
