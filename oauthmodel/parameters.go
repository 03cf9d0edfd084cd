package oauthmodel

import (
	"net/url"
	"strings"
)

const (
	authorizePath = "/services/oauth2/authorize"
	tokenPath     = "/services/oauth2/token"
)

// AuthorizationParameters holds the query parameters sent to the platform's
// authorization endpoint.
type AuthorizationParameters struct {
	// LoginURL is the platform login host, e.g. "https://login.salesforce.com" or a My Domain URL.
	LoginURL string

	// ClientID identifies the connected app.
	ClientID string

	// RedirectURI is where the platform sends the browser back with ?code=...
	// Must exactly match a callback URL registered on the connected app.
	RedirectURI string

	// Scope is the space separated list of requested scopes.
	Scope string

	// State is echoed back on the callback and binds it to the flow that started it.
	State string

	// CodeChallenge is BASE64URL(SHA256(code_verifier)). The verifier itself never
	// appears in this URL.
	CodeChallenge string

	// CodeChallengeMethod is always S256.
	CodeChallengeMethod CodeMethodType
}

// Validate checks the parameters that every authorization request must carry.
func (p *AuthorizationParameters) Validate() error {
	switch {
	case strings.TrimSpace(p.LoginURL) == "":
		return ErrMissingLoginURL
	case strings.TrimSpace(p.ClientID) == "":
		return ErrMissingClientID
	case strings.TrimSpace(p.RedirectURI) == "":
		return ErrMissingRedirectURI
	case strings.TrimSpace(p.CodeChallenge) == "":
		return ErrMissingCodeChallenge
	case p.CodeChallengeMethod != CodeMethodTypeS256:
		return ErrInvalidChallengeMethod
	}
	return nil
}

// URL builds the authorization URL the browser is redirected to.
func (p *AuthorizationParameters) URL() (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	u, err := url.Parse(AuthorizeURL(p.LoginURL))
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("response_type", string(CodeResponseType))
	q.Set("client_id", p.ClientID)
	q.Set("redirect_uri", p.RedirectURI)
	q.Set("scope", p.Scope)
	q.Set("code_challenge", p.CodeChallenge)
	q.Set("code_challenge_method", string(p.CodeChallengeMethod))
	if p.State != "" {
		q.Set("state", p.State)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// AuthorizeURL returns the authorization endpoint for a login host.
func AuthorizeURL(loginURL string) string {
	return strings.TrimRight(loginURL, "/") + authorizePath
}

// TokenURL returns the token endpoint for a login host.
func TokenURL(loginURL string) string {
	return strings.TrimRight(loginURL, "/") + tokenPath
}
