package oauthmodel

// TokenRequest holds the values posted to {LoginURL}/services/oauth2/token for the
// authorization_code grant.
type TokenRequest struct {
	// LoginURL selects the token endpoint.
	LoginURL string

	// ClientID identifies the connected app.
	ClientID string

	// Code is the authorization code received on the redirect. Single use.
	Code string

	// CodeVerifier is the PKCE verifier matching the code_challenge sent on authorize.
	// This is the only request that ever carries it.
	CodeVerifier string

	// RedirectURI must equal the one used on the authorization request.
	RedirectURI string
}
