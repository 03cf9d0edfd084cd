package oauthmodel

// ResponseType represents the OAuth 2.0 response type.
type ResponseType string

const (
	// CodeResponseType indicates the authorization code flow, the only flow used here.
	// Example: /services/oauth2/authorize?response_type=code&client_id=...
	CodeResponseType ResponseType = "code"
)

// CodeMethodType represents the PKCE (Proof Key for Code Exchange) challenge method.
type CodeMethodType string

const (
	// CodeMethodTypeS256 indicates SHA-256 hashing is used for the code challenge.
	// Client sends: code_challenge = BASE64URL(SHA256(code_verifier))
	// Server validates: SHA256(provided code_verifier) == stored code_challenge
	CodeMethodTypeS256 CodeMethodType = "S256"
)

// GrantType represents the OAuth 2.0 grant type used at the token endpoint.
type GrantType string

const (
	// AuthorizationCodeGrant exchanges an authorization code (plus PKCE verifier) for tokens.
	AuthorizationCodeGrant GrantType = "authorization_code"

	// PasswordGrant is the resource-owner credential exchange used for direct login.
	PasswordGrant GrantType = "password"
)

// Scopes requested on every authorization. "api" grants REST/Tooling access,
// "refresh_token"/"offline_access" allow the session to outlive the access token and
// "openid" enables the userinfo endpoint used to label the session.
var DefaultScopes = []string{"api", "refresh_token", "offline_access", "openid"}
