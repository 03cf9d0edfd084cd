package salesforce

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	apperrors "github.com/jrsteele09/go-field-analyzer/internal/errors"
	"github.com/jrsteele09/go-field-analyzer/oauthmodel"
	"github.com/jrsteele09/go-field-analyzer/sessions"
)

const userInfoPath = "/services/oauth2/userinfo"

// Authenticator talks to the platform token endpoint. It implements auth.TokenExchanger.
type Authenticator struct {
	httpClient   *http.Client
	clientID     string
	clientSecret string
	scopes       []string
}

// AuthenticatorOption defines a function type to modify the Authenticator instance.
type AuthenticatorOption func(*Authenticator)

func WithHTTPClient(client *http.Client) AuthenticatorOption {
	return func(a *Authenticator) {
		a.httpClient = client
	}
}

// WithClientCredentials sets the connected app. The secret is optional; when set it is
// sent in addition to the PKCE verifier, never instead of it.
func WithClientCredentials(clientID, clientSecret string) AuthenticatorOption {
	return func(a *Authenticator) {
		a.clientID = clientID
		a.clientSecret = clientSecret
	}
}

func WithAuthScopes(scopes ...string) AuthenticatorOption {
	return func(a *Authenticator) {
		a.scopes = scopes
	}
}

func NewAuthenticator(options ...AuthenticatorOption) *Authenticator {
	a := &Authenticator{
		httpClient: http.DefaultClient,
		scopes:     oauthmodel.DefaultScopes,
	}
	for _, opt := range options {
		opt(a)
	}
	return a
}

func (a *Authenticator) oauthConfig(loginURL, clientID, redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: a.clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       a.scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   oauthmodel.AuthorizeURL(loginURL),
			TokenURL:  oauthmodel.TokenURL(loginURL),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// ExchangeAuthorizationCode redeems an authorization code together with its PKCE verifier.
func (a *Authenticator) ExchangeAuthorizationCode(ctx context.Context, request oauthmodel.TokenRequest) (*sessions.Grant, error) {
	if request.CodeVerifier == "" {
		return nil, &apperrors.ConfigurationError{Reason: "code verifier is required"}
	}
	clientID := request.ClientID
	if clientID == "" {
		clientID = a.clientID
	}
	if clientID == "" || request.LoginURL == "" {
		return nil, &apperrors.ConfigurationError{Reason: "client id and login url are required"}
	}

	ctx = oidc.ClientContext(ctx, a.httpClient)
	conf := a.oauthConfig(request.LoginURL, clientID, request.RedirectURI)

	token, err := conf.Exchange(ctx, request.Code, oauth2.VerifierOption(request.CodeVerifier))
	if err != nil {
		return nil, errors.Wrap(tokenEndpointError(err), "[Authenticator.ExchangeAuthorizationCode]")
	}
	return a.grant(ctx, request.LoginURL, token)
}

// Login performs the resource-owner password credential grant. The connected app must
// allow it and a client ID must be configured.
func (a *Authenticator) Login(ctx context.Context, username, password, loginURL string) (*sessions.Grant, error) {
	if a.clientID == "" {
		return nil, &apperrors.ConfigurationError{Reason: "client id is required for password login"}
	}

	ctx = oidc.ClientContext(ctx, a.httpClient)
	conf := a.oauthConfig(loginURL, a.clientID, "")

	token, err := conf.PasswordCredentialsToken(ctx, username, password)
	if err != nil {
		return nil, errors.Wrap(tokenEndpointError(err), "[Authenticator.Login]")
	}
	return a.grant(ctx, loginURL, token)
}

func (a *Authenticator) grant(ctx context.Context, loginURL string, token *oauth2.Token) (*sessions.Grant, error) {
	instanceURL, _ := token.Extra("instance_url").(string)
	if instanceURL == "" {
		return nil, &apperrors.AuthExchangeError{
			Code:        "invalid_response",
			Description: "token response has no instance_url",
		}
	}
	identityURL, _ := token.Extra("id").(string)

	return &sessions.Grant{
		Token:       token,
		InstanceURL: instanceURL,
		UserInfo:    a.resolveIdentity(ctx, loginURL, instanceURL, identityURL, token),
	}, nil
}

type userInfoClaims struct {
	PreferredUsername string `json:"preferred_username"`
	Name              string `json:"name"`
	UserID            string `json:"user_id"`
	OrganizationID    string `json:"organization_id"`
}

// resolveIdentity asks the userinfo endpoint who the token belongs to. Discovery runs
// against the login host; when that fails the instance's well-known userinfo path is used.
// If userinfo fails too, the ids are taken from the identity URL.
func (a *Authenticator) resolveIdentity(ctx context.Context, loginURL, instanceURL, identityURL string, token *oauth2.Token) sessions.UserInfo {
	fallback := userInfoFromIdentityURL(identityURL)

	provider, err := oidc.NewProvider(ctx, strings.TrimRight(loginURL, "/"))
	if err != nil {
		log.Debug().Err(err).Str("login_url", loginURL).Msg("OIDC discovery failed, using instance userinfo endpoint")
		provider = (&oidc.ProviderConfig{
			IssuerURL:   loginURL,
			UserInfoURL: strings.TrimRight(instanceURL, "/") + userInfoPath,
		}).NewProvider(ctx)
	}

	info, err := provider.UserInfo(ctx, oauth2.StaticTokenSource(token))
	if err != nil {
		log.Warn().Err(err).Msg("Userinfo lookup failed, using identity URL")
		return fallback
	}

	var claims userInfoClaims
	if err := info.Claims(&claims); err != nil {
		log.Warn().Err(err).Msg("Userinfo claims unreadable, using identity URL")
		return fallback
	}

	return sessions.UserInfo{
		ID:             firstNonEmpty(claims.UserID, fallback.ID, info.Subject),
		OrganizationID: firstNonEmpty(claims.OrganizationID, fallback.OrganizationID),
		Username:       firstNonEmpty(claims.PreferredUsername, info.Email),
		DisplayName:    claims.Name,
	}
}

// userInfoFromIdentityURL reads .../id/{orgId}/{userId}.
func userInfoFromIdentityURL(identityURL string) sessions.UserInfo {
	u, err := url.Parse(identityURL)
	if err != nil {
		return sessions.UserInfo{}
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+2 < len(parts); i++ {
		if parts[i] == "id" {
			return sessions.UserInfo{OrganizationID: parts[i+1], ID: parts[i+2]}
		}
	}
	return sessions.UserInfo{}
}

// tokenEndpointError maps an oauth2 library error. A response from the token endpoint
// becomes an AuthExchangeError carrying error and error_description verbatim; anything
// else is a transport failure.
func tokenEndpointError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		status := 0
		if retrieveErr.Response != nil {
			status = retrieveErr.Response.StatusCode
		}
		code := retrieveErr.ErrorCode
		description := retrieveErr.ErrorDescription
		if code == "" {
			code = "token_endpoint_error"
			description = strings.TrimSpace(string(retrieveErr.Body))
		}
		return &apperrors.AuthExchangeError{Status: status, Code: code, Description: description}
	}
	return &apperrors.RemoteQueryError{Message: err.Error()}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
