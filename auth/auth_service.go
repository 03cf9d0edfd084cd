package auth

import (
	"context"
	"crypto/subtle"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/jrsteele09/go-field-analyzer/auth/flowstate"
	apperrors "github.com/jrsteele09/go-field-analyzer/internal/errors"
	"github.com/jrsteele09/go-field-analyzer/oauthmodel"
	"github.com/jrsteele09/go-field-analyzer/sessions"
)

// TokenExchanger is the platform token endpoint.
type TokenExchanger interface {
	// ExchangeAuthorizationCode redeems an authorization code plus PKCE verifier
	ExchangeAuthorizationCode(ctx context.Context, request oauthmodel.TokenRequest) (*sessions.Grant, error)

	// Login performs the resource-owner password credential exchange
	Login(ctx context.Context, username, password, loginURL string) (*sessions.Grant, error)
}

// FlowParameters configure an authorization code flow.
type FlowParameters struct {
	ClientID    string
	RedirectURI string
	LoginURL    string
}

// AuthorizationRequest is where the browser must be sent to authorize.
type AuthorizationRequest struct {
	URL   string
	State string
}

// CompletionParameters come back on the redirect. Empty ClientID, RedirectURI and
// LoginURL fall back to the values stored when the flow began.
type CompletionParameters struct {
	Code        string
	State       string
	ClientID    string
	RedirectURI string
	LoginURL    string
}

// Manager establishes and holds exactly one authenticated session at a time.
// Only a successful login/authorization or Logout changes the session; readers get copies.
type Manager struct {
	exchanger   TokenExchanger
	flows       flowstate.Repo
	scopes      []string
	nowTime     func() time.Time
	newVerifier func() string
	newState    func() string

	mu      sync.RWMutex
	session *sessions.Session
}

// ManagerOption defines a function type to modify the Manager instance.
type ManagerOption func(*Manager)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

// WithVerifierGenerator replaces the PKCE verifier source (primarily for testing)
func WithVerifierGenerator(newVerifier func() string) ManagerOption {
	return func(m *Manager) {
		m.newVerifier = newVerifier
	}
}

// WithScopes overrides oauthmodel.DefaultScopes
func WithScopes(scopes ...string) ManagerOption {
	return func(m *Manager) {
		m.scopes = scopes
	}
}

// NewManager initializes a Manager. flows is where verifiers wait for their callback.
func NewManager(exchanger TokenExchanger, flows flowstate.Repo, options ...ManagerOption) (*Manager, error) {
	if exchanger == nil {
		return nil, errors.Wrap(ErrMissingExchanger, "[NewManager]")
	}
	if flows == nil {
		return nil, errors.Wrap(ErrMissingFlowRepo, "[NewManager]")
	}

	m := &Manager{
		exchanger:   exchanger,
		flows:       flows,
		scopes:      oauthmodel.DefaultScopes,
		nowTime:     time.Now,
		newVerifier: oauth2.GenerateVerifier,
		newState:    uuid.NewString,
	}

	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// BeginAuthorizationCodeFlow generates a fresh PKCE verifier, stores it under flowKey
// (replacing any attempt already in flight for that browsing context) and returns the
// URL to send the browser to. Only the challenge is placed in the URL.
func (m *Manager) BeginAuthorizationCodeFlow(flowKey string, params FlowParameters) (*AuthorizationRequest, error) {
	if flowKey == "" {
		return nil, errors.Wrap(ErrMissingFlowKey, "[Manager.BeginAuthorizationCodeFlow]")
	}

	pkce := PKCEChallengeFromVerifier(m.newVerifier())
	state := m.newState()

	authParams := oauthmodel.AuthorizationParameters{
		LoginURL:            params.LoginURL,
		ClientID:            params.ClientID,
		RedirectURI:         params.RedirectURI,
		Scope:               strings.Join(m.scopes, " "),
		State:               state,
		CodeChallenge:       pkce.Challenge,
		CodeChallengeMethod: pkce.Method,
	}
	authURL, err := authParams.URL()
	if err != nil {
		return nil, errors.Wrap(&apperrors.ConfigurationError{Reason: err.Error()}, "[Manager.BeginAuthorizationCodeFlow]")
	}

	if err := m.flows.Upsert(flowKey, &flowstate.FlowState{
		CodeVerifier: pkce.Verifier,
		State:        state,
		ClientID:     params.ClientID,
		RedirectURI:  params.RedirectURI,
		LoginURL:     params.LoginURL,
		CreatedAt:    m.nowTime(),
	}); err != nil {
		return nil, errors.Wrap(err, "[Manager.BeginAuthorizationCodeFlow] failed to store flow state")
	}

	return &AuthorizationRequest{URL: authURL, State: state}, nil
}

// CompleteAuthorizationCodeFlow redeems code with the verifier stored under flowKey.
// The stored flow state is taken before the exchange, so concurrent completions cannot
// both redeem it and a failed attempt must be restarted with BeginAuthorizationCodeFlow.
func (m *Manager) CompleteAuthorizationCodeFlow(ctx context.Context, flowKey string, params CompletionParameters) (sessions.Session, error) {
	if flowKey == "" {
		return sessions.Session{}, errors.Wrap(ErrMissingFlowKey, "[Manager.CompleteAuthorizationCodeFlow]")
	}

	flow, err := m.flows.Take(flowKey)
	if err != nil || flow == nil || flow.CodeVerifier == "" {
		return sessions.Session{}, errors.Wrap(&apperrors.ConfigurationError{
			Reason: "code verifier not found, start the login again",
		}, "[Manager.CompleteAuthorizationCodeFlow]")
	}

	if params.State != "" && subtle.ConstantTimeCompare([]byte(params.State), []byte(flow.State)) != 1 {
		return sessions.Session{}, errors.Wrap(&apperrors.AuthExchangeError{
			Code:        "invalid_state",
			Description: "state does not match the authorization request",
		}, "[Manager.CompleteAuthorizationCodeFlow]")
	}

	if strings.TrimSpace(params.Code) == "" {
		return sessions.Session{}, errors.Wrap(&apperrors.AuthExchangeError{
			Code:        "invalid_request",
			Description: "authorization code is missing",
		}, "[Manager.CompleteAuthorizationCodeFlow]")
	}

	request := oauthmodel.TokenRequest{
		LoginURL:     firstNonEmpty(params.LoginURL, flow.LoginURL),
		ClientID:     firstNonEmpty(params.ClientID, flow.ClientID),
		RedirectURI:  firstNonEmpty(params.RedirectURI, flow.RedirectURI),
		Code:         params.Code,
		CodeVerifier: flow.CodeVerifier,
	}
	if request.LoginURL == "" || request.ClientID == "" || request.RedirectURI == "" {
		return sessions.Session{}, errors.Wrap(&apperrors.ConfigurationError{
			Reason: "client id, redirect uri and login url are required",
		}, "[Manager.CompleteAuthorizationCodeFlow]")
	}

	grant, err := m.exchanger.ExchangeAuthorizationCode(ctx, request)
	if err != nil {
		return sessions.Session{}, errors.Wrap(err, "[Manager.CompleteAuthorizationCodeFlow] token exchange")
	}

	return m.establish(grant, sessions.TokenKindOAuth)
}

// AbandonAuthorizationCodeFlow erases the flow state stored under flowKey, e.g. when the
// platform redirects back with an error instead of a code.
func (m *Manager) AbandonAuthorizationCodeFlow(flowKey string) error {
	if flowKey == "" {
		return errors.Wrap(ErrMissingFlowKey, "[Manager.AbandonAuthorizationCodeFlow]")
	}
	return errors.Wrap(m.flows.Delete(flowKey), "[Manager.AbandonAuthorizationCodeFlow]")
}

// LoginWithCredentials establishes a session with a username and password.
func (m *Manager) LoginWithCredentials(ctx context.Context, username, password, loginURL string) (sessions.Session, error) {
	if strings.TrimSpace(loginURL) == "" {
		return sessions.Session{}, errors.Wrap(&apperrors.ConfigurationError{Reason: "login url is required"}, "[Manager.LoginWithCredentials]")
	}

	grant, err := m.exchanger.Login(ctx, username, password, loginURL)
	if err != nil {
		return sessions.Session{}, errors.Wrap(err, "[Manager.LoginWithCredentials]")
	}

	return m.establish(grant, sessions.TokenKindPassword)
}

// CurrentSession returns a snapshot of the session, if any.
func (m *Manager) CurrentSession() (sessions.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.session == nil {
		return sessions.Session{}, false
	}
	return *m.session, true
}

// RequireSession is CurrentSession for callers that cannot proceed without one.
func (m *Manager) RequireSession() (sessions.Session, error) {
	s, ok := m.CurrentSession()
	if !ok {
		return sessions.Session{}, apperrors.ErrNotAuthenticated
	}
	return s, nil
}

// Logout discards the session.
func (m *Manager) Logout() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.session = nil
}

func (m *Manager) establish(grant *sessions.Grant, kind sessions.TokenKind) (sessions.Session, error) {
	if grant == nil || grant.Token == nil || grant.Token.AccessToken == "" {
		return sessions.Session{}, errors.Wrap(&apperrors.AuthExchangeError{
			Code:        "invalid_response",
			Description: "token endpoint returned no access token",
		}, "[Manager.establish]")
	}
	s := sessions.New(*grant, kind, m.nowTime())

	m.mu.Lock()
	m.session = &s
	m.mu.Unlock()

	log.Info().
		Str("username", s.UserInfo.Username).
		Str("instance_url", s.InstanceURL).
		Str("token_kind", string(kind)).
		Msg("Session established")
	return s, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
