package sessions

import (
	"time"

	"golang.org/x/oauth2"
)

// TokenKind records how a session was established.
type TokenKind string

const (
	TokenKindPassword TokenKind = "password"
	TokenKindOAuth    TokenKind = "oauth"
)

// UserInfo identifies the authenticated platform user.
type UserInfo struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organizationId,omitempty"`
	Username       string `json:"username"`
	DisplayName    string `json:"displayName"`
}

// Grant is the outcome of a successful token endpoint call.
type Grant struct {
	Token       *oauth2.Token
	InstanceURL string
	UserInfo    UserInfo
}

// Session is an authenticated connection to one platform instance.
// It is handed out by value; holders get a snapshot that nothing else can change.
type Session struct {
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	Expiry       time.Time `json:"-"`
	InstanceURL  string    `json:"instanceUrl"`
	UserInfo     UserInfo  `json:"userInfo"`
	TokenKind    TokenKind `json:"tokenKind"`
	IssuedAt     time.Time `json:"issuedAt"`
}

// New materialises a Session from a grant.
func New(grant Grant, kind TokenKind, issuedAt time.Time) Session {
	s := Session{
		InstanceURL: grant.InstanceURL,
		UserInfo:    grant.UserInfo,
		TokenKind:   kind,
		IssuedAt:    issuedAt,
	}
	if grant.Token != nil {
		s.AccessToken = grant.Token.AccessToken
		s.RefreshToken = grant.Token.RefreshToken
		s.Expiry = grant.Token.Expiry
	}
	return s
}

// OAuth2Token returns a fresh token value for building an authenticated HTTP client.
func (s Session) OAuth2Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: s.RefreshToken,
		Expiry:       s.Expiry,
	}
}
