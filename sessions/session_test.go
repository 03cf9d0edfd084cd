package sessions_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/jrsteele09/go-field-analyzer/sessions"
)

func TestNewSessionFromGrant(t *testing.T) {
	issued := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	grant := sessions.Grant{
		Token:       &oauth2.Token{AccessToken: "00D!access", RefreshToken: "refresh", Expiry: issued.Add(time.Hour)},
		InstanceURL: "https://acme.my.salesforce.com",
		UserInfo:    sessions.UserInfo{ID: "005xx", Username: "ops@acme.com", DisplayName: "Ops"},
	}

	s := sessions.New(grant, sessions.TokenKindOAuth, issued)
	require.Equal(t, "00D!access", s.AccessToken)
	require.Equal(t, "https://acme.my.salesforce.com", s.InstanceURL)
	require.Equal(t, sessions.TokenKindOAuth, s.TokenKind)

	tok := s.OAuth2Token()
	require.Equal(t, "Bearer", tok.TokenType)
	require.Equal(t, "refresh", tok.RefreshToken)

	// Mutating the returned token must not reach the session.
	tok.AccessToken = "changed"
	require.Equal(t, "00D!access", s.OAuth2Token().AccessToken)
}

func TestSessionJSONHidesTokens(t *testing.T) {
	s := sessions.New(sessions.Grant{Token: &oauth2.Token{AccessToken: "secret", RefreshToken: "secret-refresh"}}, sessions.TokenKindPassword, time.Now())
	raw, err := json.Marshal(s)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "secret")
	require.Contains(t, string(raw), `"tokenKind":"password"`)
}
