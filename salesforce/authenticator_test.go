package salesforce_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jrsteele09/go-field-analyzer/internal/errors"
	"github.com/jrsteele09/go-field-analyzer/oauthmodel"
	"github.com/jrsteele09/go-field-analyzer/salesforce"
)

// fakeLoginHost serves the token, discovery and userinfo endpoints of a login host.
type fakeLoginHost struct {
	srv          *httptest.Server
	userinfoDown bool

	mu       sync.Mutex
	lastForm map[string]string
}

func (h *fakeLoginHost) form() map[string]string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastForm
}

func newFakeLoginHost(t *testing.T) *fakeLoginHost {
	t.Helper()
	h := &fakeLoginHost{}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /services/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		form := map[string]string{}
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}
		h.mu.Lock()
		h.lastForm = form
		h.mu.Unlock()

		if r.PostForm.Get("code") == "expired" || r.PostForm.Get("password") == "wrong" {
			writeJSON(t, w, http.StatusBadRequest, map[string]string{
				"error":             "invalid_grant",
				"error_description": "expired authorization code",
			})
			return
		}
		writeJSON(t, w, http.StatusOK, map[string]string{
			"access_token":  "00Dxx!access",
			"refresh_token": "5Aep-refresh",
			"token_type":    "Bearer",
			"instance_url":  h.srv.URL,
			"id":            h.srv.URL + "/id/00Dxx0000001gPLEAY/005xx000001Sv6AAAS",
		})
	})
	mux.HandleFunc("GET /.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{
			"issuer":                 h.srv.URL,
			"authorization_endpoint": h.srv.URL + "/services/oauth2/authorize",
			"token_endpoint":         h.srv.URL + "/services/oauth2/token",
			"userinfo_endpoint":      h.srv.URL + "/services/oauth2/userinfo",
			"jwks_uri":               h.srv.URL + "/id/keys",
		})
	})
	mux.HandleFunc("GET /services/oauth2/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if h.userinfoDown || r.Header.Get("Authorization") != "Bearer 00Dxx!access" {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		writeJSON(t, w, http.StatusOK, map[string]string{
			"sub":                h.srv.URL + "/id/00Dxx0000001gPLEAY/005xx000001Sv6AAAS",
			"user_id":            "005xx000001Sv6AAAS",
			"organization_id":    "00Dxx0000001gPLEAY",
			"preferred_username": "admin@acme.com",
			"name":               "Acme Admin",
		})
	})

	h.srv = httptest.NewServer(mux)
	t.Cleanup(h.srv.Close)
	return h
}

func TestExchangeAuthorizationCode(t *testing.T) {
	ctx := context.Background()

	t.Run("success posts verifier and resolves identity", func(t *testing.T) {
		host := newFakeLoginHost(t)
		a := salesforce.NewAuthenticator(salesforce.WithHTTPClient(host.srv.Client()))

		grant, err := a.ExchangeAuthorizationCode(ctx, oauthmodel.TokenRequest{
			LoginURL:     host.srv.URL,
			ClientID:     "3MVG9-test-client",
			Code:         "aPrxYXyxzkuBzbiLbhOcP6hn",
			CodeVerifier: "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk",
			RedirectURI:  "http://localhost:8080/oauth/callback",
		})
		require.NoError(t, err)

		require.Equal(t, string(oauthmodel.AuthorizationCodeGrant), host.form()["grant_type"])
		require.Equal(t, "aPrxYXyxzkuBzbiLbhOcP6hn", host.form()["code"])
		require.Equal(t, "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk", host.form()["code_verifier"])
		require.Equal(t, "3MVG9-test-client", host.form()["client_id"])
		require.Equal(t, "http://localhost:8080/oauth/callback", host.form()["redirect_uri"])
		require.NotContains(t, host.form(), "client_secret")

		require.Equal(t, "00Dxx!access", grant.Token.AccessToken)
		require.Equal(t, host.srv.URL, grant.InstanceURL)
		require.Equal(t, "admin@acme.com", grant.UserInfo.Username)
		require.Equal(t, "Acme Admin", grant.UserInfo.DisplayName)
		require.Equal(t, "005xx000001Sv6AAAS", grant.UserInfo.ID)
		require.Equal(t, "00Dxx0000001gPLEAY", grant.UserInfo.OrganizationID)
	})

	t.Run("client secret is sent alongside the verifier", func(t *testing.T) {
		host := newFakeLoginHost(t)
		a := salesforce.NewAuthenticator(
			salesforce.WithHTTPClient(host.srv.Client()),
			salesforce.WithClientCredentials("3MVG9-test-client", "s3cret"),
		)

		_, err := a.ExchangeAuthorizationCode(ctx, oauthmodel.TokenRequest{
			LoginURL:     host.srv.URL,
			Code:         "aPrxYXyxzkuBzbiLbhOcP6hn",
			CodeVerifier: "verifier",
			RedirectURI:  "http://localhost:8080/oauth/callback",
		})
		require.NoError(t, err)
		require.Equal(t, "s3cret", host.form()["client_secret"])
		require.Equal(t, "verifier", host.form()["code_verifier"])
		require.Equal(t, "3MVG9-test-client", host.form()["client_id"])
	})

	t.Run("upstream rejection is surfaced verbatim", func(t *testing.T) {
		host := newFakeLoginHost(t)
		a := salesforce.NewAuthenticator(salesforce.WithHTTPClient(host.srv.Client()))

		_, err := a.ExchangeAuthorizationCode(ctx, oauthmodel.TokenRequest{
			LoginURL:     host.srv.URL,
			ClientID:     "3MVG9-test-client",
			Code:         "expired",
			CodeVerifier: "verifier",
		})
		require.ErrorIs(t, err, apperrors.ErrAuthExchange)

		var exchangeErr *apperrors.AuthExchangeError
		require.ErrorAs(t, err, &exchangeErr)
		require.Equal(t, http.StatusBadRequest, exchangeErr.Status)
		require.Equal(t, "invalid_grant", exchangeErr.Code)
		require.Equal(t, "expired authorization code", exchangeErr.Description)
	})

	t.Run("missing verifier never reaches the endpoint", func(t *testing.T) {
		host := newFakeLoginHost(t)
		a := salesforce.NewAuthenticator(salesforce.WithHTTPClient(host.srv.Client()))

		_, err := a.ExchangeAuthorizationCode(ctx, oauthmodel.TokenRequest{LoginURL: host.srv.URL, ClientID: "id", Code: "c"})
		require.ErrorIs(t, err, apperrors.ErrConfiguration)
		require.Nil(t, host.form())
	})

	t.Run("identity falls back to the id url", func(t *testing.T) {
		host := newFakeLoginHost(t)
		host.userinfoDown = true
		a := salesforce.NewAuthenticator(salesforce.WithHTTPClient(host.srv.Client()))

		grant, err := a.ExchangeAuthorizationCode(ctx, oauthmodel.TokenRequest{
			LoginURL:     host.srv.URL,
			ClientID:     "3MVG9-test-client",
			Code:         "code",
			CodeVerifier: "verifier",
		})
		require.NoError(t, err)
		require.Equal(t, "005xx000001Sv6AAAS", grant.UserInfo.ID)
		require.Equal(t, "00Dxx0000001gPLEAY", grant.UserInfo.OrganizationID)
		require.Empty(t, grant.UserInfo.Username)
	})
}

func TestPasswordLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		host := newFakeLoginHost(t)
		a := salesforce.NewAuthenticator(
			salesforce.WithHTTPClient(host.srv.Client()),
			salesforce.WithClientCredentials("3MVG9-test-client", "s3cret"),
		)

		grant, err := a.Login(ctx, "admin@acme.com", "hunter2", host.srv.URL)
		require.NoError(t, err)
		require.Equal(t, string(oauthmodel.PasswordGrant), host.form()["grant_type"])
		require.Equal(t, "admin@acme.com", host.form()["username"])
		require.Equal(t, host.srv.URL, grant.InstanceURL)
	})

	t.Run("bad password", func(t *testing.T) {
		host := newFakeLoginHost(t)
		a := salesforce.NewAuthenticator(
			salesforce.WithHTTPClient(host.srv.Client()),
			salesforce.WithClientCredentials("3MVG9-test-client", ""),
		)

		_, err := a.Login(ctx, "admin@acme.com", "wrong", host.srv.URL)
		require.ErrorIs(t, err, apperrors.ErrAuthExchange)
		require.Contains(t, err.Error(), "expired authorization code")
	})

	t.Run("requires a client id", func(t *testing.T) {
		a := salesforce.NewAuthenticator()
		_, err := a.Login(ctx, "admin@acme.com", "hunter2", "https://login.salesforce.com")
		require.ErrorIs(t, err, apperrors.ErrConfiguration)
	})
}
