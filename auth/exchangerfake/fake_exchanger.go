package exchangerfake

import (
	"context"
	"sync"

	apperrors "github.com/jrsteele09/go-field-analyzer/internal/errors"
	"github.com/jrsteele09/go-field-analyzer/oauthmodel"
	"github.com/jrsteele09/go-field-analyzer/sessions"
)

// FakeExchanger records token requests and answers with canned grants or errors.
type FakeExchanger struct {
	lock sync.Mutex

	Grant *sessions.Grant
	Err   error

	// Users maps username to password for Login. When nil any credentials succeed.
	Users    map[string]string
	LoginErr error

	Requests []oauthmodel.TokenRequest
	Logins   []string
}

func NewFakeExchanger(grant *sessions.Grant) *FakeExchanger {
	return &FakeExchanger{Grant: grant}
}

func (f *FakeExchanger) ExchangeAuthorizationCode(_ context.Context, request oauthmodel.TokenRequest) (*sessions.Grant, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.Requests = append(f.Requests, request)
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Grant, nil
}

func (f *FakeExchanger) Login(_ context.Context, username, password, _ string) (*sessions.Grant, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.Logins = append(f.Logins, username)
	if f.Users != nil {
		if expected, ok := f.Users[username]; !ok || expected != password {
			if f.LoginErr != nil {
				return nil, f.LoginErr
			}
			return nil, &apperrors.AuthExchangeError{Status: 400, Code: "invalid_grant", Description: "authentication failure"}
		}
	}
	grant := *f.Grant
	grant.UserInfo.Username = username
	return &grant, nil
}

// LastRequest returns the most recent authorization code exchange.
func (f *FakeExchanger) LastRequest() (oauthmodel.TokenRequest, bool) {
	f.lock.Lock()
	defer f.lock.Unlock()

	if len(f.Requests) == 0 {
		return oauthmodel.TokenRequest{}, false
	}
	return f.Requests[len(f.Requests)-1], true
}
