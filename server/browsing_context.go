package server

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/jrsteele09/go-field-analyzer/auth"
	apperrors "github.com/jrsteele09/go-field-analyzer/internal/errors"
	"github.com/jrsteele09/go-field-analyzer/server/loginsession"
)

// browsingContextCookie identifies the browser session. It has no Max-Age so it
// disappears when the browser closes, taking the PKCE verifier's reachability with it.
const browsingContextCookie = "fa_context"

func (s *Server) setBrowsingContextCookie(w http.ResponseWriter, r *http.Request, contextID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     browsingContextCookie,
		Value:    contextID,
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearBrowsingContextCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     browsingContextCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func browsingContextID(r *http.Request) string {
	cookie, err := r.Cookie(browsingContextCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// browsingContextFor returns the caller's browsing context, or a new one when the
// caller has none or its context has expired. created reports a new context whose
// cookie has not been set yet.
func (s *Server) browsingContextFor(r *http.Request) (contextID string, manager *auth.Manager, created bool, err error) {
	if contextID = browsingContextID(r); contextID != "" {
		manager, err = s.contexts.Get(contextID)
		if err == nil {
			return contextID, manager, false, nil
		}
		if !errors.Is(err, loginsession.ErrNotFound) {
			return "", nil, false, err
		}
	}

	contextID = uuid.NewString()
	manager, err = s.contexts.GetOrCreate(contextID)
	if err != nil {
		return "", nil, false, err
	}
	return contextID, manager, true, nil
}

// ensureBrowsingContext returns the manager of the caller's browsing context, starting
// a new context (and setting its cookie) when needed.
func (s *Server) ensureBrowsingContext(w http.ResponseWriter, r *http.Request) (string, *auth.Manager, error) {
	contextID, manager, created, err := s.browsingContextFor(r)
	if err != nil {
		return "", nil, err
	}
	if created {
		s.setBrowsingContextCookie(w, r, contextID)
	}
	return contextID, manager, nil
}

// existingBrowsingContext returns the manager of the caller's browsing context.
// A caller without one is not authenticated.
func (s *Server) existingBrowsingContext(r *http.Request) (string, *auth.Manager, error) {
	contextID := browsingContextID(r)
	if contextID == "" {
		return "", nil, apperrors.ErrNotAuthenticated
	}
	manager, err := s.contexts.Get(contextID)
	if errors.Is(err, loginsession.ErrNotFound) {
		return "", nil, apperrors.ErrNotAuthenticated
	}
	if err != nil {
		return "", nil, err
	}
	return contextID, manager, nil
}
