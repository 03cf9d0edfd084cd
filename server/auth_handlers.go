package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-field-analyzer/auth"
	apperrors "github.com/jrsteele09/go-field-analyzer/internal/errors"
)

// LoginRequest is the body of POST /api/login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	LoginURL string `json:"loginUrl"`
}

// AuthorizeHandler starts the authorization code flow and redirects the browser to the
// platform. login_url and client_id may override the configured values.
func (s *Server) AuthorizeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		contextID, manager, err := s.ensureBrowsingContext(w, r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		query := r.URL.Query()
		authRequest, err := manager.BeginAuthorizationCodeFlow(contextID, auth.FlowParameters{
			ClientID:    valueOr(query.Get("client_id"), s.config.GetClientID()),
			RedirectURI: s.config.GetRedirectURI(),
			LoginURL:    valueOr(query.Get("login_url"), s.config.GetLoginURL()),
		})
		if err != nil {
			writeError(w, r, err)
			return
		}

		http.Redirect(w, r, authRequest.URL, http.StatusFound)
	}
}

// CallbackHandler completes the flow with the code the platform sent back.
func (s *Server) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if errorParam := query.Get("error"); errorParam != "" {
			if contextID, manager, err := s.existingBrowsingContext(r); err == nil {
				if err := manager.AbandonAuthorizationCodeFlow(contextID); err != nil {
					log.Err(err).Msg("Failed to erase PKCE flow state")
				}
			}
			writeJSONError(w, errorParam, query.Get("error_description"), http.StatusUnauthorized)
			return
		}

		contextID, manager, err := s.existingBrowsingContext(r)
		if err != nil {
			writeError(w, r, &apperrors.ConfigurationError{Reason: "code verifier not found, start the login again"})
			return
		}

		session, err := manager.CompleteAuthorizationCodeFlow(r.Context(), contextID, auth.CompletionParameters{
			Code:  query.Get("code"),
			State: query.Get("state"),
		})
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, session)
	}
}

// LoginHandler establishes a session with a username and password.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var request LoginRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&request); err != nil {
			writeJSONError(w, "invalid_request", "request body must be JSON", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(request.Username) == "" || request.Password == "" {
			writeJSONError(w, "invalid_request", "username and password are required", http.StatusBadRequest)
			return
		}

		contextID, manager, created, err := s.browsingContextFor(r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		session, err := manager.LoginWithCredentials(r.Context(), request.Username, request.Password,
			valueOr(request.LoginURL, s.config.GetLoginURL()))
		if err != nil {
			// A context started by this request is only kept once a login succeeds
			if created {
				if deleteErr := s.contexts.Delete(contextID); deleteErr != nil {
					log.Err(deleteErr).Msg("Failed to discard browsing context")
				}
			}
			writeError(w, r, err)
			return
		}

		if created {
			s.setBrowsingContextCookie(w, r, contextID)
		}
		writeJSON(w, http.StatusOK, session)
	}
}

// LogoutHandler discards the session and forgets the browsing context.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if contextID, manager, err := s.existingBrowsingContext(r); err == nil {
			manager.Logout()
			if err := s.contexts.Delete(contextID); err != nil {
				writeError(w, r, err)
				return
			}
		}
		s.clearBrowsingContextCookie(w, r)
		w.WriteHeader(http.StatusNoContent)
	}
}

// SessionHandler returns the current session without its tokens.
func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, manager, err := s.existingBrowsingContext(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		session, err := manager.RequireSession()
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, session)
	}
}

func (s *Server) PreflightHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func valueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
