package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-field-analyzer/auth"
	"github.com/jrsteele09/go-field-analyzer/internal/config"
	"github.com/jrsteele09/go-field-analyzer/server/loginsession"
	"github.com/jrsteele09/go-field-analyzer/usage"
)

type Server struct {
	env       string // Environment (e.g., "DEV", "PROD")
	mux       *http.ServeMux
	routes    []string
	config    config.Config
	contexts  loginsession.Repo
	newClient usage.ClientFactory
}

// New builds the HTTP surface. contexts hands out one auth.Manager per browsing
// context; newClient connects an authenticated session to the platform.
func New(config config.Config, contexts loginsession.Repo, newClient usage.ClientFactory) (*Server, error) {
	if config == nil {
		return nil, fmt.Errorf("[Server New] config is required")
	}
	if !config.GetRequirePKCE() {
		return nil, fmt.Errorf("[Server New] the authorization code flow requires PKCE")
	}
	if contexts == nil {
		return nil, fmt.Errorf("[Server New] login session repo is required")
	}
	if newClient == nil {
		return nil, fmt.Errorf("[Server New] client factory is required")
	}

	s := &Server{
		mux:       http.NewServeMux(),
		config:    config,
		contexts:  contexts,
		newClient: newClient,
	}
	s.env = config.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) aggregator(manager *auth.Manager) (*usage.Aggregator, error) {
	return usage.NewAggregator(manager, s.newClient, usage.WithMaxConcurrentFields(s.config.GetMaxConcurrentFields()))
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Info().Msgf("[%-19s] %s", displayMethod, path)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
