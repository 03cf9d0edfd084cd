package server

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) initRoutes() {
	// OAUTH
	s.RegisterRouteHandler("GET "+RouteOAuthAuthorize, ChainMiddleware(s.AuthorizeHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteOAuthCallback, ChainMiddleware(s.CallbackHandler(), s.APIMiddleware()...))

	// SESSION
	s.RegisterRouteHandler("POST "+RouteAPILogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAPILogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAPISession, ChainMiddleware(s.SessionHandler(), s.APIMiddleware()...))

	// USAGE
	s.RegisterRouteHandler("GET "+RouteAPIObjects, ChainMiddleware(s.ObjectsHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAPIFields, ChainMiddleware(s.FieldsHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAPIObjectUsage, ChainMiddleware(s.ObjectUsageHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAPIFieldUsage, ChainMiddleware(s.FieldUsageHandler(), s.APIMiddleware()...))

	// Preflight for the JSON API
	s.RegisterRouteHandler("OPTIONS /api/", ChainMiddleware(s.PreflightHandler(), s.APIMiddleware()...))

	s.RegisterRouteHandler("GET "+RouteMetrics, promhttp.Handler())
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
}
