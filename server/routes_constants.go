package server

// Route path constants
const (
	// OAuth redirect round trip
	RouteOAuthAuthorize = "/oauth/authorize"
	RouteOAuthCallback  = "/oauth/callback"

	// Session
	RouteAPILogin   = "/api/login"
	RouteAPILogout  = "/api/logout"
	RouteAPISession = "/api/session"

	// Usage
	RouteAPIObjects     = "/api/objects"
	RouteAPIFields      = "/api/objects/{object}/fields"
	RouteAPIObjectUsage = "/api/objects/{object}/usage"
	RouteAPIFieldUsage  = "/api/objects/{object}/fields/{field}/usage"

	// Operations
	RouteMetrics = "/metrics"
	RouteHealth  = "/healthz"
)
