package config

import "time"

type SecurityConfig interface {
	GetRequirePKCE() bool
	GetFlowStateTTL() time.Duration
	GetBrowsingContextTTL() time.Duration
}

type Security struct{}

var _ SecurityConfig = Security{}

func (Security) GetRequirePKCE() bool {
	return true // Public connected apps have no other protection for the code
}

// GetFlowStateTTL bounds how long a PKCE verifier waits for its callback.
func (Security) GetFlowStateTTL() time.Duration {
	return GetEnvDuration("OAUTH_FLOW_TTL", 10*time.Minute)
}

// GetBrowsingContextTTL is how long an unused browsing context, and the session it
// holds, is kept by the server.
func (Security) GetBrowsingContextTTL() time.Duration {
	return GetEnvDuration("BROWSING_CONTEXT_TTL", 2*time.Hour)
}
