package config

import "time"

type Config interface {
	EnvConfig
	CorsConfig
	SalesforceConfig
	UsageConfig
	SecurityConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type SalesforceConfig interface {
	GetLoginURL() string
	GetClientID() string
	GetClientSecret() string
	GetRedirectURI() string
	GetAPIVersion() string
}

type UsageConfig interface {
	GetMaxConcurrentFields() int
	GetMaxConcurrentRequests() int
	GetRequestsPerSecond() float64
	GetRequestTimeout() time.Duration
}

type mainConfig struct {
	EnvVars
	Cors
	Salesforce
	Usage
	Security
}

func New() Config {
	return mainConfig{}
}
