package config

import "time"

type Usage struct{}

var _ UsageConfig = Usage{}

// GetMaxConcurrentFields caps how many fields are gathered at once. Each field issues
// at least six remote calls.
func (Usage) GetMaxConcurrentFields() int {
	return GetEnvInt("USAGE_MAX_CONCURRENT_FIELDS", 4)
}

// GetMaxConcurrentRequests caps in-flight HTTP requests per platform client.
func (Usage) GetMaxConcurrentRequests() int {
	return GetEnvInt("SF_MAX_CONCURRENT_REQUESTS", 10)
}

// GetRequestsPerSecond paces platform requests. 0 disables pacing.
func (Usage) GetRequestsPerSecond() float64 {
	return GetEnvFloat("SF_REQUESTS_PER_SECOND", 0)
}

func (Usage) GetRequestTimeout() time.Duration {
	return GetEnvDuration("SF_REQUEST_TIMEOUT", 60*time.Second)
}
