package config

type Salesforce struct{}

var _ SalesforceConfig = Salesforce{}

func (Salesforce) GetLoginURL() string {
	return GetEnv("SF_LOGIN_URL", "https://login.salesforce.com")
}

func (Salesforce) GetClientID() string {
	return GetEnv("SF_CLIENT_ID", "")
}

// GetClientSecret is optional. Without it the connected app is used as a public client
// and PKCE is the only protection for the authorization code.
func (Salesforce) GetClientSecret() string {
	return GetEnv("SF_CLIENT_SECRET", "")
}

func (Salesforce) GetRedirectURI() string {
	return GetEnv("SF_REDIRECT_URI", "http://localhost:8080/oauth/callback")
}

func (Salesforce) GetAPIVersion() string {
	return GetEnv("SF_API_VERSION", "59.0")
}
