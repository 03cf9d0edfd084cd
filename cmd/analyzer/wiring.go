package main

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-field-analyzer/internal/config"
	"github.com/jrsteele09/go-field-analyzer/salesforce"
	"github.com/jrsteele09/go-field-analyzer/sessions"
	"github.com/jrsteele09/go-field-analyzer/usage"
)

func newAuthenticator(c config.Config) *salesforce.Authenticator {
	return salesforce.NewAuthenticator(
		salesforce.WithHTTPClient(&http.Client{Timeout: c.GetRequestTimeout()}),
		salesforce.WithClientCredentials(c.GetClientID(), c.GetClientSecret()),
	)
}

// newClientFactory connects sessions to their instance. Every client built by the
// factory for one instance draws on the same request budget.
func newClientFactory(c config.Config) usage.ClientFactory {
	budgets := salesforce.NewBudgets(c.GetRequestsPerSecond(), c.GetMaxConcurrentRequests())
	return func(ctx context.Context, s sessions.Session) (usage.RemoteQueryClient, error) {
		client, err := salesforce.NewSessionClient(ctx, s,
			salesforce.SessionClientConfig{Timeout: c.GetRequestTimeout()},
			salesforce.WithAPIVersion(c.GetAPIVersion()),
			salesforce.WithBudget(budgets.For(s.InstanceURL)),
		)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}
