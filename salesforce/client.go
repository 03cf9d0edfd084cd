package salesforce

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	apperrors "github.com/jrsteele09/go-field-analyzer/internal/errors"
	"github.com/jrsteele09/go-field-analyzer/internal/metrics"
	"github.com/jrsteele09/go-field-analyzer/sessions"
)

const (
	DefaultAPIVersion            = "59.0"
	DefaultMaxConcurrentRequests = 10

	maxResponseBytes = 32 << 20
)

// Operation names used as the metrics label.
const (
	opDescribeGlobal = "describe_global"
	opDescribe       = "describe"
	opQuery          = "query"
	opToolingQuery   = "tooling_query"
)

// Client calls the REST and Tooling APIs of one platform instance. Every request waits
// for the rate limiter and holds one slot of the in-flight semaphore.
type Client struct {
	httpClient  *http.Client
	instanceURL string
	apiVersion  string
	limiter     *rate.Limiter
	inflight    *semaphore.Weighted
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

func WithAPIVersion(version string) ClientOption {
	return func(c *Client) {
		if version != "" {
			c.apiVersion = strings.TrimPrefix(version, "v")
		}
	}
}

// WithRateLimit paces requests to rps per second. rps <= 0 disables pacing.
// The pace applies to this Client only; use WithBudget to share it.
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		c.limiter = newLimiter(rps)
	}
}

// WithMaxConcurrentRequests caps in-flight requests of this Client. n <= 0 removes the cap.
func WithMaxConcurrentRequests(n int) ClientOption {
	return func(c *Client) {
		c.inflight = newInflight(n)
	}
}

// WithBudget makes the Client draw on b, which other Clients of the same instance share.
func WithBudget(b *Budget) ClientOption {
	return func(c *Client) {
		if b != nil {
			c.limiter = b.limiter
			c.inflight = b.inflight
		}
	}
}

// NewClient builds a Client. httpClient must already authorize its requests.
func NewClient(httpClient *http.Client, instanceURL string, options ...ClientOption) (*Client, error) {
	if httpClient == nil {
		return nil, errors.New("[NewClient] http client is required")
	}
	if strings.TrimSpace(instanceURL) == "" {
		return nil, errors.New("[NewClient] instance url is required")
	}

	c := &Client{
		httpClient:  httpClient,
		instanceURL: strings.TrimRight(instanceURL, "/"),
		apiVersion:  DefaultAPIVersion,
		limiter:     rate.NewLimiter(rate.Inf, 0),
		inflight:    semaphore.NewWeighted(DefaultMaxConcurrentRequests),
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// SessionClientConfig holds what is needed to talk to the instance of a session.
type SessionClientConfig struct {
	Timeout time.Duration
}

// NewSessionClient builds a Client authorized with the access token of s. The token is
// used as issued; an expired session surfaces as a 401 INVALID_SESSION_ID query error
// and the user logs in again.
func NewSessionClient(ctx context.Context, s sessions.Session, conf SessionClientConfig, options ...ClientOption) (*Client, error) {
	if s.AccessToken == "" {
		return nil, apperrors.ErrNotAuthenticated
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: conf.Timeout})
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(s.OAuth2Token()))
	httpClient.Timeout = conf.Timeout
	return NewClient(httpClient, s.InstanceURL, options...)
}

// InstanceURL is the base URL requests are sent to.
func (c *Client) InstanceURL() string {
	return c.instanceURL
}

// DescribeGlobal lists every object visible to the session.
func (c *Client) DescribeGlobal(ctx context.Context) ([]SObject, error) {
	var result describeGlobalResult
	if err := c.get(ctx, opDescribeGlobal, c.dataPath("/sobjects/"), &result); err != nil {
		return nil, errors.Wrap(err, "[Client.DescribeGlobal]")
	}
	return result.SObjects, nil
}

// Describe returns the fields of one object.
func (c *Client) Describe(ctx context.Context, objectName string) (*DescribeResult, error) {
	if err := ValidateIdentifier(objectName); err != nil {
		return nil, errors.Wrap(err, "[Client.Describe]")
	}
	var result DescribeResult
	if err := c.get(ctx, opDescribe, c.dataPath("/sobjects/"+objectName+"/describe/"), &result); err != nil {
		return nil, errors.Wrapf(err, "[Client.Describe] %s", objectName)
	}
	return &result, nil
}

// Query runs a SOQL query against the REST API and follows every nextRecordsUrl.
func (c *Client) Query(ctx context.Context, soql string) (*QueryResult, error) {
	result, err := c.queryAll(ctx, opQuery, c.dataPath("/query/?q="+url.QueryEscape(soql)))
	return result, errors.Wrap(err, "[Client.Query]")
}

// ToolingQuery runs a SOQL query against the Tooling API and follows every nextRecordsUrl.
func (c *Client) ToolingQuery(ctx context.Context, soql string) (*QueryResult, error) {
	result, err := c.queryAll(ctx, opToolingQuery, c.dataPath("/tooling/query/?q="+url.QueryEscape(soql)))
	return result, errors.Wrap(err, "[Client.ToolingQuery]")
}

// ReadLayoutMetadata returns the metadata document of one page layout.
func (c *Client) ReadLayoutMetadata(ctx context.Context, objectName, layoutName string) (json.RawMessage, error) {
	soql, err := LayoutMetadataQuery(objectName, layoutName)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.ReadLayoutMetadata]")
	}
	result, err := c.ToolingQuery(ctx, soql)
	if err != nil {
		return nil, errors.Wrapf(err, "[Client.ReadLayoutMetadata] %s-%s", objectName, layoutName)
	}
	records, err := DecodeRecords[layoutMetadataRecord](result)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.ReadLayoutMetadata]")
	}
	if len(records) == 0 {
		return nil, &apperrors.RemoteQueryError{
			Status:  http.StatusNotFound,
			Code:    "NOT_FOUND",
			Message: fmt.Sprintf("layout %s-%s not found", objectName, layoutName),
		}
	}
	return records[0].Metadata, nil
}

func (c *Client) queryAll(ctx context.Context, operation, path string) (*QueryResult, error) {
	merged := &QueryResult{Records: []json.RawMessage{}}
	next := path
	for next != "" {
		var page QueryResult
		if err := c.get(ctx, operation, next, &page); err != nil {
			return nil, err
		}
		merged.TotalSize = page.TotalSize
		merged.Records = append(merged.Records, page.Records...)
		if page.Done {
			break
		}
		next = page.NextRecordsURL
	}
	merged.Done = true
	return merged, nil
}

func (c *Client) dataPath(suffix string) string {
	return fmt.Sprintf("/services/data/v%s%s", c.apiVersion, suffix)
}

func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.instanceURL + path
}

func (c *Client) get(ctx context.Context, operation, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &apperrors.RemoteQueryError{Message: err.Error()}
	}
	if c.inflight != nil {
		if err := c.inflight.Acquire(ctx, 1); err != nil {
			return &apperrors.RemoteQueryError{Message: err.Error()}
		}
		defer c.inflight.Release(1)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolve(path), nil)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RemoteRequests.WithLabelValues(operation, metrics.OutcomeTransportError).Inc()
		return &apperrors.RemoteQueryError{Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		metrics.RemoteRequests.WithLabelValues(operation, metrics.OutcomeTransportError).Inc()
		return &apperrors.RemoteQueryError{Status: resp.StatusCode, Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.RemoteRequests.WithLabelValues(operation, metrics.OutcomeHTTPError).Inc()
		apiErr := parseAPIError(resp.StatusCode, body)
		log.Debug().Str("operation", operation).Int("status", resp.StatusCode).Str("code", apiErr.Code).Msg("Platform request rejected")
		return apiErr
	}
	metrics.RemoteRequests.WithLabelValues(operation, metrics.OutcomeSuccess).Inc()

	if err := json.Unmarshal(body, out); err != nil {
		return &apperrors.RemoteQueryError{Status: resp.StatusCode, Code: "INVALID_RESPONSE", Message: err.Error()}
	}
	return nil
}
