package salesforce_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jrsteele09/go-field-analyzer/internal/errors"
	"github.com/jrsteele09/go-field-analyzer/salesforce"
	"github.com/jrsteele09/go-field-analyzer/sessions"
)

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	assert.NoError(t, json.NewEncoder(w).Encode(body))
}

func newTestClient(t *testing.T, handler http.Handler, options ...salesforce.ClientOption) *salesforce.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := salesforce.NewClient(srv.Client(), srv.URL, options...)
	require.NoError(t, err)
	return c
}

func TestNewClient(t *testing.T) {
	_, err := salesforce.NewClient(nil, "https://acme.my.salesforce.com")
	require.Error(t, err)
	_, err = salesforce.NewClient(http.DefaultClient, "")
	require.Error(t, err)
}

func TestDescribe(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /services/data/v59.0/sobjects/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"sobjects": []map[string]any{
			{"name": "Account", "label": "Account", "custom": false},
			{"name": "Invoice__c", "label": "Invoice", "custom": true},
		}})
	})
	mux.HandleFunc("GET /services/data/v59.0/sobjects/Invoice__c/describe/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"name": "Invoice__c", "fields": []map[string]any{
			{"name": "Id", "label": "Record ID", "type": "id", "custom": false},
			{"name": "Amount__c", "label": "Amount", "type": "currency", "custom": true},
		}})
	})
	c := newTestClient(t, mux)

	objects, err := c.DescribeGlobal(context.Background())
	require.NoError(t, err)
	require.Len(t, objects, 2)
	require.True(t, objects[1].Custom)

	describe, err := c.Describe(context.Background(), "Invoice__c")
	require.NoError(t, err)
	require.Len(t, describe.Fields, 2)
	require.Equal(t, "Amount__c", describe.Fields[1].Name)

	_, err = c.Describe(context.Background(), "Invoice__c/../x")
	require.ErrorIs(t, err, apperrors.ErrInvalidIdentifier)
}

func TestQueryFollowsNextRecordsURL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /services/data/v59.0/query/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "SELECT Id, Name FROM Report", r.URL.Query().Get("q"))
		writeJSON(t, w, http.StatusOK, map[string]any{
			"totalSize":      3,
			"done":           false,
			"nextRecordsUrl": "/services/data/v59.0/query/01gxx-2",
			"records":        []map[string]any{{"Id": "00O1", "Name": "Pipeline"}, {"Id": "00O2", "Name": "Churn"}},
		})
	})
	mux.HandleFunc("GET /services/data/v59.0/query/01gxx-2", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{
			"totalSize": 3,
			"done":      true,
			"records":   []map[string]any{{"Id": "00O3", "Name": "Renewals"}},
		})
	})
	c := newTestClient(t, mux)

	result, err := c.Query(context.Background(), "SELECT Id, Name FROM Report")
	require.NoError(t, err)
	require.Equal(t, 3, result.TotalSize)

	reports, err := salesforce.DecodeRecords[salesforce.ReportRecord](result)
	require.NoError(t, err)
	require.Len(t, reports, 3)
	require.Equal(t, "Renewals", reports[2].Name)
}

func TestQueryErrors(t *testing.T) {
	t.Run("platform error body", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusBadRequest, []map[string]string{{"errorCode": "INVALID_FIELD", "message": "No such column 'Foo__c'"}})
		}))

		_, err := c.ToolingQuery(context.Background(), "SELECT Foo__c FROM Layout")
		require.ErrorIs(t, err, apperrors.ErrRemoteQuery)

		var remoteErr *apperrors.RemoteQueryError
		require.ErrorAs(t, err, &remoteErr)
		require.Equal(t, http.StatusBadRequest, remoteErr.Status)
		require.Equal(t, "INVALID_FIELD", remoteErr.Code)
		require.Equal(t, "No such column 'Foo__c'", remoteErr.Message)
	})

	t.Run("plain text body", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "upstream down", http.StatusServiceUnavailable)
		}))

		_, err := c.Query(context.Background(), "SELECT COUNT() FROM Account")
		var remoteErr *apperrors.RemoteQueryError
		require.ErrorAs(t, err, &remoteErr)
		require.Equal(t, http.StatusServiceUnavailable, remoteErr.Status)
		require.Equal(t, "upstream down", remoteErr.Message)
	})

	t.Run("transport failure", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()
		c, err := salesforce.NewClient(http.DefaultClient, srv.URL)
		require.NoError(t, err)

		_, err = c.Query(context.Background(), "SELECT COUNT() FROM Account")
		var remoteErr *apperrors.RemoteQueryError
		require.ErrorAs(t, err, &remoteErr)
		require.Equal(t, 0, remoteErr.Status)
	})
}

func TestReadLayoutMetadata(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		if q == "SELECT Metadata FROM Layout WHERE Name = 'Invoice Layout' AND TableEnumOrId = 'Invoice__c' LIMIT 1" {
			writeJSON(t, w, http.StatusOK, map[string]any{"totalSize": 1, "done": true, "records": []map[string]any{
				{"Metadata": map[string]any{"layoutSections": []map[string]any{{"label": "Information"}}}},
			}})
			return
		}
		writeJSON(t, w, http.StatusOK, map[string]any{"totalSize": 0, "done": true, "records": []any{}})
	}))

	metadata, err := c.ReadLayoutMetadata(context.Background(), "Invoice__c", "Invoice Layout")
	require.NoError(t, err)
	require.Contains(t, string(metadata), "layoutSections")

	_, err = c.ReadLayoutMetadata(context.Background(), "Invoice__c", "Missing")
	require.ErrorIs(t, err, apperrors.ErrRemoteQuery)
}

func TestMaxConcurrentRequests(t *testing.T) {
	var inFlight, peak int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&inFlight, 1)
		defer atomic.AddInt32(&inFlight, -1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		writeJSON(t, w, http.StatusOK, map[string]any{"totalSize": 0, "done": true, "records": []any{}})
	}), salesforce.WithMaxConcurrentRequests(2))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Query(context.Background(), "SELECT COUNT() FROM Account")
		}()
	}
	wg.Wait()
	require.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestRateLimitHonoursContext(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"totalSize": 0, "done": true, "records": []any{}})
	}), salesforce.WithRateLimit(0.001))

	_, err := c.Query(context.Background(), "SELECT COUNT() FROM Account")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Query(ctx, "SELECT COUNT() FROM Account")
	require.ErrorIs(t, err, apperrors.ErrRemoteQuery)
}

func TestNewSessionClient(t *testing.T) {
	var (
		mu      sync.Mutex
		gotAuth string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotAuth = r.Header.Get("Authorization")
		mu.Unlock()
		writeJSON(t, w, http.StatusOK, map[string]any{"sobjects": []any{}})
	}))
	defer srv.Close()

	_, err := salesforce.NewSessionClient(context.Background(), sessions.Session{}, salesforce.SessionClientConfig{})
	require.ErrorIs(t, err, apperrors.ErrNotAuthenticated)

	c, err := salesforce.NewSessionClient(context.Background(), sessions.Session{
		AccessToken: "00Dxx!access",
		InstanceURL: srv.URL,
	}, salesforce.SessionClientConfig{Timeout: 5 * time.Second}, salesforce.WithAPIVersion("v60.0"))
	require.NoError(t, err)

	_, err = c.DescribeGlobal(context.Background())
	require.NoError(t, err)
	mu.Lock()
	require.Equal(t, "Bearer 00Dxx!access", gotAuth)
	mu.Unlock()

	t.Run("tokens without expiry are sent as issued", func(t *testing.T) {
		var tokenCalls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/services/oauth2/token" {
				atomic.AddInt32(&tokenCalls, 1)
			}
			mu.Lock()
			gotAuth = r.Header.Get("Authorization")
			mu.Unlock()
			writeJSON(t, w, http.StatusOK, map[string]any{"sobjects": []any{}})
		}))
		defer srv.Close()

		c, err := salesforce.NewSessionClient(context.Background(), sessions.Session{
			AccessToken:  "00Dxx!second",
			RefreshToken: "5Aep-refresh",
			InstanceURL:  srv.URL,
		}, salesforce.SessionClientConfig{Timeout: 5 * time.Second})
		require.NoError(t, err)

		_, err = c.DescribeGlobal(context.Background())
		require.NoError(t, err)
		require.Zero(t, atomic.LoadInt32(&tokenCalls))
		mu.Lock()
		defer mu.Unlock()
		require.Equal(t, "Bearer 00Dxx!second", gotAuth)
	})
}
