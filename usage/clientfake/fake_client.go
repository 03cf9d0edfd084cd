package clientfake

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	apperrors "github.com/jrsteele09/go-field-analyzer/internal/errors"
	"github.com/jrsteele09/go-field-analyzer/salesforce"
)

// Response is a scripted answer to one query.
type Response struct {
	Result *salesforce.QueryResult
	Err    error
}

// FakeClient is an in-memory RemoteQueryClient. Queries are answered by exact SOQL
// text; anything unscripted fails with a MALFORMED_QUERY error.
type FakeClient struct {
	lock sync.Mutex

	Objects     []salesforce.SObject
	ObjectsErr  error
	Describes   map[string]*salesforce.DescribeResult
	DescribeErr error

	Queries        map[string]Response
	ToolingQueries map[string]Response

	// LayoutMetadata and LayoutErrs are keyed by layout name.
	LayoutMetadata map[string]json.RawMessage
	LayoutErrs     map[string]error

	// Hook runs before every call. A returned error fails the call. It may block or panic.
	Hook func(ctx context.Context, operation, query string) error

	calls []string
}

func NewFakeClient() *FakeClient {
	return &FakeClient{
		Describes:      map[string]*salesforce.DescribeResult{},
		Queries:        map[string]Response{},
		ToolingQueries: map[string]Response{},
		LayoutMetadata: map[string]json.RawMessage{},
		LayoutErrs:     map[string]error{},
	}
}

// Records builds a query result from values marshalled as JSON records.
func Records(values ...any) *salesforce.QueryResult {
	r := &salesforce.QueryResult{TotalSize: len(values), Done: true, Records: []json.RawMessage{}}
	for _, v := range values {
		raw, err := json.Marshal(v)
		if err != nil {
			panic(err)
		}
		r.Records = append(r.Records, raw)
	}
	return r
}

// Count builds the result of a COUNT() query.
func Count(n int) *salesforce.QueryResult {
	return &salesforce.QueryResult{TotalSize: n, Done: true, Records: []json.RawMessage{}}
}

// Rejected builds the error the platform returns for a failing query.
func Rejected(code, message string) error {
	return &apperrors.RemoteQueryError{Status: http.StatusBadRequest, Code: code, Message: message}
}

// Calls lists every call made so far as "operation query".
func (f *FakeClient) Calls() []string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *FakeClient) before(ctx context.Context, operation, query string) error {
	f.lock.Lock()
	f.calls = append(f.calls, operation+" "+query)
	hook := f.Hook
	f.lock.Unlock()

	if hook != nil {
		if err := hook(ctx, operation, query); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return &apperrors.RemoteQueryError{Message: err.Error()}
	}
	return nil
}

func (f *FakeClient) DescribeGlobal(ctx context.Context) ([]salesforce.SObject, error) {
	if err := f.before(ctx, "describeGlobal", ""); err != nil {
		return nil, err
	}
	if f.ObjectsErr != nil {
		return nil, f.ObjectsErr
	}
	return f.Objects, nil
}

func (f *FakeClient) Describe(ctx context.Context, objectName string) (*salesforce.DescribeResult, error) {
	if err := f.before(ctx, "describe", objectName); err != nil {
		return nil, err
	}
	if f.DescribeErr != nil {
		return nil, f.DescribeErr
	}
	d, ok := f.Describes[objectName]
	if !ok {
		return nil, &apperrors.RemoteQueryError{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: "The requested resource does not exist"}
	}
	return d, nil
}

func (f *FakeClient) Query(ctx context.Context, soql string) (*salesforce.QueryResult, error) {
	if err := f.before(ctx, "query", soql); err != nil {
		return nil, err
	}
	return answer(f.Queries, soql)
}

func (f *FakeClient) ToolingQuery(ctx context.Context, soql string) (*salesforce.QueryResult, error) {
	if err := f.before(ctx, "tooling", soql); err != nil {
		return nil, err
	}
	return answer(f.ToolingQueries, soql)
}

func (f *FakeClient) ReadLayoutMetadata(ctx context.Context, objectName, layoutName string) (json.RawMessage, error) {
	if err := f.before(ctx, "layout", objectName+"-"+layoutName); err != nil {
		return nil, err
	}
	if err := f.LayoutErrs[layoutName]; err != nil {
		return nil, err
	}
	md, ok := f.LayoutMetadata[layoutName]
	if !ok {
		return nil, &apperrors.RemoteQueryError{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: "layout " + layoutName}
	}
	return md, nil
}

func answer(responses map[string]Response, soql string) (*salesforce.QueryResult, error) {
	r, ok := responses[soql]
	if !ok {
		return nil, Rejected("MALFORMED_QUERY", fmt.Sprintf("unexpected query: %s", soql))
	}
	if r.Err != nil {
		return nil, r.Err
	}
	return r.Result, nil
}
