package usage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/jrsteele09/go-field-analyzer/internal/metrics"
	"github.com/jrsteele09/go-field-analyzer/salesforce"
	"github.com/jrsteele09/go-field-analyzer/sessions"
)

const DefaultMaxConcurrentFields = 4

// RemoteQueryClient is the platform API surface the aggregator reads from.
// *salesforce.Client implements it.
type RemoteQueryClient interface {
	DescribeGlobal(ctx context.Context) ([]salesforce.SObject, error)
	Describe(ctx context.Context, objectName string) (*salesforce.DescribeResult, error)
	Query(ctx context.Context, soql string) (*salesforce.QueryResult, error)
	ToolingQuery(ctx context.Context, soql string) (*salesforce.QueryResult, error)
	ReadLayoutMetadata(ctx context.Context, objectName, layoutName string) (json.RawMessage, error)
}

// SessionSource supplies the current session. *auth.Manager implements it.
type SessionSource interface {
	RequireSession() (sessions.Session, error)
}

// ClientFactory builds a client for a session.
type ClientFactory func(ctx context.Context, s sessions.Session) (RemoteQueryClient, error)

// Aggregator assembles field usage records. It holds no per-call state; every call
// reads the session afresh so a Logout takes effect on the next call.
type Aggregator struct {
	sessions            SessionSource
	newClient           ClientFactory
	maxConcurrentFields int
}

// AggregatorOption defines a function type to modify the Aggregator instance.
type AggregatorOption func(*Aggregator)

// WithMaxConcurrentFields caps how many fields GatherAllFieldsUsage works on at once.
// n <= 0 removes the cap.
func WithMaxConcurrentFields(n int) AggregatorOption {
	return func(a *Aggregator) {
		a.maxConcurrentFields = n
	}
}

func NewAggregator(sessions SessionSource, newClient ClientFactory, options ...AggregatorOption) (*Aggregator, error) {
	if sessions == nil {
		return nil, errors.New("[NewAggregator] session source is required")
	}
	if newClient == nil {
		return nil, errors.New("[NewAggregator] client factory is required")
	}

	a := &Aggregator{
		sessions:            sessions,
		newClient:           newClient,
		maxConcurrentFields: DefaultMaxConcurrentFields,
	}
	for _, opt := range options {
		opt(a)
	}
	return a, nil
}

func (a *Aggregator) client(ctx context.Context) (RemoteQueryClient, error) {
	s, err := a.sessions.RequireSession()
	if err != nil {
		return nil, err
	}
	c, err := a.newClient(ctx, s)
	if err != nil {
		return nil, errors.Wrap(err, "creating client")
	}
	return c, nil
}

// ListCustomObjects lists the org's custom objects ordered by label.
func (a *Aggregator) ListCustomObjects(ctx context.Context) ([]CustomObject, error) {
	client, err := a.client(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "[Aggregator.ListCustomObjects]")
	}

	all, err := client.DescribeGlobal(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "[Aggregator.ListCustomObjects]")
	}

	objects := make([]CustomObject, 0, len(all))
	for _, o := range all {
		if o.Custom || strings.HasSuffix(o.Name, "__c") {
			objects = append(objects, CustomObject{Name: o.Name, Label: o.Label})
		}
	}
	sort.SliceStable(objects, func(i, j int) bool {
		li, lj := strings.ToLower(objects[i].Label), strings.ToLower(objects[j].Label)
		if li != lj {
			return li < lj
		}
		return objects[i].Name < objects[j].Name
	})
	return objects, nil
}

// ListCustomFields lists the custom fields of objectName in describe order.
func (a *Aggregator) ListCustomFields(ctx context.Context, objectName string) ([]CustomField, error) {
	if err := salesforce.ValidateIdentifier(objectName); err != nil {
		return nil, errors.Wrap(err, "[Aggregator.ListCustomFields]")
	}
	client, err := a.client(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "[Aggregator.ListCustomFields]")
	}

	fields, err := listCustomFields(ctx, client, objectName)
	return fields, errors.Wrap(err, "[Aggregator.ListCustomFields]")
}

func listCustomFields(ctx context.Context, client RemoteQueryClient, objectName string) ([]CustomField, error) {
	describe, err := client.Describe(ctx, objectName)
	if err != nil {
		return nil, err
	}
	if describe == nil {
		return []CustomField{}, nil
	}

	fields := make([]CustomField, 0, len(describe.Fields))
	for _, f := range describe.Fields {
		if f.Custom || strings.HasSuffix(f.Name, "__c") {
			fields = append(fields, CustomField{Name: f.Name, Label: f.Label, Type: f.Type})
		}
	}
	return fields, nil
}

// GatherFieldUsage builds the usage record of one field. Facet failures are folded
// into the record; the only errors returned are a missing session and an invalid name.
func (a *Aggregator) GatherFieldUsage(ctx context.Context, objectName, fieldName string) (FieldUsageRecord, error) {
	if err := validateNames(objectName, fieldName); err != nil {
		return FieldUsageRecord{}, errors.Wrap(err, "[Aggregator.GatherFieldUsage]")
	}
	client, err := a.client(ctx)
	if err != nil {
		return FieldUsageRecord{}, errors.Wrap(err, "[Aggregator.GatherFieldUsage]")
	}

	return gatherField(ctx, client, objectName, fieldName), nil
}

// GatherAllFieldsUsage builds one record per custom field of objectName, in listing
// order. Listing failures fail the call. A field that cannot be gathered becomes an
// error record and never affects the others.
//
// If ctx is cancelled the full-length result is still returned, with the fields that
// did not finish marked as errors, together with ctx.Err().
func (a *Aggregator) GatherAllFieldsUsage(ctx context.Context, objectName string) ([]FieldUsageRecord, error) {
	if err := salesforce.ValidateIdentifier(objectName); err != nil {
		return nil, errors.Wrap(err, "[Aggregator.GatherAllFieldsUsage]")
	}
	client, err := a.client(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "[Aggregator.GatherAllFieldsUsage]")
	}

	log.Debug().Str("object", objectName).Msg("Listing custom fields")
	fields, err := listCustomFields(ctx, client, objectName)
	if err != nil {
		return nil, errors.Wrap(err, "[Aggregator.GatherAllFieldsUsage]")
	}

	log.Debug().Str("object", objectName).Int("fields", len(fields)).Int("limit", a.maxConcurrentFields).Msg("Gathering field usage")
	records := make([]FieldUsageRecord, len(fields))

	var g errgroup.Group
	if a.maxConcurrentFields > 0 {
		g.SetLimit(a.maxConcurrentFields)
	}
	for i, field := range fields {
		if ctx.Err() != nil {
			records[i] = NewErrorRecord(objectName, field.Name, ctx.Err())
			continue
		}
		g.Go(func() error {
			records[i] = gatherFieldIsolated(ctx, client, objectName, field.Name)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range records {
		if r.Failed() {
			failed++
		}
	}
	log.Info().Str("object", objectName).Int("fields", len(records)).Int("failed", failed).Msg("Field usage gathered")

	if err := ctx.Err(); err != nil {
		return records, err
	}
	return records, nil
}

// gatherFieldIsolated turns a panic or a cancellation inside one field into that
// field's error record.
func gatherFieldIsolated(ctx context.Context, client RemoteQueryClient, objectName, fieldName string) (record FieldUsageRecord) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("object", objectName).Str("field", fieldName).Interface("panic", r).Msg("Field usage gather panicked")
			metrics.FieldFailures.Inc()
			record = NewErrorRecord(objectName, fieldName, fmt.Errorf("gather panicked: %v", r))
		}
	}()

	if err := validateNames(objectName, fieldName); err != nil {
		metrics.FieldFailures.Inc()
		return NewErrorRecord(objectName, fieldName, err)
	}

	record = gatherField(ctx, client, objectName, fieldName)
	if err := ctx.Err(); err != nil {
		metrics.FieldFailures.Inc()
		return NewErrorRecord(objectName, fieldName, err)
	}
	return record
}

func validateNames(objectName, fieldName string) error {
	if err := salesforce.ValidateIdentifier(objectName); err != nil {
		return err
	}
	return salesforce.ValidateIdentifier(fieldName)
}
