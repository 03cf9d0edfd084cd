package usage

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/jrsteele09/go-field-analyzer/internal/metrics"
	"github.com/jrsteele09/go-field-analyzer/internal/utils"
	"github.com/jrsteele09/go-field-analyzer/salesforce"
)

// Facet names used in logs and metrics.
const (
	FacetMetadata   = "metadata"
	FacetFlows      = "flows"
	FacetReports    = "reports"
	FacetLayouts    = "layouts"
	FacetPopulation = "population"
)

// gatherField runs the five facets concurrently. Each facet owns its result variable
// and falls back to its empty value on failure, so one facet never affects another.
func gatherField(ctx context.Context, client RemoteQueryClient, objectName, fieldName string) FieldUsageRecord {
	var (
		metadata   *FieldMetadata
		flows      = []FlowReference{}
		reports    = []ReportReference{}
		layouts    = []LayoutReference{}
		population = PopulationUnavailable
	)

	var g errgroup.Group
	runFacet(&g, FacetMetadata, objectName, fieldName, func() (err error) {
		metadata, err = fieldMetadata(ctx, client, objectName, fieldName)
		return err
	})
	runFacet(&g, FacetFlows, objectName, fieldName, func() error {
		found, err := activeFlows(ctx, client)
		if err == nil {
			flows = found
		}
		return err
	})
	runFacet(&g, FacetReports, objectName, fieldName, func() error {
		found, err := nonTabularReports(ctx, client)
		if err == nil {
			reports = found
		}
		return err
	})
	runFacet(&g, FacetLayouts, objectName, fieldName, func() error {
		found, err := layoutsMentioningField(ctx, client, objectName, fieldName)
		if err == nil {
			layouts = found
		}
		return err
	})
	runFacet(&g, FacetPopulation, objectName, fieldName, func() error {
		p, err := fieldPopulation(ctx, client, objectName, fieldName)
		if err == nil {
			population = p
		}
		return err
	})
	_ = g.Wait()

	return FieldUsageRecord{
		FieldName:            fieldName,
		ObjectName:           objectName,
		Metadata:             metadata,
		Flows:                flows,
		FlowCount:            len(flows),
		Reports:              reports,
		ReportCount:          len(reports),
		Layouts:              layouts,
		LayoutCount:          len(layouts),
		PopulationPercentage: population,
	}
}

// runFacet starts fn on g. The goroutine always returns nil so siblings keep running;
// errors and panics are logged and counted instead.
func runFacet(g *errgroup.Group, facet, objectName, fieldName string, fn func() error) {
	g.Go(func() error {
		defer func() {
			if r := recover(); r != nil {
				facetFailed(facet, objectName, fieldName, fmt.Errorf("panic: %v", r))
			}
		}()
		if err := fn(); err != nil {
			facetFailed(facet, objectName, fieldName, err)
		}
		return nil
	})
}

func facetFailed(facet, objectName, fieldName string, err error) {
	metrics.FacetFailures.WithLabelValues(facet).Inc()
	log.Warn().Err(err).
		Str("object", objectName).
		Str("field", fieldName).
		Str("facet", facet).
		Msg("Usage facet failed")
}

func fieldMetadata(ctx context.Context, client RemoteQueryClient, objectName, fieldName string) (*FieldMetadata, error) {
	soql, err := salesforce.FieldMetadataQuery(objectName, fieldName)
	if err != nil {
		return nil, err
	}
	result, err := client.ToolingQuery(ctx, soql)
	if err != nil {
		return nil, err
	}
	rows, err := salesforce.DecodeRecords[salesforce.CustomFieldRecord](result)
	if err != nil || len(rows) == 0 {
		return nil, err
	}

	row := rows[0]
	return &FieldMetadata{
		ID:               row.ID,
		DeveloperName:    row.DeveloperName,
		CreatedDate:      row.CreatedDate,
		CreatedBy:        utils.Value(row.CreatedBy).Name,
		LastModifiedDate: row.LastModifiedDate,
		LastModifiedBy:   utils.Value(row.LastModifiedBy).Name,
	}, nil
}

// activeFlows lists every active flow in the org.
func activeFlows(ctx context.Context, client RemoteQueryClient) ([]FlowReference, error) {
	result, err := client.ToolingQuery(ctx, salesforce.ActiveFlowsQuery)
	if err != nil {
		return nil, err
	}
	rows, err := salesforce.DecodeRecords[salesforce.FlowDefinitionRecord](result)
	if err != nil {
		return nil, err
	}

	flows := make([]FlowReference, 0, len(rows))
	for _, row := range rows {
		version := utils.Value(row.ActiveVersion)
		flows = append(flows, FlowReference{
			ID:            row.ID,
			Label:         version.MasterLabel,
			APIName:       version.APIName,
			Description:   version.Description,
			VersionNumber: version.VersionNumber,
		})
	}
	return flows, nil
}

// nonTabularReports lists every summary, matrix and joined report in the org.
func nonTabularReports(ctx context.Context, client RemoteQueryClient) ([]ReportReference, error) {
	result, err := client.Query(ctx, salesforce.NonTabularReportsQuery)
	if err != nil {
		return nil, err
	}
	rows, err := salesforce.DecodeRecords[salesforce.ReportRecord](result)
	if err != nil {
		return nil, err
	}

	reports := make([]ReportReference, 0, len(rows))
	for _, row := range rows {
		reports = append(reports, ReportReference{ID: row.ID, Name: row.Name, DeveloperName: row.DeveloperName})
	}
	return reports, nil
}

// layoutsMentioningField reads each layout of the object in turn and keeps those whose
// metadata mentions the field. Unreadable layouts are skipped.
func layoutsMentioningField(ctx context.Context, client RemoteQueryClient, objectName, fieldName string) ([]LayoutReference, error) {
	soql, err := salesforce.ObjectLayoutsQuery(objectName)
	if err != nil {
		return nil, err
	}
	result, err := client.ToolingQuery(ctx, soql)
	if err != nil {
		return nil, err
	}
	rows, err := salesforce.DecodeRecords[salesforce.LayoutRecord](result)
	if err != nil {
		return nil, err
	}

	layouts := []LayoutReference{}
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		metadata, err := client.ReadLayoutMetadata(ctx, objectName, row.Name)
		if err != nil {
			log.Debug().Err(err).Str("object", objectName).Str("layout", row.Name).Msg("Could not read layout")
			continue
		}
		if LayoutMentionsField(metadata, fieldName) {
			layouts = append(layouts, LayoutReference{ID: row.ID, Name: row.Name})
		}
	}
	return layouts, nil
}

func fieldPopulation(ctx context.Context, client RemoteQueryClient, objectName, fieldName string) (Population, error) {
	totalQuery, err := salesforce.CountQuery(objectName)
	if err != nil {
		return PopulationUnavailable, err
	}
	populatedQuery, err := salesforce.PopulatedCountQuery(objectName, fieldName)
	if err != nil {
		return PopulationUnavailable, err
	}

	total, err := client.Query(ctx, totalQuery)
	if err != nil {
		return PopulationUnavailable, err
	}
	if total.TotalSize == 0 {
		return NewPopulation(0, 0), nil
	}

	populated, err := client.Query(ctx, populatedQuery)
	if err != nil {
		return PopulationUnavailable, err
	}
	return NewPopulation(populated.TotalSize, total.TotalSize), nil
}
