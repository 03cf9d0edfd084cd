package salesforce

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// SObject is one entry of the describeGlobal listing.
type SObject struct {
	Name      string `json:"name"`
	Label     string `json:"label"`
	Custom    bool   `json:"custom"`
	Queryable bool   `json:"queryable"`
}

// Field is one field of an object describe.
type Field struct {
	Name   string `json:"name"`
	Label  string `json:"label"`
	Type   string `json:"type"`
	Custom bool   `json:"custom"`
}

// DescribeResult is the subset of an object describe the analyzer reads.
type DescribeResult struct {
	Name   string  `json:"name"`
	Label  string  `json:"label"`
	Custom bool    `json:"custom"`
	Fields []Field `json:"fields"`
}

type describeGlobalResult struct {
	SObjects []SObject `json:"sobjects"`
}

// QueryResult is a query response with every page's records merged.
type QueryResult struct {
	TotalSize      int               `json:"totalSize"`
	Done           bool              `json:"done"`
	NextRecordsURL string            `json:"nextRecordsUrl,omitempty"`
	Records        []json.RawMessage `json:"records"`
}

// DecodeRecords unmarshals every record of r into T.
func DecodeRecords[T any](r *QueryResult) ([]T, error) {
	if r == nil {
		return []T{}, nil
	}
	out := make([]T, 0, len(r.Records))
	for i, raw := range r.Records {
		var rec T
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, errors.Wrapf(err, "[DecodeRecords] record %d", i)
		}
		out = append(out, rec)
	}
	return out, nil
}

// NamedRef is a relationship reference such as CreatedBy.
type NamedRef struct {
	Name string `json:"Name"`
}

// CustomFieldRecord is a Tooling CustomField row.
type CustomFieldRecord struct {
	ID               string    `json:"Id"`
	DeveloperName    string    `json:"DeveloperName"`
	MasterLabel      string    `json:"MasterLabel"`
	CreatedDate      string    `json:"CreatedDate"`
	CreatedBy        *NamedRef `json:"CreatedBy"`
	LastModifiedDate string    `json:"LastModifiedDate"`
	LastModifiedBy   *NamedRef `json:"LastModifiedBy"`
}

// FlowVersion is the active version of a flow definition.
type FlowVersion struct {
	MasterLabel   string `json:"MasterLabel"`
	APIName       string `json:"ApiName"`
	Description   string `json:"Description"`
	VersionNumber int    `json:"VersionNumber"`
}

// FlowDefinitionRecord is a Tooling FlowDefinition row.
type FlowDefinitionRecord struct {
	ID            string       `json:"Id"`
	ActiveVersion *FlowVersion `json:"ActiveVersion"`
}

// ReportRecord is a Report row.
type ReportRecord struct {
	ID            string `json:"Id"`
	Name          string `json:"Name"`
	DeveloperName string `json:"DeveloperName"`
}

// LayoutRecord is a Tooling Layout row.
type LayoutRecord struct {
	ID            string `json:"Id"`
	Name          string `json:"Name"`
	TableEnumOrID string `json:"TableEnumOrId"`
}

type layoutMetadataRecord struct {
	Metadata json.RawMessage `json:"Metadata"`
}
