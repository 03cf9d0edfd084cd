package usage

import (
	"encoding/json"
	"fmt"
)

// Population is the share of records with the field set, formatted with two decimals,
// or PopulationUnavailable when it could not be computed.
type Population string

const PopulationUnavailable Population = "N/A"

// NewPopulation formats populated/total as a percentage. An empty object is "0.00".
func NewPopulation(populated, total int) Population {
	if total <= 0 {
		return "0.00"
	}
	return Population(fmt.Sprintf("%.2f", float64(populated)/float64(total)*100))
}

// CustomObject is an object defined by the org rather than the platform.
type CustomObject struct {
	Name  string `json:"name" yaml:"name"`
	Label string `json:"label" yaml:"label"`
}

// CustomField is a field defined by the org on some object.
type CustomField struct {
	Name  string `json:"name" yaml:"name"`
	Label string `json:"label" yaml:"label"`
	Type  string `json:"type" yaml:"type"`
}

// FieldMetadata is the audit trail of a custom field definition.
type FieldMetadata struct {
	ID               string `json:"id" yaml:"id"`
	DeveloperName    string `json:"developerName" yaml:"developerName"`
	CreatedDate      string `json:"createdDate" yaml:"createdDate"`
	CreatedBy        string `json:"createdBy" yaml:"createdBy"`
	LastModifiedDate string `json:"lastModifiedDate" yaml:"lastModifiedDate"`
	LastModifiedBy   string `json:"lastModifiedBy" yaml:"lastModifiedBy"`
}

type FlowReference struct {
	ID            string `json:"id" yaml:"id"`
	Label         string `json:"label" yaml:"label"`
	APIName       string `json:"apiName" yaml:"apiName"`
	Description   string `json:"description,omitempty" yaml:"description,omitempty"`
	VersionNumber int    `json:"versionNumber" yaml:"versionNumber"`
}

type ReportReference struct {
	ID            string `json:"id" yaml:"id"`
	Name          string `json:"name" yaml:"name"`
	DeveloperName string `json:"developerName" yaml:"developerName"`
}

type LayoutReference struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// FieldUsageRecord is the usage report of one field.
//
// Flows and Reports are org-wide lists, not references to this field. When Error is
// set the record only identifies the field; the facets are unknown rather than empty.
type FieldUsageRecord struct {
	FieldName            string            `json:"fieldName" yaml:"fieldName"`
	ObjectName           string            `json:"objectName" yaml:"objectName"`
	Metadata             *FieldMetadata    `json:"metadata" yaml:"metadata"`
	Flows                []FlowReference   `json:"flows" yaml:"flows"`
	FlowCount            int               `json:"flowCount" yaml:"flowCount"`
	Reports              []ReportReference `json:"reports" yaml:"reports"`
	ReportCount          int               `json:"reportCount" yaml:"reportCount"`
	Layouts              []LayoutReference `json:"layouts" yaml:"layouts"`
	LayoutCount          int               `json:"layoutCount" yaml:"layoutCount"`
	PopulationPercentage Population        `json:"populationPercentage" yaml:"populationPercentage"`
	Error                string            `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewErrorRecord is the record of a field whose usage could not be gathered.
func NewErrorRecord(objectName, fieldName string, err error) FieldUsageRecord {
	return FieldUsageRecord{FieldName: fieldName, ObjectName: objectName, Error: err.Error()}
}

// Failed reports whether the record carries an error instead of facets.
func (r FieldUsageRecord) Failed() bool {
	return r.Error != ""
}

type fieldUsageRecordFields FieldUsageRecord

type errorRecord struct {
	FieldName  string `json:"fieldName" yaml:"fieldName"`
	ObjectName string `json:"objectName" yaml:"objectName"`
	Error      string `json:"error" yaml:"error"`
}

func (r FieldUsageRecord) MarshalJSON() ([]byte, error) {
	if r.Failed() {
		return json.Marshal(errorRecord{FieldName: r.FieldName, ObjectName: r.ObjectName, Error: r.Error})
	}
	return json.Marshal(fieldUsageRecordFields(r))
}

func (r FieldUsageRecord) MarshalYAML() (interface{}, error) {
	if r.Failed() {
		return errorRecord{FieldName: r.FieldName, ObjectName: r.ObjectName, Error: r.Error}, nil
	}
	return fieldUsageRecordFields(r), nil
}
