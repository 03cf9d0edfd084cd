package usage_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jrsteele09/go-field-analyzer/usage"
)

func TestNewPopulation(t *testing.T) {
	require.Equal(t, usage.Population("0.00"), usage.NewPopulation(0, 0))
	require.Equal(t, usage.Population("50.00"), usage.NewPopulation(10, 20))
	require.Equal(t, usage.Population("33.33"), usage.NewPopulation(1, 3))
	require.Equal(t, usage.Population("100.00"), usage.NewPopulation(7, 7))
}

func TestErrorRecordOmitsFacets(t *testing.T) {
	record := usage.NewErrorRecord("Invoice__c", "Amount__c", errors.New("describe failed"))

	raw, err := json.Marshal(record)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, map[string]any{
		"fieldName":  "Amount__c",
		"objectName": "Invoice__c",
		"error":      "describe failed",
	}, decoded)

	out, err := yaml.Marshal(record)
	require.NoError(t, err)
	var decodedYAML map[string]any
	require.NoError(t, yaml.Unmarshal(out, &decodedYAML))
	require.Len(t, decodedYAML, 3)
	require.Equal(t, "describe failed", decodedYAML["error"])
}

func TestRecordKeepsZeroCounts(t *testing.T) {
	record := usage.FieldUsageRecord{
		FieldName:            "Amount__c",
		ObjectName:           "Invoice__c",
		Flows:                []usage.FlowReference{},
		Reports:              []usage.ReportReference{},
		Layouts:              []usage.LayoutReference{},
		PopulationPercentage: usage.PopulationUnavailable,
	}

	raw, err := json.Marshal(record)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"fieldName": "Amount__c",
		"objectName": "Invoice__c",
		"metadata": null,
		"flows": [],
		"flowCount": 0,
		"reports": [],
		"reportCount": 0,
		"layouts": [],
		"layoutCount": 0,
		"populationPercentage": "N/A"
	}`, string(raw))

	out, err := yaml.Marshal(record)
	require.NoError(t, err)
	require.Contains(t, string(out), "populationPercentage: N/A")
	require.Contains(t, string(out), "flowCount: 0")
	require.NotContains(t, string(out), "error:")
}
