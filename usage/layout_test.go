package usage_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-field-analyzer/usage"
)

func TestLayoutMentionsField(t *testing.T) {
	withField := json.RawMessage(`{"layoutSections":[{"layoutColumns":[{"layoutItems":[{"field":"Amount__c"}]}]}]}`)
	withoutField := json.RawMessage(`{"layoutSections":[{"layoutColumns":[{"layoutItems":[{"field":"Name"}]}]}]}`)
	noSections := json.RawMessage(`{"relatedLists":[{"fields":["Amount__c"]}]}`)

	require.True(t, usage.LayoutMentionsField(withField, "Amount__c"))
	require.False(t, usage.LayoutMentionsField(withoutField, "Amount__c"))
	require.False(t, usage.LayoutMentionsField(noSections, "Amount__c"))
	require.False(t, usage.LayoutMentionsField(json.RawMessage(`{"layoutSections":null,"x":"Amount__c"}`), "Amount__c"))
	require.False(t, usage.LayoutMentionsField(json.RawMessage(`not json`), "Amount__c"))
	require.False(t, usage.LayoutMentionsField(withField, ""))

	// Approximate: a longer field name containing the searched one matches too.
	require.True(t, usage.LayoutMentionsField(json.RawMessage(`{"layoutSections":[{"field":"Net_Amount__c"}]}`), "Amount__c"))
}
