package usage

import (
	"bytes"
	"encoding/json"
)

// LayoutMentionsField reports whether a layout metadata document mentions fieldName.
//
// This is a textual containment check, not a structural one: any occurrence of the
// name in the document counts, including inside another field's name. Documents without
// layoutSections never match.
func LayoutMentionsField(metadata json.RawMessage, fieldName string) bool {
	if fieldName == "" {
		return false
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(metadata, &doc); err != nil {
		return false
	}
	sections, ok := doc["layoutSections"]
	if !ok || bytes.Equal(bytes.TrimSpace(sections), []byte("null")) {
		return false
	}
	return bytes.Contains(metadata, []byte(fieldName))
}
