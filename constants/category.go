package constants

import (
	"strings"
)

// DocumentCategory is the closed classification of an uploaded tax document.
type DocumentCategory string

const (
	W2      DocumentCategory = "W2"
	INT1099 DocumentCategory = "INT_1099"
	DIV1099 DocumentCategory = "DIV_1099"
	Other   DocumentCategory = "OTHER"
)

var allCategories = []DocumentCategory{
	W2,
	INT1099,
	DIV1099,
	Other,
}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// Canonicalize maps a stored or user supplied label onto a DocumentCategory.
// Unknown labels resolve to Other with ok=false.
func Canonicalize(input string) (DocumentCategory, bool) {
	if input == "" {
		return Other, false
	}

	normalized := strings.ToUpper(strings.TrimSpace(input))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)

	synonyms := map[string]DocumentCategory{
		"W_2":           W2,
		"FORM_W2":       W2,
		"1099_INT":      INT1099,
		"FORM_1099_INT": INT1099,
		"1099_DIV":      DIV1099,
		"FORM_1099_DIV": DIV1099,
	}

	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	for _, cat := range allCategories {
		if normalized == string(cat) {
			return cat, true
		}
	}

	return Other, false
}
