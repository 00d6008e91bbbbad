package llm

// ExtractionResponseSchema is the only shape the pipeline relies on: an
// extractedData object, an optional ocrText string and an optional numeric confidence.
func ExtractionResponseSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"ocrText":       map[string]any{"type": "string"},
			"extractedData": map[string]any{"type": "object"},
			"confidence":    map[string]any{"type": []string{"number", "null"}},
		},
		"required": []string{"extractedData"},
	}
}
