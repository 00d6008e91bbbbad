package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrSchemaMismatch marks valid JSON that lacks the required response shape.
var ErrSchemaMismatch = errors.New("extraction content does not match the response shape")

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	return nil
}

// Parsed is a shape-checked, normalized extraction.
type Parsed struct {
	OCRText    string
	Fields     map[string]string
	Confidence float64
}

// ParseExtraction validates raw content, applies the default confidence when the
// model omitted one, and normalizes every returned field.
func ParseExtraction(content []byte, prompt Prompt, defaultConfidence float64, logger *slog.Logger) (Parsed, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := ValidateJSONAgainstSchema(ExtractionResponseSchema(), content); err != nil {
		return Parsed{}, err
	}

	var body struct {
		OCRText       string         `json:"ocrText"`
		ExtractedData map[string]any `json:"extractedData"`
		Confidence    *float64       `json:"confidence"`
	}
	if err := json.Unmarshal(content, &body); err != nil {
		return Parsed{}, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	confidence := defaultConfidence
	if body.Confidence != nil {
		confidence = clampUnit(*body.Confidence)
	} else {
		logger.Debug("llm.extract.default_confidence", "category", prompt.Category, "confidence", defaultConfidence)
	}

	return Parsed{
		OCRText:    body.OCRText,
		Fields:     NormalizeFields(prompt, body.ExtractedData, logger),
		Confidence: confidence,
	}, nil
}

func clampUnit(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
