package entity

import (
	"github.com/google/uuid"

	"github.com/kattabharath12/tax-1040/constants"
)

// ExtractedRecord is the normalized output of one extraction run.
// Stored whole on the document; a new run replaces it.
type ExtractedRecord struct {
	DocumentType     constants.DocumentCategory `json:"documentType"`
	OCRText          string                     `json:"ocrText"`
	Fields           map[string]string          `json:"extractedData"`
	Confidence       float64                    `json:"confidence"`
	ProcessingMethod string                     `json:"processingMethod"`
}

// Field returns the cleaned value for name, "" when absent.
func (r *ExtractedRecord) Field(name string) string {
	if r == nil || r.Fields == nil {
		return ""
	}
	return r.Fields[name]
}

// ExtractedEntry links an extracted field set to an income entry.
type ExtractedEntry struct {
	ID            uuid.UUID         `json:"id"`
	IncomeEntryID uuid.UUID         `json:"income_entry_id"`
	DocumentID    *uuid.UUID        `json:"document_id,omitempty"`
	Fields        map[string]string `json:"extracted_data"`
}
