package entity

import (
	"github.com/google/uuid"

	"github.com/kattabharath12/tax-1040/constants"
)

// Document is an uploaded tax document for data transfer between layers.
type Document struct {
	ID           uuid.UUID                  `json:"id"`
	TaxReturnID  uuid.UUID                  `json:"tax_return_id"`
	Category     constants.DocumentCategory `json:"category"`
	FileName     string                     `json:"file_name"`
	FilePath     string                     `json:"file_path"`
	Status       constants.ProcessingStatus `json:"processing_status"`
	Record       *ExtractedRecord           `json:"extracted_data,omitempty"`
	OCRText      *string                    `json:"ocr_text,omitempty"`
	Confidence   *float64                   `json:"confidence,omitempty"`
	ErrorMessage *string                    `json:"error_message,omitempty"`
}
