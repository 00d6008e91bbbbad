package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kattabharath12/tax-1040/constants"
	"github.com/kattabharath12/tax-1040/internal/llm"
)

// Extract implements llm.Extractor with one chat/completions call carrying the
// prompt and the document (image_url for images, file part for everything else).
func (c *Client) Extract(ctx context.Context, req llm.ExtractRequest) (llm.RawExtraction, error) {
	start := time.Now()
	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = llm.MimeTypeFor(req.FileName)
	}

	c.logger.Info("llm.extract.start",
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"category", req.Prompt.Category,
		"mime", mimeType,
		"bytes", len(req.Data),
	)

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"max_tokens":      c.cfg.MaxTokens,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "text", "text": req.Prompt.Instructions},
					documentPart(req.FileName, mimeType, req.Data),
				},
			},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	raw, _, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.logger)
	if err != nil {
		c.logger.Error("llm.extract.http_error", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return llm.RawExtraction{}, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("llm.extract.decode_error", "error", err, "raw_bytes", len(raw))
		return llm.RawExtraction{}, &llm.ExtractionError{Kind: llm.ErrInvalidJSON, Err: fmt.Errorf("decode completion envelope: %w", err)}
	}
	if len(cc.Choices) == 0 || strings.TrimSpace(cc.Choices[0].Message.Content) == "" {
		c.logger.Error("llm.extract.empty", "choices", len(cc.Choices), "elapsed_ms", time.Since(start).Milliseconds())
		return llm.RawExtraction{}, &llm.ExtractionError{Kind: llm.ErrEmptyResponse}
	}

	content := llm.TrimFences(cc.Choices[0].Message.Content)
	if !json.Valid([]byte(content)) {
		c.logger.Error("llm.extract.invalid_json", "content_len", len(content), "elapsed_ms", time.Since(start).Milliseconds())
		return llm.RawExtraction{}, &llm.ExtractionError{Kind: llm.ErrInvalidJSON}
	}

	c.logger.Info("llm.extract.ok",
		"model", c.cfg.Model,
		"category", req.Prompt.Category,
		"content_len", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return llm.RawExtraction{Content: []byte(content), Model: c.cfg.Model, Method: ProcessingMethod}, nil
}

func documentPart(fileName, mimeType string, data []byte) map[string]any {
	url := llm.DataURL(mimeType, data)
	if constants.IsImageMime(mimeType) {
		return map[string]any{
			"type":      "image_url",
			"image_url": map[string]any{"url": url},
		}
	}
	if fileName == "" {
		fileName = "document.pdf"
	}
	return map[string]any{
		"type": "file",
		"file": map[string]any{"filename": fileName, "file_data": url},
	}
}
