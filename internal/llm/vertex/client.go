package vertex

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/vertexai/genai"

	"github.com/kattabharath12/tax-1040/internal/llm"
)

// ProcessingMethod tags records produced by this backend.
const ProcessingMethod = "vertex_gemini_extraction"

// Config for the Gemini backend on Vertex AI.
type Config struct {
	Project     string
	Region      string
	Model       string // default gemini-1.5-pro
	Temperature float32
	MaxTokens   int32
	Timeout     time.Duration
}

// generator is the part of *genai.GenerativeModel the client calls.
type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Client implements llm.Extractor on a JSON-only Gemini model.
type Client struct {
	cfg    Config
	base   *genai.Client
	model  generator
	logger *slog.Logger
}

func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.Project == "" || cfg.Region == "" {
		return nil, fmt.Errorf("vertex: project and region cannot be empty")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-pro"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 3000
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	base, err := genai.NewClient(ctx, cfg.Project, cfg.Region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}
	model := base.GenerativeModel(cfg.Model)
	model.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](cfg.Temperature),
		MaxOutputTokens:  genai.Ptr[int32](cfg.MaxTokens),
	}

	return &Client{cfg: cfg, base: base, model: model, logger: logger}, nil
}

func (c *Client) Close() error {
	if c.base != nil {
		return c.base.Close()
	}
	return nil
}

func (c *Client) Extract(ctx context.Context, req llm.ExtractRequest) (llm.RawExtraction, error) {
	start := time.Now()
	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = llm.MimeTypeFor(req.FileName)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.model.GenerateContent(ctx,
		genai.Blob{MIMEType: mimeType, Data: req.Data},
		genai.Text(req.Prompt.Instructions),
	)
	if err != nil {
		c.logger.Error("llm.vertex.generate_error", "model", c.cfg.Model, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return llm.RawExtraction{}, &llm.ExtractionError{Kind: llm.ErrTransport, Err: err}
	}

	content, err := decodeContent(resp)
	if err != nil {
		c.logger.Warn("llm.vertex.unusable_response", "model", c.cfg.Model, "error", err)
		return llm.RawExtraction{}, err
	}

	c.logger.Info("llm.extract.ok",
		"model", c.cfg.Model,
		"category", req.Prompt.Category,
		"content_len", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return llm.RawExtraction{Content: []byte(content), Model: c.cfg.Model, Method: ProcessingMethod}, nil
}

// decodeContent pulls the JSON payload out of the first candidate.
func decodeContent(resp *genai.GenerateContentResponse) (string, error) {
	content := llm.TrimFences(responseText(resp))
	if content == "" {
		return "", &llm.ExtractionError{Kind: llm.ErrEmptyResponse}
	}
	if !json.Valid([]byte(content)) {
		return "", &llm.ExtractionError{Kind: llm.ErrInvalidJSON}
	}
	return content, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String()
}
