package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kattabharath12/tax-1040/constants"
	"github.com/kattabharath12/tax-1040/internal/common"
	"github.com/kattabharath12/tax-1040/internal/llm"
	"github.com/kattabharath12/tax-1040/internal/pipeline"
	"github.com/kattabharath12/tax-1040/internal/preflight"
	svc "github.com/kattabharath12/tax-1040/internal/server"
)

type output struct {
	File             string                     `json:"file"`
	Category         constants.DocumentCategory `json:"category"`
	Confidence       float64                    `json:"confidence"`
	ProcessingMethod string                     `json:"processingMethod"`
	ElapsedMS        int64                      `json:"elapsedMs"`
	ExtractedFields  map[string]string          `json:"extractedFields"`
	OCRTextPreview   string                     `json:"ocrTextPreview"`
}

func main() {
	var (
		file     = flag.String("file", "", "path to a local PDF or image (required)")
		category = flag.String("category", "W2", "document category, W2, 1099-INT, 1099-DIV or OTHER")
	)
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "Error: --file is required")
		os.Exit(1)
	}
	cat, ok := constants.Canonicalize(*category)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown category %q (want one of %v)\n", *category, constants.AsStringSlice())
		os.Exit(1)
	}

	cfg, err := common.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading config: %v\n", err)
		os.Exit(2)
	}
	logger := common.NewLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	ctx := context.Background()

	extractor, closeExtractor, err := svc.NewExtractor(ctx, cfg.LLM, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closeExtractor()
	if extractor == nil {
		fmt.Fprintf(os.Stderr, "Error: extraction provider %q has no credentials\n", cfg.LLM.Provider)
		os.Exit(2)
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: reading %s: %v\n", *file, err)
		os.Exit(1)
	}
	name := filepath.Base(*file)
	mimeType := llm.MimeTypeFor(name)
	if _, err := preflight.NewInspector(cfg.Pipeline.MaxPDFPages, logger).Inspect(ctx, mimeType, data); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s is not usable: %v\n", name, err)
		os.Exit(1)
	}

	prompt := llm.BuildPrompt(cat)
	start := time.Now()
	raw, err := extractor.Extract(ctx, llm.ExtractRequest{FileName: name, MimeType: mimeType, Data: data, Prompt: prompt})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: extraction failed: %v\n", err)
		os.Exit(1)
	}
	parsed, err := llm.ParseExtraction(raw.Content, prompt, cfg.Pipeline.DefaultConfidence, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: unusable response: %v\n", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(output{
		File:             name,
		Category:         cat,
		Confidence:       parsed.Confidence,
		ProcessingMethod: raw.Method,
		ElapsedMS:        time.Since(start).Milliseconds(),
		ExtractedFields:  parsed.Fields,
		OCRTextPreview:   pipeline.Preview(parsed.OCRText, cfg.Pipeline.PreviewLength),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
