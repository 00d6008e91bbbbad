package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/kattabharath12/tax-1040/internal/common"
	"github.com/kattabharath12/tax-1040/internal/export"
	"github.com/kattabharath12/tax-1040/internal/pipeline"
	"github.com/kattabharath12/tax-1040/internal/preflight"
	repo "github.com/kattabharath12/tax-1040/internal/repository"
	svc "github.com/kattabharath12/tax-1040/internal/server"
	"github.com/kattabharath12/tax-1040/internal/services/summary"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		returnStr = flag.String("return", "", "tax return id (required)")
		userStr   = flag.String("user", "", "owner user id (required)")
		out       = flag.String("out", "", "write the Form 1040 workbook here after processing (optional)")
	)
	flag.Parse()

	returnID, err := uuid.Parse(*returnStr)
	if err != nil {
		printError("Error: --return must be a UUID: %v\n", err)
		os.Exit(1)
	}
	userID, err := uuid.Parse(*userStr)
	if err != nil {
		printError("Error: --user must be a UUID: %v\n", err)
		os.Exit(1)
	}

	cfg, err := common.LoadConfig()
	if err != nil {
		printError("Error: loading config: %v\n", err)
		os.Exit(2)
	}
	logger := common.NewLogger(os.Stderr, cfg.Log.Level, "json")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = common.WithUserID(ctx, userID.String())

	db, err := svc.ConnectDB(ctx, cfg.Database, logger)
	if err != nil {
		printError("Error: database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close(logger)

	files, closeFiles, err := svc.NewFileStore(ctx, cfg.Storage, logger)
	if err != nil {
		printError("Error: storage: %v\n", err)
		os.Exit(1)
	}
	defer closeFiles()

	extractor, closeExtractor, err := svc.NewExtractor(ctx, cfg.LLM, logger)
	if err != nil {
		printError("Error: extraction client: %v\n", err)
		os.Exit(1)
	}
	defer closeExtractor()

	docsRepo := repo.NewDocumentRepository(db, logger)
	returnsRepo := repo.NewTaxReturnRepository(db, logger)
	processor := pipeline.NewProcessor(pipeline.Deps{
		Documents: docsRepo,
		Users:     repo.NewUserRepository(db, logger),
		Returns:   returnsRepo,
		Files:     files,
		Extractor: extractor,
		Preflight: preflight.NewInspector(cfg.Pipeline.MaxPDFPages, logger),
	}, pipeline.Config{
		DefaultConfidence: cfg.Pipeline.DefaultConfidence,
		PreviewLength:     cfg.Pipeline.PreviewLength,
		Concurrency:       cfg.Pipeline.Workers,
	}, logger)

	start := time.Now()
	res, err := processor.ProcessReturn(ctx, returnID, userID)
	if err != nil {
		printError("Error: %s: %v\n", common.CodeOf(err), err)
		os.Exit(1)
	}
	fmt.Printf("return %s: processed=%d failed=%d skipped=%d in %s\n",
		res.TaxReturnID, res.Processed, res.Failed, res.Skipped, time.Since(start).Round(time.Millisecond))
	for _, o := range res.Outcomes {
		switch {
		case o.Skipped:
			fmt.Printf("  %s  skipped (already completed)\n", o.DocumentID)
		case o.Error != "":
			fmt.Printf("  %s  %s: %s\n", o.DocumentID, o.Code, o.Error)
		default:
			fmt.Printf("  %s  %s confidence=%.2f\n", o.DocumentID, o.Result.Category, o.Result.Confidence)
		}
	}

	if *out == "" {
		return
	}
	exporter := export.NewService(summary.NewService(returnsRepo, logger), logger)
	b, err := exporter.ExportForm1040XLSX(ctx, returnID, userID)
	if err != nil {
		printError("Error: export: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, b, 0o644); err != nil {
		printError("Error: writing %s: %v\n", *out, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s\n", *out)
}
