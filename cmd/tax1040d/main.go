package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/kattabharath12/tax-1040/internal/async"
	"github.com/kattabharath12/tax-1040/internal/auth"
	"github.com/kattabharath12/tax-1040/internal/common"
	"github.com/kattabharath12/tax-1040/internal/export"
	"github.com/kattabharath12/tax-1040/internal/httpapi"
	"github.com/kattabharath12/tax-1040/internal/pipeline"
	"github.com/kattabharath12/tax-1040/internal/preflight"
	repo "github.com/kattabharath12/tax-1040/internal/repository"
	svc "github.com/kattabharath12/tax-1040/internal/server"
	"github.com/kattabharath12/tax-1040/internal/services/income"
	"github.com/kattabharath12/tax-1040/internal/services/summary"
)

func main() {
	cfg, err := common.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(2)
	}
	logger := common.NewLogger(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := svc.ConnectDB(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err, "driver", cfg.Database.Driver)
		os.Exit(1)
	}
	defer db.Close(logger)

	files, closeFiles, err := svc.NewFileStore(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Error("failed to set up storage", "error", err)
		os.Exit(1)
	}
	defer closeFiles()

	extractor, closeExtractor, err := svc.NewExtractor(ctx, cfg.LLM, logger)
	if err != nil {
		logger.Error("failed to set up extraction client", "error", err)
		os.Exit(1)
	}
	defer closeExtractor()

	docsRepo := repo.NewDocumentRepository(db, logger)
	returnsRepo := repo.NewTaxReturnRepository(db, logger)
	incomeRepo := repo.NewIncomeRepository(db, logger)
	usersRepo := repo.NewUserRepository(db, logger)

	extractTimeout := cfg.LLM.Timeout + 30*time.Second
	processor := pipeline.NewProcessor(pipeline.Deps{
		Documents: docsRepo,
		Users:     usersRepo,
		Returns:   returnsRepo,
		Files:     files,
		Extractor: extractor,
		Preflight: preflight.NewInspector(cfg.Pipeline.MaxPDFPages, logger),
	}, pipeline.Config{
		DefaultConfidence: cfg.Pipeline.DefaultConfidence,
		PreviewLength:     cfg.Pipeline.PreviewLength,
		ExtractTimeout:    extractTimeout,
		Concurrency:       cfg.Pipeline.Workers,
	}, logger)

	incomeService := income.NewService(docsRepo, incomeRepo, logger)
	summaryService := summary.NewService(returnsRepo, logger)
	exportService := export.NewService(summaryService, logger)

	queue := async.NewProcessorQueue(processor, logger,
		async.WithWorkers(cfg.Pipeline.Workers),
		async.WithQueueSize(cfg.Pipeline.QueueSize),
		async.WithLookupTimeout(cfg.Pipeline.LookupTimeout),
	)

	verifier := auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)

	// gRPC server
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(
		svc.LoggingInterceptor(logger),
		svc.AuthInterceptor(verifier, logger),
	))
	svc.RegisterTax1040Server(grpcServer, svc.NewTax1040Server(processor, incomeService, summaryService, exportService, logger))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	var lis net.Listener
	if cfg.Server.GRPCAddr != "" {
		lis, err = net.Listen("tcp", cfg.Server.GRPCAddr)
		if err != nil {
			logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
			os.Exit(1)
		}
		logger.Info("tax1040 grpc listening", "addr", cfg.Server.GRPCAddr, "extraction_configured", processor.Configured())
		go func() {
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("gRPC serve error", "error", err)
				stop()
			}
		}()
	}

	// HTTP server
	gin.SetMode(gin.ReleaseMode)
	var httpServer *http.Server
	if cfg.Server.HTTPAddr != "" {
		httpServer = &http.Server{
			Addr: cfg.Server.HTTPAddr,
			Handler: httpapi.NewRouter(httpapi.Deps{
				Processor: processor,
				Income:    incomeService,
				Summaries: summaryService,
				Exporter:  exportService,
				Verifier:  verifier,
				Queue:     queue,
			}, logger),
			ReadHeaderTimeout: 10 * time.Second,
		}
		logger.Info("tax1040 http listening", "addr", cfg.Server.HTTPAddr)
		go func() {
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http serve error", "error", err)
				stop()
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown", "error", err)
		}
	}
	grpcServer.GracefulStop()

	// runs in flight ignore cancellation; give the last one time to finish
	drainCtx, cancelDrain := context.WithTimeout(context.Background(), extractTimeout+10*time.Second)
	defer cancelDrain()
	queue.Shutdown(drainCtx)
}
