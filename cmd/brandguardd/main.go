// Brandguardd is a multi-tenant brand content generation daemon.
//
// It keeps each client's brand profile and reference documents strictly
// separated, answers content requests with retrieval-grounded prompts, and
// refuses to generate when no client evidence supports the request.
//
// Configuration is loaded from an optional YAML file and BRANDGUARD_*
// environment variables. See internal/config for details.
//
// Usage:
//
//	# Start with defaults (in-memory keyword retrieval, mock generator)
//	brandguardd
//
//	# Start with a config file
//	brandguardd -config /etc/brandguard/config.yaml
//
//	# Configure via environment
//	BRANDGUARD_SERVER_PORT=8081 BRANDGUARD_GENERATION_PROVIDER=openai brandguardd
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/brandguard/internal/config"
	"github.com/fyrsmithlabs/brandguard/internal/docstore"
	"github.com/fyrsmithlabs/brandguard/internal/embeddings"
	"github.com/fyrsmithlabs/brandguard/internal/generation"
	httpserver "github.com/fyrsmithlabs/brandguard/internal/http"
	"github.com/fyrsmithlabs/brandguard/internal/logging"
	"github.com/fyrsmithlabs/brandguard/internal/pipeline"
	"github.com/fyrsmithlabs/brandguard/internal/profile"
	"github.com/fyrsmithlabs/brandguard/internal/retrieval"
	"github.com/fyrsmithlabs/brandguard/internal/telemetry"
	"github.com/fyrsmithlabs/brandguard/internal/vectorstore"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("brandguardd by Fyrsmith Labs\n")
		fmt.Printf("Version:    %s\n", version)
		fmt.Printf("Commit:     %s\n", gitCommit)
		fmt.Printf("Build Date: %s\n", buildDate)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

// run starts brandguardd and blocks until the context is cancelled.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	telemetryShutdown, err := telemetry.Init(ctx, cfg.Telemetry, logger.Named("telemetry"))
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("starting brandguardd",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.String("retrieval_backend", cfg.Retrieval.Backend),
		zap.String("generation_provider", cfg.Generation.Provider),
	)

	p, err := buildPipeline(cfg, logger)
	if err != nil {
		return fmt.Errorf("building pipeline: %w", err)
	}

	srv, err := httpserver.NewServer(p, logger, &httpserver.Config{
		Host:              cfg.Server.Host,
		Port:              cfg.Server.Port,
		GenerationTimeout: cfg.Server.GenerationTimeout,
		DefaultTopK:       cfg.Retrieval.TopK,
	})
	if err != nil {
		return fmt.Errorf("creating http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

// buildPipeline assembles the stores, retriever and generator selected by
// configuration into one pipeline.
func buildPipeline(cfg *config.Config, logger *zap.Logger) (*pipeline.Pipeline, error) {
	registry := profile.NewRegistry(logger.Named("profile"))
	store := docstore.NewStore(logger.Named("docstore"))

	opts := pipeline.Options{
		Registry: registry,
		Store:    store,
		Logger:   logger.Named("pipeline"),
	}

	switch cfg.Retrieval.Backend {
	case config.BackendChromem:
		embedder, err := embeddings.NewClient(embeddings.Config{
			BaseURL: cfg.Embeddings.BaseURL,
			Model:   cfg.Embeddings.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("creating embeddings client: %w", err)
		}

		index, err := vectorstore.NewChromemIndex(vectorstore.Config{
			Path:       cfg.VectorStore.Path,
			Collection: cfg.VectorStore.Collection,
		}, embedder, logger.Named("vectorstore"))
		if err != nil {
			return nil, fmt.Errorf("creating vector index: %w", err)
		}

		opts.Retriever = index
		opts.Indexer = index

	case config.BackendKeyword:
		retriever, err := retrieval.NewKeywordRetriever(store, nil, logger.Named("retrieval"))
		if err != nil {
			return nil, fmt.Errorf("creating keyword retriever: %w", err)
		}
		opts.Retriever = retriever

	default:
		return nil, fmt.Errorf("unknown retrieval backend: %s", cfg.Retrieval.Backend)
	}

	switch cfg.Generation.Provider {
	case config.ProviderOpenAI:
		gen, err := generation.NewOpenAIGenerator(generation.OpenAIConfig{
			Model:       cfg.Generation.Model,
			APIKey:      cfg.Generation.APIKey,
			BaseURL:     cfg.Generation.BaseURL,
			MaxTokens:   cfg.Generation.MaxTokens,
			Temperature: cfg.Generation.Temperature,
			Seed:        cfg.Generation.Seed,
		}, logger.Named("generation"))
		if err != nil {
			return nil, fmt.Errorf("creating openai generator: %w", err)
		}
		opts.Generator = gen

	case config.ProviderMock:
		opts.Generator = generation.MockGenerator{}

	default:
		return nil, fmt.Errorf("unknown generation provider: %s", cfg.Generation.Provider)
	}

	return pipeline.New(opts)
}
