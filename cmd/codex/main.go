// Command codex answers questions about a person from their own documents.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/codex-cli/internal/adapters/driven/ai"
	"github.com/custodia-labs/codex-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/codex-cli/internal/adapters/driven/metrics/prometheus"
	"github.com/custodia-labs/codex-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/codex-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/codex-cli/internal/connectors/filesystem"
	"github.com/custodia-labs/codex-cli/internal/core/domain"
	"github.com/custodia-labs/codex-cli/internal/core/ports/driven"
	"github.com/custodia-labs/codex-cli/internal/core/services"
	"github.com/custodia-labs/codex-cli/internal/logger"
	"github.com/custodia-labs/codex-cli/internal/normalisers"
	"github.com/custodia-labs/codex-cli/internal/postprocessors"
)

// version is set at build time via ldflags.
var version = "dev"

const (
	// homeEnv overrides the configuration directory.
	homeEnv = "CODEX_HOME"

	summaryFile = "processed_documents.json"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx)
	stop()
	os.Exit(code)
}

func run(ctx context.Context) int {
	cli.SetVersion(version)

	configDir, err := configDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading config: %v\n", err)
		return 1
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())

	cleanup, err := wire(ctx, configDir, settingsService)
	if err != nil {
		// Settings stay usable so the configuration can be repaired.
		logger.Warn("%v", err)
		cli.SetServices(cli.Services{Settings: settingsService})
	}
	defer cleanup()

	if err := cli.Execute(ctx); err != nil {
		return 1
	}
	return 0
}

func configDir() (string, error) {
	if dir := os.Getenv(homeEnv); dir != "" {
		return dir, nil
	}
	return file.DefaultDir()
}

// wire builds every service from settings and hands them to the CLI.
// The returned cleanup is always safe to call.
func wire(ctx context.Context, configDir string, settingsService *services.SettingsService) (func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	settings, err := settingsService.Get()
	if err != nil {
		return cleanup, fmt.Errorf("loading settings: %w", err)
	}
	if err := settingsService.Validate(); err != nil {
		return cleanup, fmt.Errorf("invalid settings: %w. Run 'codex settings' to fix", err)
	}

	dataDir := filepath.Join(configDir, "data")
	indexPath := settings.Index.Path
	if indexPath == "" {
		indexPath = filepath.Join(dataDir, "index-"+string(settings.Index.Backend)+".bin")
	}
	summaryPath := settings.Ingest.SummaryPath
	if summaryPath == "" {
		summaryPath = filepath.Join(dataDir, summaryFile)
	}

	initResult, err := ai.Initialise(ctx, settings)
	if err != nil {
		return cleanup, err
	}
	closers = append(closers, initResult.Close)
	for _, w := range initResult.Warnings {
		logger.Warn("%s", w)
	}

	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return cleanup, fmt.Errorf("opening store: %w", err)
	}
	closers = append(closers, func() { _ = store.Close() })

	prompts, err := file.NewPromptStore(filepath.Join(configDir, "prompts"))
	if err != nil {
		return cleanup, fmt.Errorf("loading prompts: %w", err)
	}

	metrics := prometheus.New()

	pipeline, err := postprocessors.NewDefaultPipeline(settings.Chunking)
	if err != nil {
		return cleanup, fmt.Errorf("building chunking pipeline: %w", err)
	}

	knowledge := services.NewKnowledgeBase(initResult.VectorIndex, store.DocumentStore(), indexPath)
	stale, err := knowledge.Open(ctx, initResult.FellBack)
	if err != nil {
		return cleanup, err
	}
	switch {
	case stale && initResult.FellBack:
		logger.Warn("Using the offline embedder for this run; ingestion is disabled until %s is reachable.",
			settings.Embedding.Provider)
	case stale:
		logger.Warn("The embedding model changed since the index was built. Run 'codex ingest' to rebuild it.")
	}

	retriever := services.NewRetriever(initResult.EmbeddingService, initResult.VectorIndex,
		services.WithOversample(settings.Retrieval.Oversample),
		services.WithDedupe(settings.Retrieval.Dedupe),
		services.WithRetrievalMetrics(metrics),
	)

	ingest, err := services.NewIngestService(services.IngestDeps{
		Normaliser: normalisers.NewDefaultRegistry(),
		Pipeline:   pipeline,
		Embedder:   initResult.EmbeddingService,
		Index:      initResult.VectorIndex,
		Documents:  store.DocumentStore(),
		Metrics:    metrics,
		Connector:  func(root string) driven.Connector { return filesystem.New(root) },
	}, services.IngestConfig{
		IndexPath:   indexPath,
		SummaryPath: summaryPath,
		ReadOnly:    knowledge.ReadOnly(),
	})
	if err != nil {
		return cleanup, err
	}

	conversations, err := services.NewConversations(services.OrchestratorDeps{
		Retriever: retriever,
		Generator: initResult.Generator,
		Fallback:  initResult.Fallback,
		Prompts:   prompts,
		Index:     initResult.VectorIndex,
		Store:     store.ConversationStore(),
		Metrics:   metrics,
	}, services.OrchestratorConfigFromSettings(settings), defaultMode(settings))
	if err != nil {
		return cleanup, err
	}

	cli.SetServices(cli.Services{
		Conversation: conversations,
		Retrieval:    retriever,
		Ingest:       ingest,
		Knowledge:    knowledge,
		Settings:     settingsService,
		Metrics:      metrics.Handler(),
	})
	return cleanup, nil
}

func defaultMode(settings *domain.AppSettings) domain.Mode {
	if settings.Conversation.DefaultMode.IsValid() {
		return settings.Conversation.DefaultMode
	}
	return domain.DefaultMode
}
