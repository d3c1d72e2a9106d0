// Package cli provides the cobra command tree for newsquill.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/newsquill-labs/newsquill-cli/internal/adapters/driven/ai"
	"github.com/newsquill-labs/newsquill-cli/internal/adapters/driven/config/file"
	"github.com/newsquill-labs/newsquill-cli/internal/adapters/driven/storage/sqlite"
	"github.com/newsquill-labs/newsquill-cli/internal/core/domain"
	"github.com/newsquill-labs/newsquill-cli/internal/core/ports/driven"
	"github.com/newsquill-labs/newsquill-cli/internal/core/ports/driving"
	"github.com/newsquill-labs/newsquill-cli/internal/core/services"
	"github.com/newsquill-labs/newsquill-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	verbose bool
	dataDir string
)

// Services wired during startup. Settings are always available; the
// pipeline services are wired lazily by commands that need them.
var (
	settingsService   driving.SettingsService
	generationService driving.GenerationService
	retrievalService  driving.RetrievalService
	indexService      driving.IndexService
	articleStore      driven.ArticleStore

	store       *sqlite.Store
	promptStore *file.PromptStore
	aiResult    *ai.InitResult
)

var rootCmd = &cobra.Command{
	Use:   "newsquill",
	Short: "Grounded blog generation over a local news archive",
	Long: `Newsquill generates evidence-grounded analysis posts from a local
news archive. Articles are chunked and indexed into SQLite (FTS5 + embedding
vectors); a multi-agent pipeline plans sections, retrieves supporting
snippets with hybrid lexical+vector search, drafts, and consolidates.`,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default ~/.newsquill)")
}

// Execute runs the root command.
func Execute() {
	defer teardown()
	if err := rootCmd.Execute(); err != nil {
		teardown()
		os.Exit(1)
	}
}

// initConfig wires the cheap startup state: env, logging, config and
// settings. AI providers and the store are not touched here so commands
// like 'settings show' and 'version' stay instant and offline.
func initConfig(_ *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if settingsService != nil {
		return nil
	}

	// A local .env may carry provider API keys.
	if err := godotenv.Load(); err == nil {
		logger.Debug("Loaded .env file")
	}

	configStore, err := file.NewConfigStore(dataDir)
	if err != nil {
		return fmt.Errorf("initialising config store: %w", err)
	}
	settingsService = services.NewSettingsService(configStore, ai.NewConfigValidator())
	return nil
}

// pipelineWired guards initPipeline so repeated commands (and tests that
// inject their own services) do not re-open the store.
var pipelineWired bool

// initPipeline wires the store, AI providers and pipeline services.
// Called by commands that generate, index or search.
func initPipeline() error {
	if pipelineWired {
		return nil
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	applyEnvCredentials(settings)
	if indexModel != "" {
		settings.Embedding.Model = indexModel
	}

	dir, err := resolveDataDir()
	if err != nil {
		return err
	}

	store, err = sqlite.NewStore(dir)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}

	promptStore, err = file.NewPromptStore(filepath.Join(dir, "prompts"))
	if err != nil {
		return fmt.Errorf("initialising prompt store: %w", err)
	}
	if err := promptStore.Watch(); err != nil {
		logger.Warn("Prompt live-reload unavailable: %v", err)
	}

	aiResult = ai.Initialise(settings)
	aiResult.PromptStore = promptStore
	for _, warning := range aiResult.Warnings {
		logger.Warn("%s", warning)
	}

	articleStore = store.ArticleStore()
	chunkStore := store.ChunkStore()

	retrievalService = services.NewRetrievalService(chunkStore, aiResult.EmbeddingService)
	indexService = services.NewIndexService(articleStore, chunkStore, aiResult.EmbeddingService, services.IndexConfig{
		BatchSize: settings.Generation.BatchSize,
	})

	planner := services.NewPlanner(aiResult.LLMService)
	queryBuilder := services.NewQueryBuilder(aiResult.LLMService)
	drafter := services.NewDrafter(aiResult.LLMService)
	consolidator := services.NewConsolidator(aiResult.LLMService)
	for _, agent := range []driven.PromptStoreAware{planner, queryBuilder, drafter, consolidator} {
		agent.SetPromptStore(promptStore)
	}

	generationService = services.NewGenerationService(
		planner, queryBuilder, retrievalService, drafter, consolidator, store.RunLogStore())

	pipelineWired = true
	return nil
}

// applyEnvCredentials fills empty API keys from the environment so keys
// never need to live in config.toml.
func applyEnvCredentials(settings *domain.AppSettings) {
	if settings.Embedding.APIKey == "" && settings.Embedding.Provider == domain.AIProviderOpenAI {
		settings.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if settings.LLM.APIKey == "" {
		switch settings.LLM.Provider {
		case domain.AIProviderOpenAI:
			settings.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		case domain.AIProviderAnthropic:
			settings.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}
}

func resolveDataDir() (string, error) {
	if dataDir != "" {
		return dataDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".newsquill"), nil
}

// teardown releases resources wired by initPipeline.
func teardown() {
	pipelineWired = false
	if aiResult != nil {
		aiResult.Close()
		aiResult = nil
	}
	if promptStore != nil {
		promptStore.Close() //nolint:errcheck // Best-effort shutdown
		promptStore = nil
	}
	if store != nil {
		store.Close() //nolint:errcheck // Best-effort shutdown
		store = nil
	}
}
