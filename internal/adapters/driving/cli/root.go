// Package cli implements the iepgen command line interface.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	configfile "github.com/samtett/IEP-Goal-Generator/internal/adapters/driven/config/file"
	corpusfile "github.com/samtett/IEP-Goal-Generator/internal/adapters/driven/corpus/file"
	"github.com/samtett/IEP-Goal-Generator/internal/adapters/driven/embedding"
	"github.com/samtett/IEP-Goal-Generator/internal/adapters/driven/storage/sqlite"
	"github.com/samtett/IEP-Goal-Generator/internal/adapters/driven/vector/flat"
	"github.com/samtett/IEP-Goal-Generator/internal/core/ports/driven"
	"github.com/samtett/IEP-Goal-Generator/internal/core/ports/driving"
	"github.com/samtett/IEP-Goal-Generator/internal/core/services"
	"github.com/samtett/IEP-Goal-Generator/internal/logger"
	"github.com/samtett/IEP-Goal-Generator/internal/postprocessors"
)

// version is overridden at build time via -ldflags.
var version = "dev"

// Persistent flags.
var (
	verboseFlag bool
	configDir   string
)

// Services wired by initServices. Tests substitute mocks directly.
var (
	settingsService  driving.SettingsService
	indexerService   driving.Indexer
	retrievalService driving.RetrievalService
	corpusLoader     driven.CorpusLoader
)

// Resources owned by initServices and released by closeServices.
var (
	store            *sqlite.Store
	embeddingService driven.EmbeddingService
	vectorIndex      driven.VectorIndex
)

var rootCmd = &cobra.Command{
	Use:   "iepgen",
	Short: "Grounded context retrieval for IEP transition goals",
	Long: `iepgen maintains a local knowledge base built from occupational data,
employability standards and example transition goals, and retrieves the
passages most relevant to a student's career interest. The grouped
context it returns grounds transition goal drafting in real source
material instead of model recall.`,
	SilenceUsage: true,
}

func init() {
	// Assigned here rather than in the literal: preRun refers back to
	// rootCmd, which the compiler rejects as an initialization cycle.
	rootCmd.PersistentPreRunE = preRun
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default ~/.iepgen)")
}

// Execute runs the root command. It is the entry point called by main.
func Execute() {
	err := rootCmd.Execute()
	closeServices()
	if err != nil {
		os.Exit(1)
	}
}

// serviceExempt lists commands that run without any wired services.
var serviceExempt = map[string]bool{
	"version":    true,
	"help":       true,
	"completion": true,
}

func preRun(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verboseFlag)

	if !commandNeedsServices(cmd) || servicesConfigured() {
		return nil
	}
	return initServices()
}

func commandNeedsServices(cmd *cobra.Command) bool {
	if cmd == rootCmd {
		return false
	}
	for c := cmd; c != nil; c = c.Parent() {
		if serviceExempt[c.Name()] {
			return false
		}
	}
	return true
}

// servicesConfigured reports whether services are already wired, either
// by a previous initServices call or by a test installing mocks.
func servicesConfigured() bool {
	return settingsService != nil || indexerService != nil || retrievalService != nil
}

// initServices wires the driven adapters and core services from
// configuration. Called once per invocation before the first command
// that needs them.
func initServices() error {
	configStore, err := configfile.NewConfigStore(configDir)
	if err != nil {
		return fmt.Errorf("opening config store: %w", err)
	}
	logger.Debug("Config loaded from %s", configStore.Path())

	settingsSvc := services.NewSettingsService(configStore)
	settings, err := settingsSvc.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	settingsService = settingsSvc

	st, err := sqlite.NewStore(settings.Storage.DataDir)
	if err != nil {
		closeServices()
		return fmt.Errorf("opening document store: %w", err)
	}
	store = st
	logger.Debug("Document store at %s", store.Path())

	embedSvc, err := embedding.New(&settings.Embedding)
	if err != nil {
		closeServices()
		return fmt.Errorf("configuring embedding service: %w", err)
	}
	embeddingService = embedSvc

	idx, err := flat.New(settings.Embedding.Dimensions)
	if err != nil {
		closeServices()
		return fmt.Errorf("creating vector index: %w", err)
	}
	vectorIndex = idx

	registry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(registry)
	chunkerProc, err := registry.Build("chunker", map[string]any{
		"chunk_size":      settings.Chunker.ChunkSize,
		"overlap":         settings.Chunker.Overlap,
		"boundary_window": settings.Chunker.BoundaryWindow,
	})
	if err != nil {
		closeServices()
		return fmt.Errorf("building chunker: %w", err)
	}
	pipeline := postprocessors.NewPipeline(chunkerProc)

	corpusLoader = corpusfile.New(settings.Corpus.Dir)

	docStore := store.DocumentStore()
	indexPath := filepath.Join(filepath.Dir(store.Path()), "index", flat.BlobFileName)

	indexerService = services.NewIndexerService(corpusLoader, docStore, pipeline, embeddingService, vectorIndex, indexPath)
	retrievalService = services.NewRetrievalService(docStore, vectorIndex, embeddingService)

	return nil
}

// closeServices releases resources opened by initServices.
func closeServices() {
	if embeddingService != nil {
		if err := embeddingService.Close(); err != nil {
			logger.Warn("Closing embedding service: %v", err)
		}
		embeddingService = nil
	}
	if vectorIndex != nil {
		if err := vectorIndex.Close(); err != nil {
			logger.Warn("Closing vector index: %v", err)
		}
		vectorIndex = nil
	}
	if store != nil {
		if err := store.Close(); err != nil {
			logger.Warn("Closing document store: %v", err)
		}
		store = nil
	}
	settingsService = nil
	indexerService = nil
	retrievalService = nil
	corpusLoader = nil
}
