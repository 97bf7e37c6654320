package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/b08x/zDB/internal/catalog"
	"github.com/b08x/zDB/internal/config"
	"github.com/b08x/zDB/internal/embedder"
	"github.com/b08x/zDB/internal/extractor"
	"github.com/b08x/zDB/internal/logger"
)

var (
	cfgPath string
	verbose bool

	cfg *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "zdb",
	Short: "Content-addressed file catalog with semantic search",
	Long: `zdb catalogs files by SHA-256 content hash, extracts their text,
embeds it, and answers nearest-neighbor similarity queries. The same
content seen under many paths is stored once; every sighting is kept
as a path observation.`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.SetVerbose(verbose)

		var err error
		if cfgPath != "" {
			cfg, err = config.Load(cfgPath)
		} else {
			cfg, _, err = config.LoadDefault()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("zdb %s\n", version)
		cmd.Printf("Build Time: %s\n", buildTime)
		cmd.Printf("Build Mode: %s\n", catalog.BuildMode)
		cmd.Printf("SQLite Driver: %s\n", catalog.DriverName)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging to stderr")
	rootCmd.AddCommand(versionCmd)
}

// openStore opens the catalog database at the configured path, applying
// any pending migrations.
func openStore() (*catalog.SQLiteStore, error) {
	store, err := catalog.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog at %s: %w", cfg.Database.Path, err)
	}
	return store, nil
}

func newEmbedder() (embedder.Embedder, error) {
	return embedder.New(embedder.Config{
		Provider:  cfg.Embedding.Provider,
		Model:     cfg.Embedding.Model,
		APIKey:    cfg.Embedding.APIKey(),
		BaseURL:   cfg.Embedding.BaseURL,
		CacheSize: cfg.Embedding.CacheSize,
	})
}

func newExtractionCoordinator(store catalog.Store) *extractor.Coordinator {
	var binary extractor.Backend
	if cfg.Extraction.Endpoint != "" {
		binary = extractor.NewHTTPBackend(cfg.Extraction.Endpoint, 30*time.Second)
	}
	return extractor.NewCoordinator(store, binary, extractor.Config{
		PollInterval: time.Duration(cfg.Extraction.PollIntervalSecs) * time.Second,
		PollTimeout:  time.Duration(cfg.Extraction.PollTimeoutSecs) * time.Second,
	})
}
