package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/b08x/zDB/internal/embedder"
)

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Generate embeddings for content rows that lack one",
	Args:  cobra.NoArgs,
	RunE:  runEmbed,
}

func init() {
	rootCmd.AddCommand(embedCmd)
}

func runEmbed(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	emb, err := newEmbedder()
	if err != nil {
		return fmt.Errorf("failed to configure embedding backend: %w", err)
	}
	defer func() { _ = emb.Close() }()

	if emb.Dimension() != cfg.Embedding.Dimension {
		return fmt.Errorf("backend %s/%s produces %d dimensions, config expects %d",
			emb.Provider(), emb.Model(), emb.Dimension(), cfg.Embedding.Dimension)
	}

	coordinator := embedder.NewCoordinator(store, emb, cfg.Embedding.BatchSize, cfg.Embedding.MaxChars)
	stats, err := coordinator.EmbedPending(cmd.Context())
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen).SprintFunc()
	cmd.Printf("Embedded %s content rows in %d batches (%s/%s, %d dims)\n",
		green(stats.Embedded), stats.Batches, emb.Provider(), emb.Model(), emb.Dimension())
	if stats.Skipped > 0 {
		cmd.Printf("Skipped %d rows with no text\n", stats.Skipped)
	}
	return nil
}
