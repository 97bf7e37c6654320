package main

import (
	"github.com/spf13/cobra"

	"github.com/b08x/zDB/internal/catalog"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalog statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	stats, err := store.Stats(cmd.Context())
	if err != nil {
		return err
	}

	cmd.Printf("Files:       %d\n", stats.TotalFiles)
	for _, status := range []catalog.Status{
		catalog.StatusDiscovered,
		catalog.StatusProcessing,
		catalog.StatusProcessed,
		catalog.StatusError,
	} {
		if n := stats.ByStatus[status]; n > 0 {
			cmd.Printf("  %-11s%d\n", string(status)+":", n)
		}
	}
	cmd.Printf("Contents:    %d\n", stats.TotalContents)
	cmd.Printf("Embedded:    %d\n", stats.TotalEmbeddings)
	cmd.Printf("Dup hashes:  %d\n", stats.DuplicateHashes)
	cmd.Printf("DB size:     %.2f MB\n", stats.DatabaseSizeMB)
	return nil
}
