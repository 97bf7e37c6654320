package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/b08x/zDB/internal/hasher"
	"github.com/b08x/zDB/internal/ingest"
	"github.com/b08x/zDB/internal/logger"
)

var processCmd = &cobra.Command{
	Use:   "process [file]",
	Short: "Run extraction for one file, or for everything pending",
	Long: `With a file argument, registers the file (if new) and runs extraction
for it; the first error stops the operation. Without arguments, drives
extraction for every file in the discovered or error state, counting
failures instead of stopping.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProcess,
}

var reprocessCmd = &cobra.Command{
	Use:   "reprocess <content-hash>",
	Short: "Return a processed file to the discovered state",
	Long: `Administrative transition: marks a processed file as discovered so the
next processing run extracts it again. Existing content rows are kept
and updated in place by the new extraction.`,
	Args: cobra.ExactArgs(1),
	RunE: runReprocess,
}

func init() {
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(reprocessCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	coordinator := newExtractionCoordinator(store)

	if len(args) == 1 {
		scanner := ingest.New(store)
		file, created, err := scanner.ProcessFile(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to register %s: %w", args[0], err)
		}
		if created {
			logger.Info("registered %s as %s", args[0], file.ContentHash.Hex())
		}
		if err := coordinator.Process(cmd.Context(), file.ContentHash); err != nil {
			return fmt.Errorf("extraction failed for %s: %w", args[0], err)
		}
		cmd.Printf("Processed %s (%s)\n", args[0], file.ContentHash.Hex())
		return nil
	}

	stats, err := coordinator.ProcessPending(cmd.Context())
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	cmd.Printf("Processed: %s\n", green(stats.Processed))
	cmd.Printf("Failed:    %s\n", red(stats.Failed))
	cmd.Printf("Skipped:   %d\n", stats.Skipped)
	return nil
}

func runReprocess(cmd *cobra.Command, args []string) error {
	hash, err := hasher.ParseHex(args[0])
	if err != nil {
		return fmt.Errorf("invalid content hash: %w", err)
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.Reprocess(cmd.Context(), hash); err != nil {
		return err
	}
	cmd.Printf("Marked %s for reprocessing\n", args[0])
	return nil
}
