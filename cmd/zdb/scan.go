package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/b08x/zDB/internal/ingest"
)

var scanDryRun bool

var scanCmd = &cobra.Command{
	Use:   "scan <path>",
	Short: "Walk a directory and register every file by content hash",
	Long: `Walks the given directory, hashes every regular file, and registers
new content in the catalog. Content already known under another path is
recorded as an additional observation, not a second entry. Unreadable
files are counted and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&scanDryRun, "dry-run", false, "report what would be added without writing")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	scanner := ingest.New(store)
	stats, err := scanner.Scan(cmd.Context(), args[0], &ingest.ScanConfig{
		Workers: cfg.Scan.Workers,
		DryRun:  scanDryRun,
	})
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	if scanDryRun {
		cmd.Println("Dry run, nothing written.")
	}
	cmd.Printf("Scanned:    %d files in %s\n", stats.Scanned, stats.Duration.Round(time.Millisecond))
	cmd.Printf("Added:      %s\n", green(stats.Added))
	cmd.Printf("Duplicates: %s\n", yellow(stats.Duplicates))
	cmd.Printf("Skipped:    %d\n", stats.Skipped)
	if stats.Errors > 0 {
		cmd.Printf("Errors:     %s\n", red(stats.Errors))
		for _, msg := range stats.ErrorMessages {
			cmd.Printf("  %s\n", msg)
		}
	}
	return nil
}
