package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/b08x/zDB/internal/catalog"
	"github.com/b08x/zDB/internal/hasher"
	"github.com/b08x/zDB/internal/search"
)

var similarLimit int

var similarCmd = &cobra.Command{
	Use:   "similar <file>",
	Short: "Find cataloged content most similar to a file",
	Long: `Hashes the given file, locates its embedded content in the catalog,
and lists the nearest neighbors by cosine distance. The file must have
been processed and embedded first.`,
	Args: cobra.ExactArgs(1),
	RunE: runSimilar,
}

func init() {
	similarCmd.Flags().IntVarP(&similarLimit, "limit", "k", 10, "maximum number of results")
	rootCmd.AddCommand(similarCmd)
}

func runSimilar(cmd *cobra.Command, args []string) error {
	info, err := hasher.SumFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to hash %s: %w", args[0], err)
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	index := search.New(store, cfg.Embedding.Dimension)
	matches, err := index.NearestToFile(cmd.Context(), info.Digest, similarLimit)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		cmd.Println("No embedded content to compare against. Run process and embed first.")
		return nil
	}

	paths, err := filePathIndex(cmd, store)
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan).SprintFunc()
	for i, match := range matches {
		path := paths[match.Content.FileID]
		if path == "" {
			path = fmt.Sprintf("file #%d", match.Content.FileID)
		}
		cmd.Printf("  [%d] %s (%.4f)\n", i+1, cyan(path), match.Distance)
		cmd.Printf("      content #%d, %s\n", match.Content.ID, match.Content.ContentType)
	}
	return nil
}

// filePathIndex maps file IDs to their original paths for display.
func filePathIndex(cmd *cobra.Command, store catalog.Store) (map[int64]string, error) {
	files, err := store.ListFiles(cmd.Context())
	if err != nil {
		return nil, err
	}
	paths := make(map[int64]string, len(files))
	for _, file := range files {
		paths[file.ID] = file.OriginalPath
	}
	return paths, nil
}
