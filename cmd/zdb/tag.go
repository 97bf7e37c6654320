package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/b08x/zDB/internal/catalog"
	"github.com/b08x/zDB/internal/hasher"
)

var tagCategory string

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Manage open-vocabulary file tags",
}

var tagAddCmd = &cobra.Command{
	Use:   "add <file> <name>",
	Short: "Attach a tag to a file",
	Args:  cobra.ExactArgs(2),
	RunE:  runTagAdd,
}

var tagListCmd = &cobra.Command{
	Use:   "list <file>",
	Short: "List the tags attached to a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runTagList,
}

var tagFilesCmd = &cobra.Command{
	Use:   "files <name>",
	Short: "List the files carrying a tag",
	Args:  cobra.ExactArgs(1),
	RunE:  runTagFiles,
}

func init() {
	tagAddCmd.Flags().StringVar(&tagCategory, "category", "", "tag category")
	tagCmd.AddCommand(tagAddCmd)
	tagCmd.AddCommand(tagListCmd)
	tagCmd.AddCommand(tagFilesCmd)
	rootCmd.AddCommand(tagCmd)
}

func resolveFile(cmd *cobra.Command, store catalog.Store, path string) (*catalog.FileRecord, error) {
	info, err := hasher.SumFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to hash %s: %w", path, err)
	}
	file, err := store.GetFileByHash(cmd.Context(), info.Digest)
	if err != nil {
		return nil, fmt.Errorf("%s is not cataloged: %w", path, err)
	}
	return file, nil
}

func runTagAdd(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	file, err := resolveFile(cmd, store, args[0])
	if err != nil {
		return err
	}
	tag, err := store.EnsureTag(cmd.Context(), args[1], tagCategory)
	if err != nil {
		return err
	}
	if err := store.TagFile(cmd.Context(), file.ID, tag.ID); err != nil {
		return err
	}
	cmd.Printf("Tagged %s with %s\n", args[0], tag.Name)
	return nil
}

func runTagList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	file, err := resolveFile(cmd, store, args[0])
	if err != nil {
		return err
	}
	tags, err := store.ListTagsByFile(cmd.Context(), file.ID)
	if err != nil {
		return err
	}
	if len(tags) == 0 {
		cmd.Println("No tags.")
		return nil
	}
	for _, tag := range tags {
		if tag.Category != "" {
			cmd.Printf("%s (%s)\n", tag.Name, tag.Category)
		} else {
			cmd.Println(tag.Name)
		}
	}
	return nil
}

func runTagFiles(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	files, err := store.ListFilesByTag(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if len(files) == 0 {
		cmd.Println("No files carry that tag.")
		return nil
	}
	for _, file := range files {
		cmd.Printf("%s  %s\n", file.ContentHash.Hex()[:12], file.OriginalPath)
	}
	return nil
}
