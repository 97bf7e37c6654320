package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var duplicatesCmd = &cobra.Command{
	Use:   "find-duplicates",
	Short: "List content stored once but observed under multiple paths",
	Args:  cobra.NoArgs,
	RunE:  runFindDuplicates,
}

func init() {
	rootCmd.AddCommand(duplicatesCmd)
}

func runFindDuplicates(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	hashes, err := store.FindDuplicateHashes(cmd.Context())
	if err != nil {
		return err
	}
	if len(hashes) == 0 {
		cmd.Println("No duplicate content found.")
		return nil
	}

	cyan := color.New(color.FgCyan).SprintFunc()
	for _, hash := range hashes {
		observations, err := store.ListObservations(cmd.Context(), hash)
		if err != nil {
			return err
		}
		cmd.Printf("%s (%d paths)\n", cyan(hash.Hex()), len(observations))
		for _, obs := range observations {
			cmd.Printf("  %s\n", obs.Path)
		}
	}
	return nil
}
