package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create the catalog database and apply schema migrations",
	Args:  cobra.NoArgs,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	cmd.Printf("%s catalog ready at %s\n", green("OK"), cfg.Database.Path)
	return nil
}
