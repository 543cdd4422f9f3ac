package main

import (
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add <name> <url>",
	Short: "Register a file",
	Long: `Register a file under the key derived from its name.

Adding a name that is already registered replaces its record, and the
caller becomes the new owner.

Examples:
  filekeep-cli add report.pdf https://cdn.example.com/report.pdf
  filekeep-cli add -q notes.txt https://cdn.example.com/notes.txt`,
	Args: cobra.ExactArgs(2),
	RunE: runAdd,
}

func runAdd(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	result, err := client.AddFile(cmd.Context(), args[0], args[1])
	if err != nil {
		return reportError(cmd, err)
	}

	return getFormatter().FormatAdd(cmd.OutOrStdout(), result)
}
