package main

import (
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list <account>",
	Aliases: []string{"ls"},
	Short:   "List files owned by an account",
	Long: `List files owned by an account.

At most 100 files are returned, in the order the server keeps them.

Examples:
  filekeep-cli list alice
  filekeep-cli list --json alice`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	result, err := client.ListFiles(cmd.Context(), args[0])
	if err != nil {
		return reportError(cmd, err)
	}

	return getFormatter().FormatList(cmd.OutOrStdout(), result)
}
