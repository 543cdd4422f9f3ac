package main

import (
	"fmt"

	"github.com/sagarc03/filekeep"
	"github.com/spf13/cobra"
)

var hashCmd = &cobra.Command{
	Use:   "hash <name> [name...]",
	Short: "Print the key a file name is stored under",
	Long: `Print the key a file name is stored under. Nothing is sent to the server.

Example:
  filekeep-cli hash report.pdf`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range args {
			key := filekeep.ContentKey(name)
			if quiet || len(args) == 1 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), key)
				continue
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", key, name)
		}
		return nil
	},
}
