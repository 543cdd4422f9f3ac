package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sagarc03/filekeep"
)

var hashCmd = &cobra.Command{
	Use:   "hash <name>",
	Short: "Print the key a file name is stored under",
	Args:  cobra.ExactArgs(1),
	// No config or database needed.
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), filekeep.ContentKey(args[0]))
		return err
	},
}

func init() {
	rootCmd.AddCommand(hashCmd)
}
