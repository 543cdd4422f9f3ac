package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sagarc03/filekeep"
	"github.com/sagarc03/filekeep/config"
)

var addCmd = &cobra.Command{
	Use:   "add --as <account> <name> <url>",
	Short: "Register a file directly in the database",
	Long: `Register a file without going through the HTTP API. The record is
owned by the account given with --as and stamped with the current time.

Adding a name that already exists replaces the record and its owner.

Examples:
  filekeep add --as alice.near report.pdf https://cdn.example.com/report.pdf`,
	Args: cobra.ExactArgs(2),
	RunE: runAdd,
}

var addAs string

func init() {
	addCmd.Flags().StringVar(&addAs, "as", "", "owning account (required)")
	_ = addCmd.MarkFlagRequired("as")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	registry, closeDB, err := openRegistry(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer closeDB()

	env := filekeep.Env{Caller: filekeep.Account(addAs), Timestamp: filekeep.NewMonotonicClock().Now()}
	key, err := registry.AddFile(ctx, env, args[0], args[1])
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), key)
	return err
}
