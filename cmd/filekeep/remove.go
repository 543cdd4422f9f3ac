package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sagarc03/filekeep"
	"github.com/sagarc03/filekeep/config"
)

var removeCmd = &cobra.Command{
	Use:   "remove --as <account> <key> [key...]",
	Short: "Delete files directly from the database",
	Long: `Delete records by key without going through the HTTP API. The
ownership rule still applies: --as must name the owner of each record.
Missing keys are skipped silently.

Use --by-name to pass file names instead of keys.

Examples:
  filekeep remove --as alice.near 'ZGbkUKFrd7hlxYKda2xW2fiSlWR1ZC2+uczENA/gGxU='
  filekeep remove --as alice.near --by-name report.pdf notes.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRemove,
}

var (
	removeAs     string
	removeByName bool
)

func init() {
	removeCmd.Flags().StringVar(&removeAs, "as", "", "calling account (required)")
	removeCmd.Flags().BoolVar(&removeByName, "by-name", false, "arguments are file names, not keys")
	_ = removeCmd.MarkFlagRequired("as")
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
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

	env := filekeep.Env{Caller: filekeep.Account(removeAs), Timestamp: filekeep.NewMonotonicClock().Now()}

	var errs []error
	for _, arg := range args {
		key := arg
		if removeByName {
			key = filekeep.ContentKey(arg)
		}

		if err := registry.DeleteFile(ctx, env, key); err != nil {
			slog.Error("remove failed", "key", key, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			continue
		}
		slog.Info("removed", "key", key)
	}

	return errors.Join(errs...)
}
