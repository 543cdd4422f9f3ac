package main

import (
	"github.com/sagarc03/filekeep"
	"github.com/sagarc03/filekeep/clientcli"
	"github.com/spf13/cobra"
)

var deleteByName bool

var deleteCmd = &cobra.Command{
	Use:     "delete <key> [key...]",
	Aliases: []string{"rm"},
	Short:   "Delete files you own",
	Long: `Delete one or more records. Only the owner of a record may delete it;
deleting a key that holds no record succeeds.

Examples:
  filekeep-cli delete ZGbkUKFrd7hlxYKda2xW2fiSlWR1ZC2+uczENA/gGxU=
  filekeep-cli delete --by-name a.txt b.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolVar(&deleteByName, "by-name", false, "treat arguments as file names")
}

func runDelete(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	keys := args
	if deleteByName {
		keys = make([]string, len(args))
		for i, name := range args {
			keys[i] = filekeep.ContentKey(name)
		}
	}

	results, err := client.DeleteFiles(cmd.Context(), keys)
	if err != nil {
		return reportError(cmd, err)
	}

	if err := getFormatter().FormatDelete(cmd.OutOrStdout(), results); err != nil {
		return err
	}

	if clientcli.HasDeleteErrors(results) {
		return &exitError{code: 1}
	}
	return nil
}
