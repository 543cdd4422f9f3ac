package main

import (
	"github.com/sagarc03/filekeep"
	"github.com/spf13/cobra"
)

var getByName bool

var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Show the record stored under a key",
	Long: `Show the record stored under a key.

With --by-name the argument is a file name and its key is derived locally.

Examples:
  filekeep-cli get ZGbkUKFrd7hlxYKda2xW2fiSlWR1ZC2+uczENA/gGxU=
  filekeep-cli get --by-name report.pdf
  filekeep-cli get -q --by-name report.pdf   # print only the URL`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func init() {
	getCmd.Flags().BoolVar(&getByName, "by-name", false, "treat the argument as a file name")
}

func runGet(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	key := args[0]
	if getByName {
		key = filekeep.ContentKey(key)
	}

	file, err := client.GetFile(cmd.Context(), key)
	if err != nil {
		return reportError(cmd, err)
	}

	return getFormatter().FormatFile(cmd.OutOrStdout(), file)
}
