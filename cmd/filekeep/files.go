package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sagarc03/filekeep"
	"github.com/sagarc03/filekeep/config"
)

var filesCmd = &cobra.Command{
	Use:   "files <account>",
	Short: "List files owned by an account",
	Long: `List up to 100 records owned by the account, in registry order.

Examples:
  filekeep files alice.near
  filekeep files --json alice.near`,
	Args: cobra.ExactArgs(1),
	RunE: runFiles,
}

var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Show one record",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

var filesJSON bool

func init() {
	filesCmd.Flags().BoolVar(&filesJSON, "json", false, "output as JSON")
	getCmd.Flags().BoolVar(&filesJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(filesCmd)
	rootCmd.AddCommand(getCmd)
}

func runFiles(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	registry, closeDB, err := openRegistry(cmd.Context(), cfg, false)
	if err != nil {
		return err
	}
	defer closeDB()

	files, err := registry.GetUserFiles(cmd.Context(), filekeep.Account(args[0]))
	if err != nil {
		return err
	}

	if filesJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(files)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "KEY\tNAME\tURL\tTIMESTAMP")
	for _, f := range files {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", filekeep.ContentKey(f.Name), f.Name, f.URL, strconv.FormatUint(f.Timestamp, 10))
	}
	return w.Flush()
}

func runGet(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	registry, closeDB, err := openRegistry(cmd.Context(), cfg, false)
	if err != nil {
		return err
	}
	defer closeDB()

	rec, ok, err := registry.GetFile(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: %w", args[0], filekeep.ErrNotFound)
	}

	if filesJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "name:      %s\nurl:       %s\nowner:     %s\ntimestamp: %d\n",
		rec.Name, rec.URL, rec.Owner, rec.Timestamp)
	return err
}
