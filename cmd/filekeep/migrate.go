package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sagarc03/filekeep/config"
	"github.com/sagarc03/filekeep/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or check the files table",
	Long: `Create the files table and its index if they do not exist, then
validate the schema. With --check nothing is created; the command fails
if the schema is missing or does not match.`,
	RunE: runMigrate,
}

var migrateCheckOnly bool

func init() {
	migrateCmd.Flags().BoolVar(&migrateCheckOnly, "check", false, "only validate the existing schema")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	db, err := database.Open(cmd.Context(), cfg.Database.Config, !migrateCheckOnly)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	defer func() { _ = db.Close() }()

	slog.Info("schema is valid", "type", cfg.Database.Type, "table", cfg.Database.Tables.Files)
	return nil
}
