package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/filekeep/config"
)

var version = "dev"

var configFiles []string

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "filekeep",
	Short:   "Content-addressed file registry server",
	Long: `filekeep maps file names to URLs under a key derived from the name
(SHA-256, base64) and remembers who registered each file. Only the owner
of a record may delete it.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return err
		}
		setupLogging(cfg)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&configFiles, "config", nil, "config file paths, merged left to right (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("db-type", "", "database type: memory, sqlite, postgres, bolt (env: FILEKEEP_DATABASE_TYPE)")
	rootCmd.PersistentFlags().String("db-dsn", "", "database connection string or bolt file path (env: FILEKEEP_DATABASE_DSN)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
