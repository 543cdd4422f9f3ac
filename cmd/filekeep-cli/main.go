package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/sagarc03/filekeep/clientcli"
	"github.com/spf13/cobra"
)

var (
	version = "dev"

	cfgFile    string
	profile    string
	endpoint   string
	accessKey  string
	secretKey  string
	jsonOutput bool
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:     "filekeep-cli",
	Version: version,
	Short:   "Client for the filekeep file registry",
	Long: `filekeep-cli - client for a filekeep server

Settings are resolved from, in increasing precedence:
  1. the selected profile in the config file (--profile, FILEKEEP_PROFILE)
  2. FILEKEEP_ENDPOINT, FILEKEEP_ACCESS_KEY, FILEKEEP_SECRET_KEY
  3. command line flags

Reads (get, list) need only an endpoint unless the server keeps reads
private. add and delete are signed with the access key, and the server
records the key's account as the file owner.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.filekeep/config.yaml, env: FILEKEEP_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "profile to use (env: FILEKEEP_PROFILE)")
	rootCmd.PersistentFlags().StringVarP(&endpoint, "endpoint", "e", "", "server URL (default: http://localhost:5710, env: FILEKEEP_ENDPOINT)")
	rootCmd.PersistentFlags().StringVarP(&accessKey, "access-key", "a", "", "access key (env: FILEKEEP_ACCESS_KEY)")
	rootCmd.PersistentFlags().StringVarP(&secretKey, "secret-key", "k", "", "secret key (env: FILEKEEP_SECRET_KEY)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "print only keys or URLs")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(hashCmd)
	rootCmd.AddCommand(configureCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.code)
		}
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// getConfigPath returns the config file path from the flag, the
// environment or the default location.
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if p := clientcli.ConfigPathFromEnv(); p != "" {
		return p
	}
	return clientcli.DefaultConfigPath()
}

// buildConfig merges the profile, env vars and flags (flags take precedence).
// A missing config file is only an error when --config or a profile was asked
// for explicitly.
func buildConfig() (*clientcli.Config, error) {
	var configs []*clientcli.Config

	profileName := profile
	if profileName == "" {
		profileName = clientcli.ProfileFromEnv()
	}
	explicit := cfgFile != "" || profileName != ""

	if path := getConfigPath(); path != "" {
		file, err := clientcli.LoadConfigFile(path)
		switch {
		case err == nil:
			p, profileErr := file.GetProfile(profileName)
			if profileErr != nil && (profileName != "" || !errors.Is(profileErr, clientcli.ErrNoProfiles)) {
				return nil, profileErr
			}
			configs = append(configs, clientcli.ConfigFromProfile(p))
		case explicit:
			return nil, err
		}
	}

	configs = append(configs,
		clientcli.ConfigFromEnv(),
		&clientcli.Config{Endpoint: endpoint, AccessKey: accessKey, SecretKey: secretKey},
	)

	return clientcli.MergeConfig(configs...), nil
}

// getFormatter returns the appropriate formatter based on flags.
func getFormatter() clientcli.Formatter {
	return clientcli.NewFormatter(jsonOutput, quiet)
}

// getClient creates and returns a configured client.
func getClient() (*clientcli.Client, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, fmt.Errorf("resolve config: %w", err)
	}

	return clientcli.New(cfg)
}

// reportError prints err with the active formatter and hands it back for
// cobra.
func reportError(cmd *cobra.Command, err error) error {
	_ = getFormatter().FormatError(cmd.ErrOrStderr(), err)
	return &exitError{code: 1}
}

// exitError is returned when we want to exit with a specific code
// but don't want cobra to print an error message.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return ""
}
