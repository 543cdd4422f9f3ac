package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/sagarc03/filekeep/clientcli"
	"github.com/spf13/cobra"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Manage server profiles",
	Long: `Manage server profiles in the configuration file.

A profile stores the endpoint and credentials of one filekeep server. Pick
one with --profile or FILEKEEP_PROFILE; otherwise the default is used.

Configuration is stored in ~/.filekeep/config.yaml`,
}

var configureListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configured profiles",
	Args:  cobra.NoArgs,
	RunE:  runConfigureList,
}

var configureAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add or update a profile interactively",
	Long: `Add or update a profile interactively.

You will be prompted for the endpoint URL, access key and secret key.
The server's health endpoint is checked before saving.`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigureAdd,
}

var configureRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove a profile",
	Args:    cobra.ExactArgs(1),
	RunE:    runConfigureRemove,
}

var configureSetDefaultCmd = &cobra.Command{
	Use:   "set-default <name>",
	Short: "Set the default profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigureSetDefault,
}

var configureShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show profile details",
	Long: `Show details for a profile, or the default profile when no name is given.
Secrets are masked unless --show-secrets is set.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigureShow,
}

var (
	showSecrets bool
	assumeYes   bool
)

func init() {
	configureCmd.AddCommand(configureListCmd)
	configureCmd.AddCommand(configureAddCmd)
	configureCmd.AddCommand(configureRemoveCmd)
	configureCmd.AddCommand(configureSetDefaultCmd)
	configureCmd.AddCommand(configureShowCmd)

	configureShowCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "show secret values")
	configureListCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "show secret values")
	configureRemoveCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "do not ask for confirmation")
}

// loadConfigFile loads the config file, treating a missing file as empty.
func loadConfigFile(path string) (*clientcli.ConfigFile, error) {
	cfg, err := clientcli.LoadConfigFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &clientcli.ConfigFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func runConfigureList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfigFile(getConfigPath())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	def, err := cfg.GetDefaultProfile()
	if errors.Is(err, clientcli.ErrNoProfiles) {
		_, _ = fmt.Fprintln(out, "No profiles configured.")
		_, _ = fmt.Fprintln(out, "Run 'filekeep-cli configure add <name>' to create one.")
		return nil
	}
	if err != nil {
		return err
	}

	return getFormatter().FormatProfileList(out, cfg.Profiles, def.Name, showSecrets)
}

func runConfigureAdd(cmd *cobra.Command, args []string) error {
	name := args[0]
	path := getConfigPath()
	out := cmd.OutOrStdout()

	cfg, err := loadConfigFile(path)
	if err != nil {
		return err
	}

	existing, _ := cfg.GetProfile(name)
	if existing != nil && !confirm(fmt.Sprintf("Profile '%s' already exists. Update it", name)) {
		_, _ = fmt.Fprintln(out, "Cancelled.")
		return nil
	}

	defaults := clientcli.Profile{Endpoint: clientcli.DefaultEndpoint}
	if existing != nil {
		defaults = *existing
	}

	endpointURL, err := (&promptui.Prompt{
		Label:    "Endpoint URL",
		Default:  defaults.Endpoint,
		Validate: validateEndpoint,
	}).Run()
	if err != nil {
		return handlePromptError(out, err)
	}

	access, err := (&promptui.Prompt{Label: "Access Key", Default: defaults.AccessKey}).Run()
	if err != nil {
		return handlePromptError(out, err)
	}

	secret, err := (&promptui.Prompt{Label: "Secret Key", Mask: '*'}).Run()
	if err != nil {
		return handlePromptError(out, err)
	}
	if secret == "" {
		secret = defaults.SecretKey
	}

	setAsDefault := len(cfg.Profiles) == 0 || (existing != nil && existing.Default)
	if !setAsDefault {
		setAsDefault = confirm("Set as default profile")
	}

	_, _ = fmt.Fprint(out, "Testing connection... ")
	if connErr := checkServer(cmd.Context(), endpointURL); connErr != nil {
		_, _ = fmt.Fprintln(out, "FAILED")
		_, _ = fmt.Fprintf(out, "Warning: %v\n", connErr)
		if !confirm("Save profile anyway") {
			_, _ = fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	} else {
		_, _ = fmt.Fprintln(out, "OK")
	}

	p := clientcli.Profile{
		Name:      name,
		Endpoint:  strings.TrimSuffix(endpointURL, "/"),
		AccessKey: access,
		SecretKey: secret,
	}

	if existing != nil {
		err = cfg.UpdateProfile(p)
	} else {
		err = cfg.AddProfile(p)
	}
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}

	if setAsDefault {
		if err := cfg.SetDefault(name); err != nil {
			return err
		}
	}

	if err := cfg.Save(path); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	verb := "added"
	if existing != nil {
		verb = "updated"
	}
	_, _ = fmt.Fprintf(out, "Profile '%s' %s.\n", name, verb)
	if setAsDefault {
		_, _ = fmt.Fprintln(out, "Set as default profile.")
	}

	return nil
}

func runConfigureRemove(cmd *cobra.Command, args []string) error {
	name := args[0]
	path := getConfigPath()

	cfg, err := loadConfigFile(path)
	if err != nil {
		return err
	}

	if _, err := cfg.GetProfile(name); err != nil {
		return err
	}

	if !assumeYes && !confirm(fmt.Sprintf("Remove profile '%s'", name)) {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
		return nil
	}

	if err := cfg.RemoveProfile(name); err != nil {
		return err
	}

	if err := cfg.Save(path); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Profile '%s' removed.\n", name)
	return nil
}

func runConfigureSetDefault(cmd *cobra.Command, args []string) error {
	name := args[0]
	path := getConfigPath()

	cfg, err := loadConfigFile(path)
	if err != nil {
		return err
	}

	if err := cfg.SetDefault(name); err != nil {
		return err
	}

	if err := cfg.Save(path); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Default profile set to '%s'.\n", name)
	return nil
}

func runConfigureShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigFile(getConfigPath())
	if err != nil {
		return err
	}

	name := ""
	if len(args) > 0 {
		name = args[0]
	}

	p, err := cfg.GetProfile(name)
	if err != nil {
		return err
	}

	def, err := cfg.GetDefaultProfile()
	if err != nil {
		return err
	}

	return getFormatter().FormatProfileShow(cmd.OutOrStdout(), *p, def.Name == p.Name, showSecrets)
}

func validateEndpoint(input string) error {
	if input == "" {
		return errors.New("endpoint URL is required")
	}
	u, err := url.Parse(input)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("URL must start with http:// or https://")
	}
	return nil
}

// checkServer calls the health endpoint of the server at endpointURL.
func checkServer(ctx context.Context, endpointURL string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client, err := clientcli.New(&clientcli.Config{Endpoint: endpointURL})
	if err != nil {
		return err
	}
	return client.Health(ctx)
}

func confirm(label string) bool {
	_, err := (&promptui.Prompt{Label: label, IsConfirm: true}).Run()
	return err == nil
}

func handlePromptError(out io.Writer, err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) {
		_, _ = fmt.Fprintln(out, "Cancelled.")
		return nil
	}
	return err
}
