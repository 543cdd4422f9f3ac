package clientcli

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// DefaultEndpoint is where a local filekeep server listens by default.
const DefaultEndpoint = "http://localhost:5710"

// Environment variables read by the client.
const (
	EnvEndpoint  = "FILEKEEP_ENDPOINT"
	EnvAccessKey = "FILEKEEP_ACCESS_KEY"
	EnvSecretKey = "FILEKEEP_SECRET_KEY"
	EnvProfile   = "FILEKEEP_PROFILE"
	EnvConfig    = "FILEKEEP_CONFIG"
)

// Profile is one named server entry of the config file.
type Profile struct {
	Name      string `yaml:"name"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
	Default   bool   `yaml:"default,omitempty"`
}

// ConfigFile is the on-disk client configuration.
type ConfigFile struct {
	Profiles []Profile `yaml:"profiles"`
}

func (c *ConfigFile) index(name string) int {
	return slices.IndexFunc(c.Profiles, func(p Profile) bool { return p.Name == name })
}

// GetProfile returns the named profile, or the default profile when name is
// empty.
func (c *ConfigFile) GetProfile(name string) (*Profile, error) {
	if name == "" {
		return c.GetDefaultProfile()
	}
	if len(c.Profiles) == 0 {
		return nil, ErrNoProfiles
	}

	i := c.index(name)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	return &c.Profiles[i], nil
}

// GetDefaultProfile returns the profile marked default, falling back to the
// first one.
func (c *ConfigFile) GetDefaultProfile() (*Profile, error) {
	if len(c.Profiles) == 0 {
		return nil, ErrNoProfiles
	}

	if i := slices.IndexFunc(c.Profiles, func(p Profile) bool { return p.Default }); i >= 0 {
		return &c.Profiles[i], nil
	}
	return &c.Profiles[0], nil
}

// AddProfile appends p. Names are unique; use UpdateProfile to change an
// existing entry.
func (c *ConfigFile) AddProfile(p Profile) error {
	if p.Name == "" {
		return fmt.Errorf("add profile: %w", ErrProfileNameRequired)
	}
	if c.index(p.Name) >= 0 {
		return fmt.Errorf("%w: %s", ErrProfileExists, p.Name)
	}

	c.Profiles = append(c.Profiles, p)
	return nil
}

// UpdateProfile replaces the profile with the same name as p. The default
// flag is kept as it was; change it with SetDefault.
func (c *ConfigFile) UpdateProfile(p Profile) error {
	i := c.index(p.Name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, p.Name)
	}

	p.Default = c.Profiles[i].Default
	c.Profiles[i] = p
	return nil
}

// RemoveProfile deletes the named profile.
func (c *ConfigFile) RemoveProfile(name string) error {
	i := c.index(name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}

	c.Profiles = slices.Delete(c.Profiles, i, i+1)
	return nil
}

// SetDefault marks the named profile as the only default.
func (c *ConfigFile) SetDefault(name string) error {
	if c.index(name) < 0 {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}

	for i := range c.Profiles {
		c.Profiles[i].Default = c.Profiles[i].Name == name
	}
	return nil
}

// ProfileNames returns profile names in file order.
func (c *ConfigFile) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for _, p := range c.Profiles {
		names = append(names, p.Name)
	}
	return names
}

// Save writes the file with owner-only permissions. It writes a temp file
// next to path and renames it, so a failed save leaves the old file intact.
func (c *ConfigFile) Save(path string) error {
	path = filepath.Clean(path)
	dir := filepath.Dir(path)

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("chmod config file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace config file: %w", err)
	}
	return nil
}

// LoadConfigFile reads and parses the config file at path.
func LoadConfigFile(path string) (*ConfigFile, error) {
	data, err := os.ReadFile(filepath.Clean(path)) //#nosec G304 -- path is user-provided config file
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg ConfigFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return &cfg, nil
}

// DefaultConfigPath returns ~/.filekeep/config.yaml, or "" when the home
// directory is unknown.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".filekeep", "config.yaml")
}

// Config is the resolved connection setting for one server. Reads need only
// an endpoint; AddFile and DeleteFiles also need credentials.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
}

// WithDefaults returns a copy with an empty Endpoint set to DefaultEndpoint.
func (c *Config) WithDefaults() *Config {
	cfg := *c
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	return &cfg
}

// ValidateWithAuth checks that both credentials are set.
func (c *Config) ValidateWithAuth() error {
	switch {
	case c.AccessKey == "":
		return ErrAccessKeyRequired
	case c.SecretKey == "":
		return ErrSecretKeyRequired
	}
	return nil
}

// ConfigFromProfile converts p to a Config. A nil profile yields an empty
// Config.
func ConfigFromProfile(p *Profile) *Config {
	if p == nil {
		return &Config{}
	}
	return &Config{Endpoint: p.Endpoint, AccessKey: p.AccessKey, SecretKey: p.SecretKey}
}

// ConfigFromEnv reads FILEKEEP_ENDPOINT, FILEKEEP_ACCESS_KEY and
// FILEKEEP_SECRET_KEY.
func ConfigFromEnv() *Config {
	return &Config{
		Endpoint:  os.Getenv(EnvEndpoint),
		AccessKey: os.Getenv(EnvAccessKey),
		SecretKey: os.Getenv(EnvSecretKey),
	}
}

// ProfileFromEnv returns FILEKEEP_PROFILE.
func ProfileFromEnv() string {
	return os.Getenv(EnvProfile)
}

// ConfigPathFromEnv returns FILEKEEP_CONFIG.
func ConfigPathFromEnv() string {
	return os.Getenv(EnvConfig)
}

// MergeConfig layers configs left to right. Non-empty fields of later
// configs win; nil entries are skipped.
func MergeConfig(configs ...*Config) *Config {
	result := &Config{}
	for _, cfg := range configs {
		if cfg == nil {
			continue
		}
		result.Endpoint = cmp.Or(cfg.Endpoint, result.Endpoint)
		result.AccessKey = cmp.Or(cfg.AccessKey, result.AccessKey)
		result.SecretKey = cmp.Or(cfg.SecretKey, result.SecretKey)
	}
	return result
}
