package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/seatbelt-tracker/seatbelt-admin/internal/identity"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default name of the config file
const DefaultConfigFile = "config.yaml"

// Environment variables that override the config file.
const (
	EnvAPIURL      = "SEATBELT_API_URL"
	EnvEnvironment = "SEATBELT_ENV"
)

// Deployment environments and the API stage each one is served from.
var stages = map[string]string{
	"development": "dev",
	"testing":     "test",
	"production":  "prod",
}

// Config represents the configuration for the seatbelt-admin CLI
type Config struct {
	// Version of the configuration file format
	Version string `yaml:"version"`
	// APIURL is the root of the admin API, without the stage
	APIURL string `yaml:"api_url"`
	// Environment is one of development, testing or production
	Environment string `yaml:"environment,omitempty"`
	// Identity configures how operators sign in
	Identity identity.Config `yaml:"identity"`
	// SessionFile overrides where the signed in session is kept
	SessionFile string `yaml:"session_file,omitempty"`
}

var config *Config

// GetDefaultConfigPath returns the default path for the config file
// It uses the OS-specific config directory (e.g., ~/.config/seatbelt-admin on Linux)
func GetDefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, "seatbelt-admin", DefaultConfigFile), nil
}

// LoadConfig loads the configuration from the specified file
// If no file is specified, it uses the default config location
func LoadConfig(file string) error {
	c, err := ReadConfig(file)
	if err != nil {
		return err
	}
	config = c
	return nil
}

// ReadConfig reads and validates a config file without making it the
// current configuration.
func ReadConfig(file string) (*Config, error) {
	if file == "" {
		var err error
		file, err = GetDefaultConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get default config path: %w", err)
		}
	}

	yamlStr, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}

	var c Config
	if err = yaml.Unmarshal(yamlStr, &c); err != nil {
		return nil, fmt.Errorf("unable to parse config file: %w", err)
	}
	c.applyEnv()

	if err := c.ValidateConfig(); err != nil {
		return nil, err
	}

	c.APIURL = MorphServer(c.APIURL)
	return &c, nil
}

func (cfg *Config) applyEnv() {
	if v := os.Getenv(EnvAPIURL); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv(EnvEnvironment); v != "" {
		cfg.Environment = v
	}
}

// GetConfig returns the current configuration
func GetConfig() *Config {
	return config
}

// WriteConfig writes the configuration to the specified file
func (cfg *Config) WriteConfig(file string) error {
	if file == "" {
		return errors.New("file path cannot be empty")
	}

	err := os.MkdirAll(filepath.Dir(file), 0o700)
	if err != nil {
		return fmt.Errorf("unable to create config directory: %w", err)
	}

	yamlStr, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("unable to generate configuration: %w", err)
	}

	err = os.WriteFile(file, yamlStr, os.FileMode(0600))
	if err != nil {
		return fmt.Errorf("unable to write config file: %w", err)
	}

	return nil
}

// ValidateConfig checks for required fields and proper formatting
func (cfg *Config) ValidateConfig() error {
	if cfg.APIURL == "" {
		return errors.New("api_url is required")
	}
	u := MorphServer(cfg.APIURL)
	if strings.ContainsAny(strings.TrimPrefix(strings.TrimPrefix(u, "https://"), "http://"), " \t") {
		return errors.New("api_url must not contain spaces")
	}
	if cfg.Environment != "" {
		if _, ok := stages[strings.ToLower(cfg.Environment)]; !ok {
			return fmt.Errorf("environment must be one of development, testing or production, got %q", cfg.Environment)
		}
	}
	switch strings.ToLower(cfg.Identity.Provider) {
	case "", identity.KindCognito:
		if cfg.Identity.Cognito.ClientID == "" {
			return errors.New("identity.cognito.client_id is required")
		}
		if cfg.Identity.Cognito.Region == "" && cfg.Identity.Cognito.Endpoint == "" {
			return errors.New("identity.cognito.region is required")
		}
	case identity.KindOAuth2:
		if cfg.Identity.OAuth2.ClientID == "" {
			return errors.New("identity.oauth2.client_id is required")
		}
		if cfg.Identity.OAuth2.TokenURL == "" && cfg.Identity.OAuth2.IssuerURL == "" {
			return errors.New("identity.oauth2 needs token_url or issuer")
		}
	default:
		return fmt.Errorf("unknown identity provider %q", cfg.Identity.Provider)
	}
	return nil
}

// Stage returns the API stage for the configured environment, or "" when no
// environment is set.
func (cfg *Config) Stage() string {
	return stages[strings.ToLower(cfg.Environment)]
}

// APIBaseURL returns the API root including the environment's stage.
func (cfg *Config) APIBaseURL() string {
	base := MorphServer(cfg.APIURL)
	stage := cfg.Stage()
	if stage == "" || base == "" || strings.HasSuffix(base, "/"+stage) {
		return base
	}
	return base + "/" + stage
}

// Print prints the current configuration in a human-readable format
func (cfg *Config) Print(w io.Writer) {
	fmt.Fprintf(w, "API: %s\n", cfg.APIBaseURL())
	if cfg.Environment != "" {
		fmt.Fprintf(w, "Environment: %s\n", cfg.Environment)
	}
	provider := cfg.Identity.Provider
	if provider == "" {
		provider = identity.KindCognito
	}
	fmt.Fprintf(w, "Identity Provider: %s\n", provider)
	if cfg.SessionFile != "" {
		fmt.Fprintf(w, "Session File: %s\n", cfg.SessionFile)
	}
}

// MorphServer ensures the server URL is properly formatted
// Adds https:// prefix if missing and removes trailing slashes
func MorphServer(server string) string {
	server = strings.TrimSpace(server)
	if server == "" {
		return server
	}

	// Remove any trailing slashes
	server = strings.TrimRight(server, "/")

	// Add https:// if no protocol is specified
	if !strings.HasPrefix(server, "http://") && !strings.HasPrefix(server, "https://") {
		server = "https://" + server
	}

	return server
}
