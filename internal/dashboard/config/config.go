package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

const (
	DefaultServerPort = "8195"

	SessionStoreMemory = "memory"
	SessionStoreFile   = "file"
)

type ConfigParam struct {
	ServerPort     string   `toml:"server_port"`
	HandleCORS     bool     `toml:"handle_cors"`
	AllowedOrigins []string `toml:"allowed_origins"`
	// ClientConfig is the seatbelt-admin YAML file naming the backend and
	// identity provider.
	ClientConfig string `toml:"client_config"`
	Metrics      bool   `toml:"metrics"`
	LogLevel     string `toml:"log_level"`
	SessionStore string `toml:"session_store"`
	SessionFile  string `toml:"session_file"`
}

var cfg *ConfigParam

func Config() *ConfigParam {
	return cfg
}

func defaults() *ConfigParam {
	return &ConfigParam{
		ServerPort:     DefaultServerPort,
		HandleCORS:     true,
		AllowedOrigins: []string{"http://localhost:3000"},
		Metrics:        true,
		LogLevel:       "info",
		SessionStore:   SessionStoreMemory,
	}
}

// LoadConfig reads filename over the defaults. An empty filename leaves the
// defaults in place.
func LoadConfig(filename string) error {
	cp := defaults()
	if filename != "" {
		content, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("error reading config file: %w", err)
		}
		if _, err := toml.Decode(string(content), cp); err != nil {
			return fmt.Errorf("error parsing config file: %w", err)
		}
	}
	if err := cp.validate(); err != nil {
		return err
	}
	cfg = cp
	return nil
}

func (c *ConfigParam) validate() error {
	if c.ServerPort == "" {
		return fmt.Errorf("server port not defined")
	}
	switch c.SessionStore {
	case "":
		c.SessionStore = SessionStoreMemory
	case SessionStoreMemory, SessionStoreFile:
	default:
		return fmt.Errorf("unknown session store %q", c.SessionStore)
	}
	return nil
}

func init() {
	if err := LoadConfig(""); err != nil {
		panic(err)
	}
}
