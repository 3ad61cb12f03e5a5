package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvEnvironment, "")
	tmpDir := t.TempDir()

	tests := []struct {
		name    string
		config  string
		wantURL string
		wantErr bool
	}{
		{
			name: "valid cognito config",
			config: `version: 1.0
api_url: "abc123.execute-api.us-east-1.amazonaws.com/"
environment: production
identity:
  provider: cognito
  cognito:
    region: us-east-1
    user_pool_id: us-east-1_AbCd
    client_id: client-1`,
			wantURL: "https://abc123.execute-api.us-east-1.amazonaws.com/prod",
		},
		{
			name: "valid oauth2 config",
			config: `version: 1.0
api_url: "http://localhost:3000"
identity:
  provider: oauth2
  oauth2:
    token_url: http://localhost:9000/token
    client_id: seatbelt-admin`,
			wantURL: "http://localhost:3000",
		},
		{
			name: "stage already present",
			config: `api_url: "https://api.example.org/dev"
environment: development
identity:
  cognito:
    region: us-east-1
    client_id: client-1`,
			wantURL: "https://api.example.org/dev",
		},
		{
			name: "missing api url",
			config: `version: 1.0
identity:
  cognito:
    region: us-east-1
    client_id: client-1`,
			wantErr: true,
		},
		{
			name: "unknown environment",
			config: `api_url: "https://api.example.org"
environment: staging
identity:
  cognito:
    region: us-east-1
    client_id: client-1`,
			wantErr: true,
		},
		{
			name: "missing client id",
			config: `api_url: "https://api.example.org"
identity:
  cognito:
    region: us-east-1`,
			wantErr: true,
		},
		{
			name: "oauth2 without token url or issuer",
			config: `api_url: "https://api.example.org"
identity:
  provider: oauth2
  oauth2:
    client_id: seatbelt-admin`,
			wantErr: true,
		},
		{
			name: "unknown provider",
			config: `api_url: "https://api.example.org"
identity:
  provider: saml`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configFile := filepath.Join(tmpDir, "config.yaml")
			if err := os.WriteFile(configFile, []byte(tt.config), 0644); err != nil {
				t.Fatalf("Failed to write test config: %v", err)
			}

			err := LoadConfig(configFile)
			if (err != nil) != tt.wantErr {
				t.Errorf("LoadConfig() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr {
				cfg := GetConfig()
				if cfg == nil {
					t.Error("GetConfig() returned nil")
					return
				}
				if got := cfg.APIBaseURL(); got != tt.wantURL {
					t.Errorf("APIBaseURL() = %v, want %v", got, tt.wantURL)
				}
			}
		})
	}
}

func TestConfigEnvironmentOverrides(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	content := `api_url: "https://api.example.org"
environment: production
identity:
  cognito:
    region: us-east-1
    client_id: client-1`
	if err := os.WriteFile(configFile, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	t.Setenv(EnvAPIURL, "https://staging.example.org/")
	t.Setenv(EnvEnvironment, "testing")

	if err := LoadConfig(configFile); err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if got, want := GetConfig().APIBaseURL(), "https://staging.example.org/test"; got != want {
		t.Errorf("APIBaseURL() = %v, want %v", got, want)
	}
}

func TestMissingConfigFile(t *testing.T) {
	err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("LoadConfig() should fail for a missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadConfig() error = %v, want a not-exist error", err)
	}
}

func TestMorphServer(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "no protocol",
			input:    "api.example.org",
			expected: "https://api.example.org",
		},
		{
			name:     "http protocol kept",
			input:    "http://localhost:3000",
			expected: "http://localhost:3000",
		},
		{
			name:     "https protocol",
			input:    "https://api.example.org",
			expected: "https://api.example.org",
		},
		{
			name:     "trailing slashes",
			input:    "https://api.example.org///",
			expected: "https://api.example.org",
		},
		{
			name:     "surrounding space",
			input:    "  api.example.org/prod ",
			expected: "https://api.example.org/prod",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MorphServer(tt.input)
			if got != tt.expected {
				t.Errorf("MorphServer() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestWriteConfig(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := &Config{
		Version:     "1.0",
		APIURL:      "https://api.example.org",
		Environment: "testing",
	}
	cfg.Identity.Cognito.Region = "us-east-1"
	cfg.Identity.Cognito.ClientID = "client-1"

	configFile := filepath.Join(tmpDir, "nested", "config.yaml")
	if err := cfg.WriteConfig(configFile); err != nil {
		t.Fatalf("WriteConfig() error = %v", err)
	}

	info, err := os.Stat(configFile)
	if err != nil {
		t.Fatalf("WriteConfig() did not create the file: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("config file mode = %v, want 0600", info.Mode().Perm())
	}

	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvEnvironment, "")
	if err := LoadConfig(configFile); err != nil {
		t.Fatalf("LoadConfig() of written file error = %v", err)
	}
	if got := GetConfig().APIBaseURL(); got != "https://api.example.org/test" {
		t.Errorf("APIBaseURL() = %v", got)
	}

	var buf bytes.Buffer
	GetConfig().Print(&buf)
	if !strings.Contains(buf.String(), "Identity Provider: cognito") {
		t.Errorf("Print() = %q, want the default provider", buf.String())
	}

	if err := cfg.WriteConfig(""); err == nil {
		t.Error("WriteConfig() should return error for empty file path")
	}
}
