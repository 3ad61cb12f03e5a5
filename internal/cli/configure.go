package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/seatbelt-tracker/seatbelt-admin/internal/identity"
	"github.com/spf13/cobra"
)

var newConfig Config
var forceConfig bool

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create or show the CLI configuration",
}

var createConfigCmd = &cobra.Command{
	Use:   "create",
	Short: "Write a new configuration file",
	Long: `Write a new configuration file. The file is placed in the OS config
directory unless --config is given.

Examples:
  seatbelt-admin config create --api-url https://abc123.execute-api.us-east-1.amazonaws.com \
    --environment production --region us-east-1 --user-pool-id us-east-1_AbCd --client-id 4f0example
  seatbelt-admin config create --api-url https://admin.example.org --provider oauth2 \
    --issuer https://id.example.org --client-id seatbelt-admin`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(configFile); err == nil && !forceConfig {
			return fmt.Errorf("%s already exists; use --force to overwrite it", configFile)
		}

		cfg := newConfig
		cfg.Version = "1.0"
		if cfg.Identity.Provider == identity.KindOAuth2 {
			// --client-id is shared by both providers
			cfg.Identity.OAuth2.ClientID = cfg.Identity.Cognito.ClientID
			cfg.Identity.Cognito = identity.CognitoConfig{}
		} else {
			cfg.Identity.OAuth2 = identity.PasswordGrantConfig{}
		}
		if err := cfg.ValidateConfig(); err != nil {
			return err
		}
		cfg.APIURL = MorphServer(cfg.APIURL)
		if err := cfg.WriteConfig(configFile); err != nil {
			return err
		}

		if jsonOutput {
			printResult(cmd.OutOrStdout(), map[string]any{"file": configFile})
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", configFile)
		cfg.Print(cmd.OutOrStdout())
		return nil
	},
}

var showConfigCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the configuration in effect",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := LoadConfig(configFile); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("no configuration at %s", configFile)
			}
			return err
		}
		cfg := GetConfig()
		if jsonOutput {
			printResult(cmd.OutOrStdout(), map[string]any{
				"file":        configFile,
				"api":         cfg.APIBaseURL(),
				"environment": cfg.Environment,
				"provider":    cfg.Identity.Provider,
			})
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "File: %s\n", configFile)
		cfg.Print(cmd.OutOrStdout())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(createConfigCmd)
	configCmd.AddCommand(showConfigCmd)

	f := createConfigCmd.Flags()
	f.StringVar(&newConfig.APIURL, "api-url", "", "Root URL of the admin API")
	f.StringVar(&newConfig.Environment, "environment", "", "development, testing or production")
	f.StringVar(&newConfig.SessionFile, "session-file", "", "Where to keep the signed in session")
	f.StringVar(&newConfig.Identity.Provider, "provider", identity.KindCognito, "Identity provider: cognito or oauth2")
	f.StringVar(&newConfig.Identity.Cognito.Region, "region", "", "Cognito region")
	f.StringVar(&newConfig.Identity.Cognito.UserPoolID, "user-pool-id", "", "Cognito user pool id")
	f.StringVar(&newConfig.Identity.Cognito.ClientID, "client-id", "", "Identity provider client id")
	f.StringVar(&newConfig.Identity.Cognito.Endpoint, "cognito-endpoint", "", "Override the Cognito endpoint")
	f.StringVar(&newConfig.Identity.OAuth2.TokenURL, "token-url", "", "OAuth2 token endpoint")
	f.StringVar(&newConfig.Identity.OAuth2.IssuerURL, "issuer", "", "OIDC issuer used for discovery and token verification")
	f.StringVar(&newConfig.Identity.OAuth2.ClientSecret, "client-secret", "", "OAuth2 client secret")
	f.StringSliceVar(&newConfig.Identity.OAuth2.Scopes, "scopes", nil, "OAuth2 scopes")
	f.BoolVar(&forceConfig, "force", false, "Overwrite an existing configuration file")
}
