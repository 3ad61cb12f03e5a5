package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/auth"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/common/logtrace"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "v0.1.0"

var (
	// Global flags
	jsonOutput bool
	configFile string
	logLevel   string
)

// ErrNotSignedIn is returned by guarded commands when there is no valid session.
var ErrNotSignedIn = errors.New("not signed in or session expired; run \"seatbelt-admin login\" first")

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "seatbelt-admin",
	Short: "Seatbelt Tracker admin CLI",
	Long: `seatbelt-admin manages the Seatbelt Tracker survey backend.
It signs operators in and manages users, sites, site images and collected
survey data.`,
	PersistentPreRunE: preRunHandlePersistents,
}

func init() {
	// Set up persistent flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "", "", "Path to configuration file to override default")
	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newVersionCmd())
}

// NewRootCmd returns the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	return rootCmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SilenceErrors = true // Prevent Cobra from printing the error
	rootCmd.SilenceUsage = true  // Prevent Cobra from printing usage on error

	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		reportError(os.Stdout, os.Stderr, err)
		os.Exit(1)
	}
}

// commands that run without a signed in session
var unguarded = map[string]bool{
	"login":   true,
	"logout":  true,
	"status":  true,
	"config":  true,
	"version": true,
	"help":    true,
}

func commandPath(cmd *cobra.Command) []string {
	var names []string
	for c := cmd; c != nil; c = c.Parent() {
		names = append(names, c.Name())
	}
	return names
}

func inCommand(cmd *cobra.Command, names map[string]bool) bool {
	for _, n := range commandPath(cmd) {
		if names[n] {
			return true
		}
	}
	return false
}

func preRunHandlePersistents(cmd *cobra.Command, args []string) error {
	logtrace.InitConsoleLogger(cmd.ErrOrStderr(), logLevel)
	cmd.SetContext(log.Logger.WithContext(cmd.Context()))

	// if a config file is provided, load config from config file
	if configFile == "" {
		var err error
		configFile, err = GetDefaultConfigPath()
		if err != nil {
			return err
		}
	}

	if inCommand(cmd, map[string]bool{"config": true, "version": true, "help": true}) {
		return nil
	}

	if err := LoadConfig(configFile); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return errors.New("seatbelt-admin config file not found. Configure seatbelt-admin with \"seatbelt-admin config create\" first")
		}
		return fmt.Errorf("unable to load config file: %w", err)
	}

	rt, err := newRuntime(GetConfig())
	if err != nil {
		return err
	}
	setRuntime(rt)
	rt.provider.Start(cmd.Context())

	if inCommand(cmd, unguarded) {
		return nil
	}
	if auth.NewGuard(rt.provider).Check() != auth.Allow {
		return ErrNotSignedIn
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of seatbelt-admin",
		Run: func(cmd *cobra.Command, args []string) {
			if jsonOutput {
				kv := map[string]string{
					"version": Version,
				}
				printJSON(cmd.OutOrStdout(), kv)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "seatbelt-admin "+Version)
			}
		},
	}
}

// printJSON prints the given value as indented JSON
func printJSON(w io.Writer, data any) {
	jsonData, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(w, string(jsonData))
}

// printResult prints a successful command result in the {"result":1,"value":...} envelope
func printResult(w io.Writer, value any) {
	printJSON(w, map[string]any{
		"result": 1,
		"value":  value,
	})
}
