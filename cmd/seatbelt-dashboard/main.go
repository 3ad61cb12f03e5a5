package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/cli"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/common/logtrace"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/dashboard/config"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/dashboard/server"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/identity"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/session"
)

type cmdoptions struct {
	configFile *string
}

func main() {
	opt := parseFlags()

	if err := config.LoadConfig(*opt.configFile); err != nil {
		fmt.Fprintf(os.Stderr, "unable to load config file %s: %v\n", *opt.configFile, err)
		os.Exit(1)
	}
	cfg := config.Config()
	logtrace.InitLogger(cfg.LogLevel)

	slog := log.With().Str("state", "init").Logger()
	ctx := slog.WithContext(context.Background())

	clientCfg, err := cli.ReadConfig(cfg.ClientConfig)
	if err != nil {
		slog.Error().Str("client_config", cfg.ClientConfig).Err(err).Msg("unable to load client config")
		os.Exit(1)
	}

	store, err := newSessionStore(cfg, clientCfg)
	if err != nil {
		slog.Error().Err(err).Msg("unable to open session store")
		os.Exit(1)
	}

	idp, err := identity.New(ctx, clientCfg.Identity)
	if err != nil {
		slog.Error().Err(err).Msg("unable to create identity provider")
		os.Exit(1)
	}

	s, err := server.CreateNewServer(ctx, server.Deps{
		Store:      store,
		Identity:   idp,
		APIBaseURL: clientCfg.APIBaseURL(),
	})
	if err != nil {
		slog.Error().Err(err).Msg("unable to create server")
		os.Exit(1)
	}
	s.MountHandlers()

	slog.Info().Str("port", cfg.ServerPort).Str("api", clientCfg.APIBaseURL()).Msg("starting dashboard")
	if err := http.ListenAndServe(":"+cfg.ServerPort, s.Router); err != nil {
		slog.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}

// newSessionStore shares the CLI's session file when the file store is
// selected, so a sign in from either is seen by both.
func newSessionStore(cfg *config.ConfigParam, clientCfg *cli.Config) (session.Store, error) {
	if cfg.SessionStore != config.SessionStoreFile {
		return session.NewMemoryStore(), nil
	}
	path := cfg.SessionFile
	if path == "" {
		path = clientCfg.SessionFile
	}
	return session.NewFileStore(path)
}

func parseFlags() cmdoptions {
	var opt cmdoptions
	opt.configFile = flag.String("config", "", "Path to the dashboard config file")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [options]\n\n", os.Args[0])
		fmt.Println("Options:")
		flag.PrintDefaults()
	}
	flag.Parse()
	return opt
}
