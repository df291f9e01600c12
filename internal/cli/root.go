// Package cli defines the command line interface: the HTTP server, a one-shot
// sync and helpers for the selector profile.
package cli

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mrlokans/notebooksync/internal/config"
	"github.com/mrlokans/notebooksync/internal/entrypoint"
	"github.com/mrlokans/notebooksync/internal/logging"
	"github.com/mrlokans/notebooksync/internal/services"
)

// app carries what every command needs. Config and logger are resolved lazily
// so that --help never touches the environment.
type app struct {
	version      string
	loadCfg      func() *config.Config
	newExtractor func(*config.Config, zerolog.Logger) (services.Extractor, error)
	readSecret   func() (string, error)

	cfg    *config.Config
	logger zerolog.Logger
}

func (a *app) init() {
	if a.cfg != nil {
		return
	}
	a.cfg = a.loadCfg()
	a.logger = logging.New(a.cfg.Global.LogLevel, a.cfg.Global.LogFormat)
}

// NewRootCommand builds the command tree. Without a subcommand the HTTP
// server is started.
func NewRootCommand(version string) *cobra.Command {
	return newRootCommand(&app{
		version: version,
		loadCfg: config.NewConfig,
		newExtractor: func(cfg *config.Config, logger zerolog.Logger) (services.Extractor, error) {
			return entrypoint.NewPipeline(cfg, logger)
		},
		readSecret: newSecretReader(os.Stderr).Read,
	})
}

func newRootCommand(a *app) *cobra.Command {
	serve := newServeCommand(a)

	root := &cobra.Command{
		Use:           "notebooksync",
		Short:         "Mirror a reader notebook's highlights into a local catalog and serve it over HTTP.",
		Version:       a.version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}

	root.AddCommand(serve, newSyncCommand(a), newSelectorsCommand(a))
	return root
}

// ExecuteContext runs the CLI with the given context.
func ExecuteContext(ctx context.Context, version string, args []string) error {
	root := NewRootCommand(version)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
