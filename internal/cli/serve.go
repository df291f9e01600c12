package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrlokans/notebooksync/internal/entrypoint"
)

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default command).",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.init()
			return entrypoint.Run(cmd.Context(), a.cfg, a.version, a.logger)
		},
	}
}
