package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mrlokans/notebooksync/internal/notebook"
)

func newSelectorsCommand(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "selectors",
		Short: "Print the effective selector profile as YAML.",
		Long: "Prints the selector profile the pipeline would use. Without --file the\n" +
			"built-in defaults are printed, which is a starting point for NOTEBOOK_SELECTORS_FILE.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("file") {
				a.init()
				file = a.cfg.Notebook.SelectorsFile
			}

			sel, err := notebook.LoadSelectors(file)
			if err != nil {
				return err
			}

			out, err := yaml.Marshal(sel)
			if err != nil {
				return fmt.Errorf("encode selectors: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "selector profile to load and validate")
	return cmd
}
