package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrlokans/notebooksync/internal/audit"
	"github.com/mrlokans/notebooksync/internal/catalog"
	"github.com/mrlokans/notebooksync/internal/database"
	auditrepo "github.com/mrlokans/notebooksync/internal/database/audit"
	"github.com/mrlokans/notebooksync/internal/database/syncruns"
	"github.com/mrlokans/notebooksync/internal/entities"
	"github.com/mrlokans/notebooksync/internal/entrypoint"
	"github.com/mrlokans/notebooksync/internal/exporters"
	"github.com/mrlokans/notebooksync/internal/logging"
	"github.com/mrlokans/notebooksync/internal/scraper"
	"github.com/mrlokans/notebooksync/internal/services"
)

// IdentifierEnv is read when --identifier is not given.
const IdentifierEnv = "NOTEBOOK_IDENTIFIER"

type syncFlags struct {
	identifier  string
	persist     bool
	markdownDir string
	output      string
}

// syncReport is what the sync command prints.
type syncReport struct {
	ItemCount   int                    `json:"itemCount"`
	FailedItems int                    `json:"failedItems"`
	SyncedAt    time.Time              `json:"syncedAt"`
	Items       []entities.LibraryItem `json:"items"`
}

func newSyncCommand(a *app) *cobra.Command {
	var flags syncFlags

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one extraction and print the catalog as JSON.",
		Long: "Signs in with the given identifier, extracts the library with its highlights\n" +
			"and prints the result. The secret is read from " + SecretEnv + " or prompted for;\n" +
			"it is never written anywhere.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runSync(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.identifier, "identifier", "", "account identifier (default $"+IdentifierEnv+")")
	cmd.Flags().BoolVar(&flags.persist, "persist", false, "also replace the stored catalog snapshot and record the run")
	cmd.Flags().StringVar(&flags.markdownDir, "markdown-dir", "", "write one markdown note per book into this directory")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "-", "where to write the JSON result, - for stdout")
	return cmd
}

func (a *app) runSync(cmd *cobra.Command, flags syncFlags) error {
	a.init()
	ctx := cmd.Context()

	identifier := strings.TrimSpace(flags.identifier)
	if identifier == "" {
		identifier = strings.TrimSpace(os.Getenv(IdentifierEnv))
	}
	if identifier == "" {
		return errors.New("an identifier is required: pass --identifier or set " + IdentifierEnv)
	}

	secret, err := a.readSecret()
	if err != nil {
		return err
	}

	extractor, err := a.newExtractor(a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("failed to build extraction pipeline: %w", err)
	}

	opts := services.SyncOptions{Timeout: a.cfg.Timeouts.Sync, Logger: a.logger}
	var store catalog.Store = catalog.NewMemoryStore()

	if flags.persist {
		db, err := database.NewDatabase(a.cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()

		persistCfg := *a.cfg
		persistCfg.Database.PersistCatalog = true
		if store, err = entrypoint.OpenCatalog(ctx, &persistCfg, db, a.logger); err != nil {
			return err
		}

		auditor := audit.NewService(auditrepo.NewRepository(db.DB), a.logger)
		defer auditor.Wait()

		opts.Runs = syncruns.NewRepository(db.DB)
		opts.Auditor = auditor
	}

	a.logger.Info().Str("identifier", logging.MaskIdentifier(identifier)).Msg("starting one-shot sync")

	outcome, err := services.NewSyncService(extractor, store, opts).Sync(ctx, services.SyncRequest{
		Credentials: scraper.Credentials{Identifier: identifier, Secret: secret},
		UserAgent:   "notebooksync-cli/" + a.version,
	})
	if err != nil {
		return err
	}

	if flags.markdownDir != "" {
		result, err := exporters.NewMarkdownExporter(flags.markdownDir, a.logger).Export(outcome.Items)
		if err != nil {
			return err
		}
		if result.BooksFailed > 0 {
			a.logger.Warn().Int("failed", result.BooksFailed).Msg("some markdown notes were not written")
		}
	}

	return writeReport(cmd.OutOrStdout(), flags.output, outcome)
}

func writeReport(stdout io.Writer, output string, outcome *services.SyncOutcome) error {
	items := outcome.Items
	if items == nil {
		items = []entities.LibraryItem{}
	}
	report := syncReport{
		ItemCount:   len(items),
		FailedItems: outcome.FailedItems,
		SyncedAt:    outcome.SyncedAt,
		Items:       items,
	}

	w := stdout
	if output != "" && output != "-" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
