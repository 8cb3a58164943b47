package cli

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mrlokans/readsync/internal/catalog"
	"github.com/mrlokans/readsync/internal/config"
	"github.com/mrlokans/readsync/internal/database"
	"github.com/mrlokans/readsync/internal/database/runs"
	"github.com/mrlokans/readsync/internal/logging"
	"github.com/mrlokans/readsync/internal/notion"
	"github.com/mrlokans/readsync/internal/reconcile"
	"github.com/mrlokans/readsync/internal/retry"
	"github.com/mrlokans/readsync/internal/weread"
)

const maxSourceRetryDelay = 30 * time.Second

func newSyncCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync pass (default)",
		RunE:  runSync,
	}
	cmd.Flags().Bool("dry-run", false, "log Notion writes instead of performing them (overrides DRY_RUN)")
	return cmd
}

func runSync(cmd *cobra.Command, _ []string) error {
	cfg := config.NewConfig()
	if f := cmd.Flags().Lookup("dry-run"); f != nil && f.Changed {
		cfg.Global.DryRun = f.Value.String() == "true"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	db, err := database.NewDatabase(cfg.Database.Path, log)
	if err != nil {
		return err
	}
	defer db.Close()

	syncer, err := buildSyncer(cfg, db, loc, log)
	if err != nil {
		return err
	}

	log.Info().
		Str("ref", cfg.CI.Ref).
		Str("repository", cfg.CI.Repository).
		Bool("dry_run", cfg.Global.DryRun).
		Msg("starting sync")

	result, err := syncer.Run(cmd.Context())
	if err != nil {
		if errors.Is(err, weread.ErrSessionExpired) {
			log.Error().Msg("WeRead session expired, refresh WEREAD_COOKIE")
		}
		log.Error().Err(err).Msg("sync failed")
		return err
	}

	printResult(cmd.OutOrStdout(), result, cfg.Global.DryRun)
	return nil
}

func buildSyncer(cfg *config.Config, db *database.Database, loc *time.Location, log zerolog.Logger) (*reconcile.Syncer, error) {
	httpClient := &http.Client{Timeout: cfg.Global.HTTPTimeout}

	sourcePolicy := retry.Policy{
		MaxAttempts:   cfg.WeRead.RetryAttempts,
		Delay:         cfg.WeRead.RetryDelay,
		BackoffFactor: 2,
		MaxDelay:      maxSourceRetryDelay,
		OnRetry: func(attempt int, err error) {
			log.Warn().Err(err).Int("attempt", attempt).Msg("WeRead request failed, retrying")
		},
	}
	source := weread.NewClient(cfg.WeRead.Cookie,
		weread.WithHTTPClient(httpClient),
		weread.WithRateLimit(cfg.WeRead.RateLimit),
		weread.WithRetryPolicy(sourcePolicy),
	)

	schema, err := notion.LoadSchema(cfg.Notion.SchemaFile)
	if err != nil {
		return nil, err
	}
	ws, err := notion.NewWorkspace(
		notion.NewClient(cfg.Notion.Token, httpClient),
		notion.Databases{
			Books:      cfg.Notion.BookDatabaseID,
			Sessions:   cfg.Notion.ReadDatabaseID,
			Authors:    cfg.Notion.AuthorDatabaseID,
			Categories: cfg.Notion.CategoryDatabaseID,
			Years:      cfg.Notion.YearDatabaseID,
			Months:     cfg.Notion.MonthDatabaseID,
		},
		schema, loc, log,
	)
	if err != nil {
		return nil, err
	}

	var workspace reconcile.Workspace = ws
	if cfg.Global.DryRun {
		workspace = reconcile.NewDryRunWorkspace(ws, log)
	}

	opts := reconcile.Options{
		Progress: runs.NewRepository(db.DB, runs.Meta{
			DryRun:     cfg.Global.DryRun,
			Ref:        cfg.CI.Ref,
			Repository: cfg.CI.Repository,
		}),
		Location: loc,
		Logger:   log,
	}
	if cfg.Catalog.Enabled {
		opts.Catalog = catalog.NewClient(
			cfg.Catalog.BaseURL,
			retry.Fixed(cfg.Catalog.RetryAttempts, cfg.Catalog.RetryDelay),
			log,
		)
	}

	return reconcile.NewSyncer(source, workspace, opts), nil
}

func printResult(w io.Writer, r reconcile.Result, dryRun bool) {
	prefix := ""
	if dryRun {
		prefix = "[dry run] "
	}
	fmt.Fprintf(w, "%sProcessed %d/%d books: %d created, %d updated; sessions: %d created, %d updated\n",
		prefix, r.Processed, r.Total, r.BooksCreated, r.BooksUpdated, r.SessionsCreated, r.SessionsUpdated)
}
