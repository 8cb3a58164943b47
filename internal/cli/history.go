package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mrlokans/readsync/internal/config"
	"github.com/mrlokans/readsync/internal/database"
	"github.com/mrlokans/readsync/internal/database/runs"
	"github.com/mrlokans/readsync/internal/entities"
)

func newHistoryCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent sync runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.NewConfig()
			db, err := database.NewDatabase(cfg.Database.Path, zerolog.Nop())
			if err != nil {
				return err
			}
			defer db.Close()

			history, err := runs.NewRepository(db.DB, runs.Meta{}).Recent(limit)
			if err != nil {
				return fmt.Errorf("load history: %w", err)
			}
			return printHistory(cmd.OutOrStdout(), history)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of runs to show")
	return cmd
}

func printHistory(w io.Writer, history []entities.SyncRun) error {
	if len(history) == 0 {
		_, err := fmt.Fprintln(w, "No sync runs recorded.")
		return err
	}

	table := tablewriter.NewTable(w)
	table.Header("ID", "STARTED", "STATUS", "DRY RUN", "BOOKS", "CREATED", "UPDATED", "SESSIONS", "ERROR")
	for _, run := range history {
		dryRun := ""
		if run.DryRun {
			dryRun = "yes"
		}
		err := table.Append(
			strconv.FormatUint(uint64(run.ID), 10),
			run.StartedAt.Local().Format(time.DateTime),
			string(run.Status),
			dryRun,
			fmt.Sprintf("%d/%d", run.Processed, run.TotalItems),
			strconv.Itoa(run.BooksCreated),
			strconv.Itoa(run.BooksUpdated),
			strconv.Itoa(run.SessionsCreated+run.SessionsUpdated),
			run.Error,
		)
		if err != nil {
			return err
		}
	}
	return table.Render()
}
