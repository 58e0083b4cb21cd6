package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"jordanella.com/autoclicker-go/internal/config"
	"jordanella.com/autoclicker-go/internal/database"
)

func newHistoryCmd(settingsPath *string) *cobra.Command {
	var (
		dbPath string
		limit  int
	)

	openDB := func() (*database.DB, error) {
		path := dbPath
		if path == "" {
			path = config.LoadOrDefault(*settingsPath).HistoryDB
		}
		return database.OpenAndMigrate(path)
	}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			runs, err := db.ListRuns(limit)
			if err != nil {
				return err
			}
			if err := writeRuns(cmd.OutOrStdout(), runs); err != nil {
				return err
			}

			stats, err := db.GetStats()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d runs, %d clicks recorded in %s\n", stats["runs"], stats["clicks"], db.Path())
			return nil
		},
	}

	clicksCmd := &cobra.Command{
		Use:   "clicks RUN_ID",
		Short: "List the clicks of one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid run id %q", args[0])
			}

			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			if _, err := db.GetRun(runID); err != nil {
				return err
			}
			clicks, err := db.ListClicks(runID)
			if err != nil {
				return err
			}
			counts, err := db.OutcomeCounts(runID)
			if err != nil {
				return err
			}
			return writeClicks(cmd.OutOrStdout(), clicks, counts)
		},
	}

	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "History database (default: history_db from settings)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show (0 = all)")
	cmd.AddCommand(clicksCmd)

	return cmd
}

func writeRuns(out io.Writer, runs []*database.Run) error {
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tMODE\tDURATION\tCLICKS\tSUCCESS\tREASON")
	for _, run := range runs {
		duration := "running"
		if run.Finished() && run.DurationSeconds != nil {
			duration = (time.Duration(*run.DurationSeconds * float64(time.Second))).Round(time.Second).String()
		}
		rate := "-"
		if run.ClicksAttempted > 0 {
			rate = fmt.Sprintf("%.1f%%", float64(run.ClicksSucceeded)/float64(run.ClicksAttempted)*100)
		}
		reason := run.StopReason
		if reason == "" {
			reason = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d/%d\t%s\t%s\n",
			run.ID,
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Mode,
			duration,
			run.ClicksSucceeded, run.ClicksAttempted,
			rate,
			reason,
		)
	}
	return w.Flush()
}

func writeClicks(out io.Writer, clicks []*database.Click, counts map[string]int64) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tX\tY\tOUTCOME\tTARGET\tERROR")
	for _, c := range clicks {
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\t%s\n",
			c.ClickedAt.Local().Format("15:04:05.000"), c.X, c.Y, c.Outcome, c.Target, c.Error)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%d succeeded, %d failed, %d suppressed\n",
		counts[database.OutcomeSucceeded],
		counts[database.OutcomeFailed],
		counts[database.OutcomeSuppressed],
	)
	return nil
}
