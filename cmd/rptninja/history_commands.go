package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"rptninja/internal/history"
	"rptninja/internal/services"
)

type runSummaryJSON struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	ReportFile string    `json:"report_file"`
	Format     string    `json:"format,omitempty"`
	WorkDir    string    `json:"work_dir"`
	Status     string    `json:"status"`
	ExitCode   int       `json:"exit_code"`
	Error      string    `json:"error,omitempty"`
	Stdout     string    `json:"stdout,omitempty"`
	Moved      int       `json:"moved"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recent report runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(ctx, func(store *history.Store) error {
				runs, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					payload := make([]runSummaryJSON, 0, len(runs))
					for _, run := range runs {
						payload = append(payload, toRunSummaryJSON(run))
					}
					return writeJSON(cmd, payload)
				}
				if len(runs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Started", "Report", "Format", "Status", "Moved", "Duration"},
					buildHistoryRows(runs),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
				))
				return nil
			})
		},
	}
	historyCmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum runs to show (0 for all)")

	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryPruneCommand(ctx))
	return historyCmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Show one run and the files it relocated",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(ctx, func(store *history.Store) error {
				run, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					if errors.Is(err, history.ErrNotFound) {
						return services.Wrap(services.ErrValidation, "", "history show", "", err)
					}
					return err
				}
				moves, err := store.Moves(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					payload := struct {
						runSummaryJSON
						Moves []moveJSON `json:"moves"`
					}{runSummaryJSON: toRunSummaryJSON(*run), Moves: make([]moveJSON, 0, len(moves))}
					for _, move := range moves {
						payload.Moves = append(payload.Moves, moveJSON{Source: move.Source, Destination: move.Destination, ModTime: move.ModTime})
					}
					return writeJSON(cmd, payload)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Run:        %s\n", run.ID)
				fmt.Fprintf(out, "Report:     %s (%s)\n", run.Title, run.ReportFile)
				fmt.Fprintf(out, "Format:     %s\n", valueOrDash(run.Format))
				fmt.Fprintf(out, "Directory:  %s\n", run.WorkDir)
				fmt.Fprintf(out, "Status:     %s\n", run.Status)
				fmt.Fprintf(out, "Exit code:  %d\n", run.ExitCode)
				fmt.Fprintf(out, "Started:    %s\n", run.StartedAt.Local().Format(timeDisplayLayout))
				if !run.FinishedAt.IsZero() {
					fmt.Fprintf(out, "Finished:   %s (%s)\n", run.FinishedAt.Local().Format(timeDisplayLayout), run.Duration().Round(time.Millisecond))
				}
				if run.Error != "" {
					fmt.Fprintf(out, "Error:      %s\n", run.Error)
				}
				if run.Stdout != "" {
					fmt.Fprintf(out, "Output:     %s\n", run.Stdout)
				}
				if len(moves) == 0 {
					fmt.Fprintln(out, "No files relocated")
					return nil
				}
				rows := make([][]string, 0, len(moves))
				for _, move := range moves {
					rows = append(rows, []string{move.Source, move.Destination, move.ModTime.Local().Format(timeDisplayLayout)})
				}
				fmt.Fprint(out, renderTable([]string{"Source", "Destination", "Modified"}, rows, nil))
				return nil
			})
		},
	}
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan string

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete finished runs older than the retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			age := time.Duration(cfg.History.RetentionDays) * 24 * time.Hour
			if strings.TrimSpace(olderThan) != "" {
				if age, err = parseAge(olderThan); err != nil {
					return services.Wrap(services.ErrValidation, "", "history prune", "invalid --older-than", err)
				}
			}
			if age <= 0 {
				return services.Wrap(services.ErrValidation, "", "history prune", "retention must be positive", nil)
			}
			return withHistory(ctx, func(store *history.Store) error {
				removed, err := store.Prune(cmd.Context(), time.Now().Add(-age))
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]int64{"removed": removed})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d run(s) older than %s\n", removed, formatAge(age))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&olderThan, "older-than", "", "Age cutoff such as 30d or 12h (default history.retention_days)")
	return cmd
}

func withHistory(ctx *commandContext, fn func(*history.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := ctx.openHistory(cfg)
	if err != nil {
		return err
	}
	if store == nil {
		return services.Wrap(services.ErrConfiguration, "", "history", "run history is disabled (history.enabled = false)", nil)
	}
	defer store.Close()
	return fn(store)
}

func buildHistoryRows(runs []history.Run) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		duration := "-"
		if d := run.Duration(); d > 0 {
			duration = d.Round(time.Second).String()
		}
		rows = append(rows, []string{
			shortID(run.ID),
			run.StartedAt.Local().Format(timeDisplayLayout),
			run.Title,
			valueOrDash(run.Format),
			string(run.Status),
			strconv.Itoa(run.MovedCount),
			duration,
		})
	}
	return rows
}

func toRunSummaryJSON(run history.Run) runSummaryJSON {
	return runSummaryJSON{
		ID:         run.ID,
		Title:      run.Title,
		ReportFile: run.ReportFile,
		Format:     run.Format,
		WorkDir:    run.WorkDir,
		Status:     string(run.Status),
		ExitCode:   run.ExitCode,
		Error:      run.Error,
		Stdout:     run.Stdout,
		Moved:      run.MovedCount,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
	}
}

// parseAge accepts Go durations plus a day suffix ("30d").
func parseAge(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if days, ok := strings.CutSuffix(value, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("parse days %q: %w", value, err)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(value)
}

func formatAge(d time.Duration) string {
	if d%(24*time.Hour) == 0 {
		return fmt.Sprintf("%dd", int64(d/(24*time.Hour)))
	}
	return d.String()
}

func valueOrDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
