package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"rptninja/internal/history"
	"rptninja/internal/logging"
	"rptninja/internal/report"
	"rptninja/internal/workflow"
)

type runFlags struct {
	output     string
	format     string
	printer    string
	copies     int
	server     string
	database   string
	user       string
	password   string
	params     []string
	createLog  bool
	ext        string
	dest       string
	tolerance  int
	noRelocate bool
	noWait     bool
}

type runJSON struct {
	RunID      string     `json:"run_id"`
	Status     string     `json:"status"`
	ExitCode   int        `json:"exit_code"`
	Command    []string   `json:"command"`
	Stdout     string     `json:"stdout,omitempty"`
	Stderr     string     `json:"stderr,omitempty"`
	DurationMS int64      `json:"duration_ms"`
	Relocated  bool       `json:"relocated"`
	Moves      []moveJSON `json:"moves"`
	Error      string     `json:"error,omitempty"`
}

type moveJSON struct {
	Source      string    `json:"source"`
	Destination string    `json:"destination"`
	ModTime     time.Time `json:"mod_time"`
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run REPORT",
		Short: "Run a report and move its fresh output into the destination folder",
		Long: `Run executes Crystal Reports Ninja for REPORT (an .rpt file) from the
configured working directory, then moves output files modified within the
tolerance window into the destination folder. Options left unset fall back to
the [export] and [database] sections of the config file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cfg)
			if err != nil {
				return err
			}
			store, err := ctx.openHistory(cfg)
			if err != nil {
				logger.Warn("run history unavailable",
					logging.Error(err),
					logging.String(logging.FieldEventType, "history_open_failed"),
					logging.String(logging.FieldErrorHint, "delete the history database to reset it"),
					logging.String(logging.FieldImpact, "this run will not be recorded"),
				)
				store = nil
			}
			if store != nil {
				defer store.Close()
			}

			client, err := report.New(cfg.Ninja.Binary, cfg.Ninja.WorkingDir,
				report.WithLogger(logging.NewComponentLogger(logger, "report")))
			if err != nil {
				return err
			}

			req := workflow.Request{
				Invocation: report.Invocation{
					ReportFile: strings.TrimSpace(args[0]),
					OutputFile: flags.output,
					Format:     strings.ToLower(strings.TrimSpace(flags.format)),
					Printer:    flags.printer,
					Copies:     flags.copies,
					Server:     flags.server,
					Database:   flags.database,
					Username:   flags.user,
					Password:   flags.password,
					Parameters: flags.params,
					CreateLog:  flags.createLog,
				},
				Extension:    flags.ext,
				Destination:  flags.dest,
				Tolerance:    time.Duration(flags.tolerance) * time.Minute,
				SkipRelocate: flags.noRelocate,
				NoWait:       flags.noWait,
			}

			runner := workflow.New(cfg, client, store, logger)
			outcome, runErr := runner.Run(cmd.Context(), req)
			if outcome.RunID == "" {
				return runErr
			}
			if ctx.jsonOutput() {
				if err := writeJSON(cmd, buildRunJSON(outcome, runErr)); err != nil {
					return errors.Join(runErr, err)
				}
				return runErr
			}
			printRunSummary(cmd.OutOrStdout(), outcome)
			return runErr
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.output, "output", "o", "", "Output file name passed to the tool (-O)")
	f.StringVarP(&flags.format, "format", "e", "", "Export format: pdf, xlsx, csv, print, ... (-E)")
	f.StringVarP(&flags.printer, "printer", "n", "", "Printer name for the print format (-N)")
	f.IntVar(&flags.copies, "copies", 0, "Number of copies to print (-C)")
	f.StringVarP(&flags.server, "server", "s", "", "Database server override (-S)")
	f.StringVarP(&flags.database, "database", "d", "", "Database name override (-D)")
	f.StringVarP(&flags.user, "user", "u", "", "Database user (-U)")
	f.StringVarP(&flags.password, "password", "p", "", "Database password (-P)")
	f.StringArrayVarP(&flags.params, "param", "a", nil, `Report parameter as "name:value" (-a); repeatable`)
	f.BoolVar(&flags.createLog, "log", false, "Ask the tool to write its own log file (-l)")
	f.StringVar(&flags.ext, "ext", "", "Output suffix to relocate (default derived from the format)")
	f.StringVar(&flags.dest, "dest", "", "Destination folder under the working directory")
	f.IntVar(&flags.tolerance, "tolerance", 0, "Relocation window in minutes")
	f.BoolVar(&flags.noRelocate, "no-relocate", false, "Leave output files where the tool wrote them")
	f.BoolVar(&flags.noWait, "no-wait", false, "Fail immediately if another run holds the lock")

	return cmd
}

func buildRunJSON(outcome workflow.Outcome, runErr error) runJSON {
	out := runJSON{
		RunID:      outcome.RunID,
		Status:     string(outcome.Status),
		Command:    outcome.Report.Args,
		Stdout:     strings.TrimSpace(outcome.Report.Stdout),
		Stderr:     strings.TrimSpace(outcome.Report.Stderr),
		DurationMS: outcome.Report.Duration.Milliseconds(),
		Relocated:  outcome.Relocated,
		Moves:      make([]moveJSON, 0, len(outcome.Relocation.Moves)),
	}
	var perr *report.ExternalProcessError
	if errors.As(runErr, &perr) {
		out.ExitCode = perr.ExitCode
	}
	if runErr != nil {
		out.Error = runErr.Error()
	}
	for _, move := range outcome.Relocation.Moves {
		out.Moves = append(out.Moves, moveJSON{
			Source:      move.Source,
			Destination: move.Destination,
			ModTime:     move.ModTime,
		})
	}
	return out
}

func printRunSummary(w io.Writer, outcome workflow.Outcome) {
	verb := "succeeded"
	if outcome.Status == history.StatusFailed {
		verb = "failed"
	}
	fmt.Fprintf(w, "Run %s %s in %s\n", shortID(outcome.RunID), verb, outcome.Report.Duration.Round(time.Millisecond))
	if stdout := strings.TrimSpace(outcome.Report.Stdout); stdout != "" {
		fmt.Fprintln(w, stdout)
	}
	if !outcome.Relocated {
		return
	}
	if len(outcome.Relocation.Moves) == 0 {
		fmt.Fprintln(w, "No fresh output files to relocate")
		return
	}
	fmt.Fprint(w, renderMovesTable(outcome.Relocation.Moves))
}
