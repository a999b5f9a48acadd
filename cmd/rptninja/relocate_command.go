package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"rptninja/internal/config"
	"rptninja/internal/logging"
	"rptninja/internal/relocate"
	"rptninja/internal/report"
	"rptninja/internal/services"
	"rptninja/internal/workflow"
)

type relocateJSON struct {
	Dir         string     `json:"dir"`
	Destination string     `json:"destination"`
	Extension   string     `json:"extension"`
	DryRun      bool       `json:"dry_run"`
	WindowStart time.Time  `json:"window_start,omitzero"`
	WindowEnd   time.Time  `json:"window_end,omitzero"`
	Moves       []moveJSON `json:"moves"`
}

func newRelocateCommand(ctx *commandContext) *cobra.Command {
	var (
		ext       string
		dest      string
		dir       string
		tolerance int
		dryRun    bool
		noWait    bool
	)

	cmd := &cobra.Command{
		Use:   "relocate",
		Short: "Move fresh output files into the destination folder",
		Long: `Relocate scans a directory (the configured working directory by default)
for files ending in EXT whose modification time is within the tolerance window
of now, and moves them into the destination folder. Use --dry-run to list the
matches without moving anything.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cfg)
			if err != nil {
				return err
			}

			ext = workflow.RelocationExtension(cfg, workflow.Request{
				Extension:  ext,
				Invocation: report.Invocation{Format: cfg.Export.Format},
			})
			if ext == "" {
				return services.Wrap(services.ErrValidation, "", "relocate", "--ext is required when the export format writes no file", nil)
			}
			if strings.TrimSpace(dir) == "" {
				dir = cfg.Ninja.WorkingDir
			} else if dir, err = config.ExpandPath(dir); err != nil {
				return fmt.Errorf("resolve --dir: %w", err)
			}
			if strings.TrimSpace(dest) == "" {
				dest = cfg.Relocate.Destination
			}
			window := cfg.Relocate.Tolerance()
			if tolerance > 0 {
				window = time.Duration(tolerance) * time.Minute
			}

			relocator := relocate.New(dir,
				relocate.WithDestination(dest),
				relocate.WithTolerance(window),
				relocate.WithLogger(logging.NewComponentLogger(logger, "relocate")),
			)

			var result relocate.Result
			if dryRun {
				result.Moves, err = relocator.Plan(ext)
			} else {
				lock, lockErr := workflow.AcquireLock(cmd.Context(), cfg, noWait)
				if lockErr != nil {
					return lockErr
				}
				result, err = relocator.Relocate(cmd.Context(), ext)
				if releaseErr := lock.Release(); releaseErr != nil {
					logger.Warn("failed to release run lock", logging.Error(releaseErr))
				}
			}

			if ctx.jsonOutput() {
				payload := relocateJSON{
					Dir:         dir,
					Destination: relocator.DestinationDir(),
					Extension:   ext,
					DryRun:      dryRun,
					WindowStart: result.WindowStart,
					WindowEnd:   result.WindowEnd,
					Moves:       make([]moveJSON, 0, len(result.Moves)),
				}
				for _, move := range result.Moves {
					payload.Moves = append(payload.Moves, moveJSON{Source: move.Source, Destination: move.Destination, ModTime: move.ModTime})
				}
				if jsonErr := writeJSON(cmd, payload); jsonErr != nil {
					return jsonErr
				}
				return err
			}

			if err != nil && len(result.Moves) == 0 {
				return err
			}
			out := cmd.OutOrStdout()
			switch {
			case len(result.Moves) == 0:
				fmt.Fprintf(out, "No fresh *%s files in %s\n", ext, dir)
			case dryRun:
				fmt.Fprintf(out, "Would move %d file(s) to %s\n", len(result.Moves), relocator.DestinationDir())
				fmt.Fprint(out, renderMovesTable(result.Moves))
			default:
				fmt.Fprintf(out, "Moved %d file(s) to %s\n", len(result.Moves), relocator.DestinationDir())
				fmt.Fprint(out, renderMovesTable(result.Moves))
			}
			return err
		},
	}

	cmd.Flags().StringVar(&ext, "ext", "", "File suffix to collect, e.g. pdf (default derived from export.format)")
	cmd.Flags().StringVar(&dest, "dest", "", "Destination folder under the scanned directory")
	cmd.Flags().StringVar(&dir, "dir", "", "Directory to scan (default ninja.working_dir)")
	cmd.Flags().IntVar(&tolerance, "tolerance", 0, "Window in minutes around now")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List matching files without moving them")
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "Fail immediately if another run holds the lock")
	return cmd
}
