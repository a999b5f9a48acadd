package workflow

import (
	"context"
	"errors"
	"strings"

	"rptninja/internal/history"
	"rptninja/internal/logging"
	"rptninja/internal/relocate"
	"rptninja/internal/report"
	"rptninja/internal/services"
)

// Run executes one report and relocates its output. The returned error joins
// the report tool failure and the relocation failure when both occur.
func (r *Runner) Run(ctx context.Context, req Request) (Outcome, error) {
	if r.cfg == nil || r.client == nil {
		return Outcome{}, services.Wrap(services.ErrConfiguration, "workflow", "run", "runner not configured", nil)
	}
	inv := ResolveInvocation(r.cfg, req.Invocation)
	req.Invocation = inv
	if strings.TrimSpace(inv.ReportFile) == "" {
		return Outcome{}, services.Wrap(services.ErrValidation, "workflow", "run", "report file required", nil)
	}

	lock, err := AcquireLock(ctx, r.cfg, req.NoWait)
	if err != nil {
		return Outcome{}, err
	}
	defer func() {
		if releaseErr := lock.Release(); releaseErr != nil {
			r.logger.Warn("failed to release run lock",
				logging.Error(releaseErr),
				logging.String("path", lock.Path()),
				logging.String(logging.FieldImpact, "the next run may wait until this process exits"),
			)
		}
	}()

	outcome := Outcome{RunID: r.newID()}
	ctx = services.WithRunID(ctx, outcome.RunID)
	logger := logging.WithContext(ctx, r.logger)

	recording := r.beginRun(ctx, outcome.RunID, inv)

	reportResult, reportErr := r.client.Run(services.WithStage(ctx, "report"), inv)
	outcome.Report = reportResult

	var relocateErr error
	ext := RelocationExtension(r.cfg, req)
	switch {
	case req.SkipRelocate || !r.cfg.Relocate.Enabled:
		logger.Debug("relocation disabled")
	case ext == "":
		logger.Info("export format writes no file; skipping relocation",
			logging.String("format", inv.Format),
		)
	default:
		outcome.Relocated = true
		outcome.Relocation, relocateErr = r.relocator(req).Relocate(services.WithStage(ctx, "relocate"), ext)
	}

	runErr := errors.Join(reportErr, relocateErr)
	outcome.Status = history.StatusSucceeded
	if runErr != nil {
		outcome.Status = history.StatusFailed
	}
	if recording {
		r.finishRun(ctx, outcome, reportErr, runErr)
	}

	logger.Info("report run finished",
		logging.String("status", string(outcome.Status)),
		logging.Int("moved", len(outcome.Relocation.Moves)),
		logging.Duration("duration", reportResult.Duration),
		logging.String(logging.FieldEventType, "run_finished"),
	)
	return outcome, runErr
}

func (r *Runner) relocator(req Request) *relocate.Relocator {
	destination := strings.TrimSpace(req.Destination)
	if destination == "" {
		destination = r.cfg.Relocate.Destination
	}
	tolerance := req.Tolerance
	if tolerance <= 0 {
		tolerance = r.cfg.Relocate.Tolerance()
	}
	return relocate.New(r.client.WorkDir(),
		relocate.WithDestination(destination),
		relocate.WithTolerance(tolerance),
		relocate.WithClock(r.now),
		relocate.WithLogger(r.logger),
	)
}

func (r *Runner) beginRun(ctx context.Context, id string, inv report.Invocation) bool {
	if r.store == nil {
		return false
	}
	_, err := r.store.BeginRun(ctx, history.Run{
		ID:         id,
		ReportFile: inv.ReportFile,
		Format:     inv.Format,
		WorkDir:    r.client.WorkDir(),
	})
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, r.logger), "failed to record run start", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.state_dir is writable"),
			logging.String(logging.FieldImpact, "this run will not appear in history"),
		)
		return false
	}
	return true
}

func (r *Runner) finishRun(ctx context.Context, outcome Outcome, reportErr, runErr error) {
	logger := logging.WithContext(ctx, r.logger)
	// An interrupted run still gets its final row.
	ctx = context.WithoutCancel(ctx)
	if len(outcome.Relocation.Moves) > 0 {
		moved := make([]history.MovedFile, 0, len(outcome.Relocation.Moves))
		for _, move := range outcome.Relocation.Moves {
			moved = append(moved, history.MovedFile{
				RunID:       outcome.RunID,
				Source:      move.Source,
				Destination: move.Destination,
				ModTime:     move.ModTime,
			})
		}
		if err := r.store.RecordMoves(ctx, outcome.RunID, moved); err != nil {
			logging.WarnWithContext(logger, "failed to record relocated files", "history_write_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "history show will omit moved files for this run"),
			)
		}
	}

	final := history.Outcome{
		Status: outcome.Status,
		Stdout: strings.TrimSpace(outcome.Report.Stdout),
	}
	var perr *report.ExternalProcessError
	if errors.As(reportErr, &perr) {
		final.ExitCode = perr.ExitCode
	}
	if runErr != nil {
		final.Error = runErr.Error()
	}
	if err := r.store.FinishRun(ctx, outcome.RunID, final); err != nil {
		logging.WarnWithContext(logger, "failed to record run outcome", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run remains marked running in history"),
		)
	}
}
