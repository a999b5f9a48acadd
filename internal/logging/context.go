package logging

import (
	"context"
	"log/slog"

	"rptninja/internal/services"
)

const (
	// FieldComponent names the subsystem; the console handler prints it as a prefix.
	FieldComponent = "component"
	// FieldRunID carries the workflow run id.
	FieldRunID = "run_id"
	// FieldStage is "report" or "relocate" within a run.
	FieldStage = "stage"
	// FieldEventType classifies a log line for filtering (e.g. "report_failed").
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step to an operator.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
)

// WithContext returns logger tagged with the run id and stage carried by ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if ctx == nil {
		return logger
	}
	var args []any
	if id, ok := services.RunIDFromContext(ctx); ok {
		args = append(args, slog.String(FieldRunID, id))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		args = append(args, slog.String(FieldStage, stage))
	}
	if len(args) == 0 {
		return logger
	}
	return logger.With(args...)
}
