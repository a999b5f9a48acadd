package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const runColumns = `r.id, r.report_file, r.title, r.format, r.work_dir, r.status, r.exit_code,
	r.error_message, r.stdout, r.started_at, r.finished_at,
	(SELECT COUNT(1) FROM moved_files m WHERE m.run_id = r.id)`

// BeginRun records a run in the running state.
func (s *Store) BeginRun(ctx context.Context, run Run) (*Run, error) {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(run.ID) == "" {
		return nil, errors.New("run id is required")
	}
	if strings.TrimSpace(run.ReportFile) == "" {
		return nil, errors.New("report file is required")
	}
	if run.Title == "" {
		run.Title = DeriveTitle(run.ReportFile)
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = s.now()
	}
	run.Status = StatusRunning
	run.ExitCode = 0
	run.Error = ""
	run.Stdout = ""
	run.FinishedAt = time.Time{}

	_, err := s.execWithRetry(ctx,
		`INSERT INTO runs (id, report_file, title, format, work_dir, status, exit_code, started_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?)`,
		run.ID, run.ReportFile, run.Title, nullableString(run.Format), run.WorkDir,
		run.Status, formatTime(run.StartedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return &run, nil
}

// FinishRun stores the terminal status of a run.
func (s *Store) FinishRun(ctx context.Context, id string, outcome Outcome) error {
	ctx = ensureContext(ctx)
	status := outcome.Status
	if status != StatusSucceeded && status != StatusFailed {
		return fmt.Errorf("invalid final status %q", status)
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE runs SET status = ?, exit_code = ?, error_message = ?, stdout = ?, finished_at = ?
		WHERE id = ?`,
		status, outcome.ExitCode, nullableString(outcome.Error), nullableString(outcome.Stdout),
		formatTime(s.now()), id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("finish run %s: %w", id, ErrNotFound)
	}
	return nil
}

// RecordMoves attributes relocated files to a run.
func (s *Store) RecordMoves(ctx context.Context, runID string, moves []MovedFile) error {
	ctx = ensureContext(ctx)
	if len(moves) == 0 {
		return nil
	}
	movedAt := formatTime(s.now())
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin moves tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO moved_files (run_id, source, destination, mod_time, moved_at) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare moves insert: %w", err)
		}
		defer stmt.Close()

		for _, move := range moves {
			if _, err := stmt.ExecContext(ctx, runID, move.Source, move.Destination, formatTime(move.ModTime), movedAt); err != nil {
				return fmt.Errorf("insert move %s: %w", move.Source, err)
			}
		}
		return tx.Commit()
	})
}

// List returns the most recent runs first. A limit of zero or less returns all runs.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	ctx = ensureContext(ctx)
	query := `SELECT ` + runColumns + ` FROM runs r ORDER BY r.started_at DESC, r.id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Get fetches a run by id. An unambiguous id prefix is accepted.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	ctx = ensureContext(ctx)
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("run id is required")
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs r WHERE r.id = ?`, id)
	run, err := scanRun(row)
	if err == nil {
		return run, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs r WHERE r.id LIKE ? ESCAPE '\' LIMIT 2`, escapeLike(id)+"%")
	if err != nil {
		return nil, fmt.Errorf("lookup run prefix: %w", err)
	}
	defer rows.Close()
	var matches []*Run
	for rows.Next() {
		match, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("run id prefix %q is ambiguous", id)
	}
}

// Moves lists the files relocated by a run in the order they were recorded.
func (s *Store) Moves(ctx context.Context, runID string) ([]MovedFile, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, source, destination, mod_time, moved_at FROM moved_files WHERE run_id = ? ORDER BY id`,
		runID)
	if err != nil {
		return nil, fmt.Errorf("list moves: %w", err)
	}
	defer rows.Close()

	var moves []MovedFile
	for rows.Next() {
		var (
			move    MovedFile
			modTime sql.NullString
			movedAt sql.NullString
		)
		if err := rows.Scan(&move.RunID, &move.Source, &move.Destination, &modTime, &movedAt); err != nil {
			return nil, err
		}
		move.ModTime = parseTime(modTime)
		move.MovedAt = parseTime(movedAt)
		moves = append(moves, move)
	}
	return moves, rows.Err()
}

// Prune removes finished runs that started before the cutoff and returns how
// many were deleted. Running rows are kept.
func (s *Store) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	ctx = ensureContext(ctx)
	cutoff := formatTime(olderThan)
	var removed int64
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin prune tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM moved_files WHERE run_id IN (SELECT id FROM runs WHERE started_at < ? AND status != ?)`,
			cutoff, StatusRunning); err != nil {
			return fmt.Errorf("prune moves: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ? AND status != ?`, cutoff, StatusRunning)
		if err != nil {
			return fmt.Errorf("prune runs: %w", err)
		}
		removed, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("prune rows affected: %w", err)
		}
		return tx.Commit()
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(scanner rowScanner) (*Run, error) {
	var (
		run        Run
		format     sql.NullString
		status     string
		errMsg     sql.NullString
		stdout     sql.NullString
		startedAt  sql.NullString
		finishedAt sql.NullString
	)
	if err := scanner.Scan(
		&run.ID, &run.ReportFile, &run.Title, &format, &run.WorkDir, &status, &run.ExitCode,
		&errMsg, &stdout, &startedAt, &finishedAt, &run.MovedCount,
	); err != nil {
		return nil, err
	}
	run.Format = format.String
	run.Status = Status(status)
	run.Error = errMsg.String
	run.Stdout = stdout.String
	run.StartedAt = parseTime(startedAt)
	run.FinishedAt = parseTime(finishedAt)
	return &run, nil
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
