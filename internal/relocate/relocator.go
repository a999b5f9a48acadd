package relocate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"rptninja/internal/fileutil"
	"rptninja/internal/logging"
	"rptninja/internal/services"
)

const (
	// DefaultDestination is the folder, relative to the scanned directory, that receives matches.
	DefaultDestination = "reports"
	// DefaultTolerance is the half-width of the freshness window.
	DefaultTolerance = 5 * time.Minute
)

// Move describes one file relocation.
type Move struct {
	Name        string
	Source      string
	Destination string
	ModTime     time.Time
}

// Result summarizes a relocation pass.
type Result struct {
	// Moves lists completed moves, including those done before a failure.
	Moves []Move
	// WindowStart and WindowEnd bound the freshness window (exclusive).
	WindowStart time.Time
	WindowEnd   time.Time
}

// Option configures a Relocator.
type Option func(*Relocator)

// WithDestination overrides the destination folder name.
func WithDestination(name string) Option {
	return func(r *Relocator) {
		if name = strings.TrimSpace(name); name != "" {
			r.destination = name
		}
	}
}

// WithTolerance overrides the freshness window half-width. A zero or negative
// tolerance leaves an empty window, so nothing matches.
func WithTolerance(d time.Duration) Option {
	return func(r *Relocator) {
		r.tolerance = max(d, 0)
	}
}

// WithClock injects the time source used to sample "now" (primarily for tests).
func WithClock(now func() time.Time) Option {
	return func(r *Relocator) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLogger sets the logger used for move diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Relocator) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Relocator scans one directory for fresh output files.
type Relocator struct {
	dir         string
	destination string
	tolerance   time.Duration
	now         func() time.Time
	logger      *slog.Logger
}

// New constructs a Relocator for dir.
func New(dir string, opts ...Option) *Relocator {
	r := &Relocator{
		dir:         dir,
		destination: DefaultDestination,
		tolerance:   DefaultTolerance,
		now:         time.Now,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DestinationDir returns the absolute folder matches are moved into.
func (r *Relocator) DestinationDir() string {
	return filepath.Join(r.dir, r.destination)
}

// Plan returns the files Relocate would move without touching the filesystem.
func (r *Relocator) Plan(ext string) ([]Move, error) {
	moves, _, _, err := r.scan(ext)
	return moves, err
}

// Relocate moves every fresh file ending in ext into the destination folder.
// "Now" is sampled once when the scan starts. The first filesystem failure
// stops the pass; moves already completed are still reported.
func (r *Relocator) Relocate(ctx context.Context, ext string) (Result, error) {
	logger := logging.WithContext(ctx, r.logger)
	planned, start, end, err := r.scan(ext)
	result := Result{WindowStart: start, WindowEnd: end}
	if err != nil {
		return result, err
	}
	if len(planned) == 0 {
		logger.Debug("no fresh output files found",
			logging.String("dir", r.dir),
			logging.String("extension", ext),
		)
		return result, nil
	}

	destDir := r.DestinationDir()
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return result, &IOError{Op: "mkdir", Path: destDir, Err: err}
	}

	for _, move := range planned {
		if err := fileutil.MoveFile(move.Source, move.Destination); err != nil {
			logging.WarnWithContext(logger, "failed to move output file", "relocate_failed",
				logging.String("source", move.Source),
				logging.String("destination", move.Destination),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check permissions on the working and destination directories"),
				logging.String(logging.FieldImpact, "remaining output files were not relocated"),
			)
			return result, &IOError{Op: "move", Path: move.Source, Err: err}
		}
		result.Moves = append(result.Moves, move)
		logger.Info("relocated output file",
			logging.String("file", move.Name),
			logging.String("destination", move.Destination),
			logging.String(logging.FieldEventType, "relocate"),
		)
	}
	return result, nil
}

func (r *Relocator) scan(ext string) ([]Move, time.Time, time.Time, error) {
	if ext == "" {
		return nil, time.Time{}, time.Time{}, services.Wrap(services.ErrValidation, "relocate", "scan", "extension required", nil)
	}

	now := r.now()
	start, end := now.Add(-r.tolerance), now.Add(r.tolerance)

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, start, end, &IOError{Op: "list", Path: r.dir, Err: err}
	}

	destDir := r.DestinationDir()
	var moves []Move
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ext) {
			continue
		}
		path := filepath.Join(r.dir, name)
		info, err := os.Stat(path)
		if err != nil {
			// Removed or renamed since listing; nothing to move.
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, start, end, &IOError{Op: "stat", Path: path, Err: err}
		}
		if info.IsDir() {
			continue
		}
		modTime := info.ModTime()
		if !modTime.After(start) || !modTime.Before(end) {
			continue
		}
		moves = append(moves, Move{
			Name:        name,
			Source:      path,
			Destination: filepath.Join(destDir, name),
			ModTime:     modTime,
		})
	}
	return moves, start, end, nil
}

// IOError reports a filesystem failure during relocation.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: relocate: %s %s: %v", services.ErrIO, e.Op, e.Path, e.Err)
}

// Unwrap exposes the services.ErrIO marker and the underlying error.
func (e *IOError) Unwrap() []error {
	return []error{services.ErrIO, e.Err}
}
