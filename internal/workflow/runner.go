package workflow

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"rptninja/internal/config"
	"rptninja/internal/history"
	"rptninja/internal/logging"
	"rptninja/internal/relocate"
	"rptninja/internal/report"
	"rptninja/internal/runlock"
)

// Request describes a single report run. Zero values fall back to config.
type Request struct {
	Invocation report.Invocation
	// Extension overrides the output suffix to relocate. When empty it comes
	// from relocate.extension in config, then from the export format.
	Extension    string
	Destination  string
	Tolerance    time.Duration
	SkipRelocate bool
	// NoWait fails with services.ErrLocked instead of waiting for another run.
	NoWait       bool
}

// Outcome summarizes a finished run.
type Outcome struct {
	RunID      string
	Status     history.Status
	Report     report.Result
	Relocated  bool
	Relocation relocate.Result
}

// Runner executes report runs.
type Runner struct {
	cfg    *config.Config
	client *report.Client
	store  *history.Store
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// Option configures a Runner.
type Option func(*Runner)

// WithClock overrides the clock used for relocation windows.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// WithIDGenerator overrides how run ids are assigned.
func WithIDGenerator(fn func() string) Option {
	return func(r *Runner) {
		if fn != nil {
			r.newID = fn
		}
	}
}

// New constructs a Runner. store may be nil to disable history.
func New(cfg *config.Config, client *report.Client, store *history.Store, logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Runner{
		cfg:    cfg,
		client: client,
		store:  store,
		logger: logging.NewComponentLogger(logger, "workflow"),
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveInvocation fills fields the caller left empty from config defaults.
func ResolveInvocation(cfg *config.Config, inv report.Invocation) report.Invocation {
	if cfg == nil {
		return inv
	}
	if inv.Format == "" {
		inv.Format = cfg.Export.Format
	}
	if inv.Printer == "" {
		inv.Printer = cfg.Export.Printer
	}
	if inv.Copies == 0 {
		inv.Copies = cfg.Export.Copies
	}
	if inv.Server == "" {
		inv.Server = cfg.Database.Server
	}
	if inv.Database == "" {
		inv.Database = cfg.Database.Name
	}
	if inv.Username == "" {
		inv.Username = cfg.Database.Username
	}
	if inv.Password == "" {
		inv.Password = cfg.Database.Password
	}
	if !inv.CreateLog {
		inv.CreateLog = cfg.Ninja.CreateLog
	}
	return inv
}

// RelocationExtension picks the output suffix to collect for a request. An
// empty result means the export produces no file.
func RelocationExtension(cfg *config.Config, req Request) string {
	if ext := strings.TrimSpace(req.Extension); ext != "" {
		return ext
	}
	if cfg != nil {
		if ext := strings.TrimSpace(cfg.Relocate.Extension); ext != "" {
			return ext
		}
	}
	return report.ExtensionForFormat(req.Invocation.Format)
}

// AcquireLock takes the host-wide run lock, waiting for it unless noWait is set.
func AcquireLock(ctx context.Context, cfg *config.Config, noWait bool) (*runlock.Lock, error) {
	if noWait {
		return runlock.TryAcquire(cfg.LockPath())
	}
	return runlock.Acquire(ctx, cfg.LockPath(), cfg.Ninja.LockRetry())
}
