package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"rptninja/internal/logging"
	"rptninja/internal/services"
)

// Output captures one finished process execution.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Executor abstracts command execution for testability. Implementations return
// a non-nil error only when the process could not be run to completion; a
// non-zero exit is reported through Output.ExitCode.
type Executor interface {
	Run(ctx context.Context, dir, binary string, args []string) (Output, error)
}

// Result describes a successful report run.
type Result struct {
	// Args is the command line with the password redacted.
	Args     []string
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithLogger sets the logger used for invocation diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client wraps Crystal Reports Ninja CLI interactions.
type Client struct {
	binary  string
	workDir string
	exec    Executor
	logger  *slog.Logger
}

// New constructs a report tool client. Relative binary paths containing a
// directory component resolve against workDir.
func New(binary, workDir string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, services.Wrap(services.ErrConfiguration, "report", "new client", "report tool binary required", nil)
	}
	client := &Client{
		binary:  resolveBinary(binary, workDir),
		workDir: workDir,
		exec:    commandExecutor{},
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Binary returns the resolved executable path.
func (c *Client) Binary() string {
	return c.binary
}

// WorkDir returns the directory the report tool runs in.
func (c *Client) WorkDir() string {
	return c.workDir
}

// Run executes the report tool and blocks until it exits. No timeout is
// applied; only cancellation of ctx interrupts the process.
func (c *Client) Run(ctx context.Context, inv Invocation) (Result, error) {
	if strings.TrimSpace(inv.ReportFile) == "" {
		return Result{}, services.Wrap(services.ErrValidation, "report", "run", "report file required", nil)
	}

	argv := Command(c.binary, inv)
	result := Result{Args: Redact(argv)}
	logger := logging.WithContext(ctx, c.logger)
	logger.Info("executing report command",
		logging.String("command", strings.Join(result.Args, " ")),
		logging.String("dir", c.workDir),
	)

	started := time.Now()
	out, err := c.exec.Run(ctx, c.workDir, argv[0], argv[1:])
	result.Duration = time.Since(started)
	result.Stdout = out.Stdout
	result.Stderr = out.Stderr

	if err != nil {
		perr := &ExternalProcessError{Binary: c.binary, ExitCode: -1, Stderr: out.Stderr, Err: err}
		logging.ErrorWithContext(logger, "report tool failed to run", "report_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check ninja.binary points at CrystalReportsNinja.exe"),
		)
		return result, perr
	}
	if out.ExitCode != 0 {
		perr := &ExternalProcessError{Binary: c.binary, ExitCode: out.ExitCode, Stderr: out.Stderr}
		logging.ErrorWithContext(logger, "report tool exited with error", "report_failed",
			logging.Int("exit_code", out.ExitCode),
			logging.String("stderr", strings.TrimSpace(out.Stderr)),
			logging.String(logging.FieldErrorHint, "inspect the report tool output; enable create_log for its own log"),
		)
		return result, perr
	}

	logger.Info("report command succeeded",
		logging.Duration("duration", result.Duration),
		logging.String("output", strings.TrimSpace(out.Stdout)),
	)
	return result, nil
}

func resolveBinary(binary, workDir string) string {
	if filepath.IsAbs(binary) || workDir == "" || !strings.ContainsAny(binary, `/\`) {
		return binary
	}
	return filepath.Join(workDir, binary)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, dir, binary string, args []string) (Output, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := Output{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return out, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return out, fmt.Errorf("report tool interrupted: %w", ctxErr)
		}
		if code := exitErr.ExitCode(); code >= 0 {
			out.ExitCode = code
			return out, nil
		}
		return out, fmt.Errorf("wait command: %w", err)
	}
	return out, fmt.Errorf("start command: %w", err)
}
