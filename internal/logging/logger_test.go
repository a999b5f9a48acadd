package logging_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rptninja/internal/config"
	"rptninja/internal/logging"
	"rptninja/internal/services"
)

func tempLogPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.log")
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return string(content)
}

func TestNewFromConfigWritesStateLog(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(t.TempDir(), "state")
	cfg.Logging.Level = "debug"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("config logger ready")

	if !strings.Contains(readLog(t, cfg.LogPath()), "config logger ready") {
		t.Fatal("expected message in state log file")
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := tempLogPath(t)
	logger, err := logging.New(logging.Options{
		Format:  "console",
		Level:   "info",
		Outputs: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller", logging.String("report", "q.rpt"))

	content := readLog(t, logPath)
	if strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
	if !strings.Contains(content, "INFO") || !strings.Contains(content, "report=q.rpt") {
		t.Fatalf("unexpected console line %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := tempLogPath(t)
	logger, err := logging.New(logging.Options{
		Format:  "console",
		Level:   "debug",
		Outputs: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message with caller")

	if !strings.Contains(readLog(t, logPath), ".go:") {
		t.Fatal("expected caller information in debug logs")
	}
}

func TestConsoleLoggerPromotesComponent(t *testing.T) {
	logPath := tempLogPath(t)
	base, err := logging.New(logging.Options{
		Format:  "console",
		Outputs: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(base, "relocate").Info("moved file")

	content := readLog(t, logPath)
	if !strings.Contains(content, "relocate: moved file") {
		t.Fatalf("expected component prefix, got %q", content)
	}
	if strings.Contains(content, "component=") {
		t.Fatalf("expected component attr to be promoted, got %q", content)
	}
}

func TestJSONLoggerUsesCanonicalKeys(t *testing.T) {
	logPath := tempLogPath(t)
	logger, err := logging.New(logging.Options{
		Format:  "json",
		Level:   "info",
		Outputs: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("json message", logging.String("k", "v"))

	var entry map[string]any
	line := strings.TrimSpace(readLog(t, logPath))
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("decode json log %q: %v", line, err)
	}
	if entry["level"] != "info" || entry["msg"] != "json message" || entry["k"] != "v" {
		t.Fatalf("unexpected json entry: %v", entry)
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", entry)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContextAddsFields(t *testing.T) {
	logPath := tempLogPath(t)
	base, err := logging.New(logging.Options{
		Format:  "console",
		Outputs: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithRunID(context.Background(), "run-xyz")
	ctx = services.WithStage(ctx, "report")
	logging.WithContext(ctx, base).Info("contextual log")

	content := readLog(t, logPath)
	for _, want := range []string{"run_id=run-xyz", "stage=report"} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected %q in %q", want, content)
		}
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logPath := tempLogPath(t)
	base, err := logging.New(logging.Options{
		Format:  "console",
		Outputs: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.WarnWithContext(base, "relocation skipped", "relocate_skipped",
		logging.String(logging.FieldImpact, "output left in place"))

	content := readLog(t, logPath)
	for _, want := range []string{"event_type=relocate_skipped", "error_hint=", `impact="output left in place"`} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected %q in %q", want, content)
		}
	}
}

func TestLoggersRedactPasswords(t *testing.T) {
	for _, format := range []string{"console", "json"} {
		t.Run(format, func(t *testing.T) {
			logPath := tempLogPath(t)
			logger, err := logging.New(logging.Options{
				Format:  format,
				Outputs: []string{logPath},
			})
			if err != nil {
				t.Fatalf("New returned error: %v", err)
			}
			logger.Info("credentials", logging.String("password", "hunter2"))

			content := readLog(t, logPath)
			if strings.Contains(content, "hunter2") {
				t.Fatalf("password leaked into %s log: %q", format, content)
			}
			if !strings.Contains(content, logging.RedactedValue) {
				t.Fatalf("expected redaction marker in %q", content)
			}
		})
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := logging.New(logging.Options{Level: "verbose"}); err == nil {
		t.Fatal("expected error for unsupported level")
	}
}

func TestNewWritesDuplicateOutputOnce(t *testing.T) {
	logPath := tempLogPath(t)
	logger, err := logging.New(logging.Options{Outputs: []string{logPath, " " + logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Warn("written once")

	if got := strings.Count(readLog(t, logPath), "written once"); got != 1 {
		t.Fatalf("expected one line, got %d", got)
	}
}

func TestConsoleLoggerFlattensGroups(t *testing.T) {
	logPath := tempLogPath(t)
	base, err := logging.New(logging.Options{Outputs: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	base.With(logging.String("before", "x")).
		WithGroup("move").
		Info("grouped", logging.String("source", "a.pdf"), slog.Group("db", logging.String("password", "hunter2")))

	content := readLog(t, logPath)
	for _, want := range []string{"before=x", "move.source=a.pdf", "move.db.password=" + logging.RedactedValue} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected %q in %q", want, content)
		}
	}
	if strings.Contains(content, "move.before") || strings.Contains(content, "hunter2") {
		t.Fatalf("unexpected console line %q", content)
	}
}
