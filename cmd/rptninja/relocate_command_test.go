package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"rptninja/internal/runlock"
	"rptninja/internal/services"
	"rptninja/internal/testsupport"
)

func TestRelocateDryRunThenMove(t *testing.T) {
	env := setupCLITestEnv(t)
	fresh := filepath.Join(env.workDir, "weekly.csv")
	stale := filepath.Join(env.workDir, "last_month.csv")
	testsupport.WriteFileAt(t, fresh, time.Now())
	testsupport.WriteFileAt(t, stale, time.Now().Add(-2*time.Hour))

	out, _, err := runCLI(t, []string{"relocate", "--ext", "csv", "--dry-run"}, env.configPath)
	if err != nil {
		t.Fatalf("relocate --dry-run: %v", err)
	}
	requireContains(t, out, "Would move 1 file(s)")
	requireContains(t, out, "weekly.csv")
	if _, err := os.Stat(fresh); err != nil {
		t.Fatalf("dry run should not move files: %v", err)
	}

	out, _, err = runCLI(t, []string{"relocate", "--ext", "csv", "--dest", "archive"}, env.configPath)
	if err != nil {
		t.Fatalf("relocate: %v", err)
	}
	requireContains(t, out, "Moved 1 file(s)")
	if _, err := os.Stat(filepath.Join(env.workDir, "archive", "weekly.csv")); err != nil {
		t.Fatalf("expected moved file: %v", err)
	}
	if _, err := os.Stat(stale); err != nil {
		t.Fatalf("stale file should stay: %v", err)
	}

	out, _, err = runCLI(t, []string{"relocate", "--ext", "csv", "--dest", "archive"}, env.configPath)
	if err != nil {
		t.Fatalf("second relocate: %v", err)
	}
	requireContains(t, out, "No fresh *csv files")
}

func TestRelocateDefaultsExtensionFromFormat(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithExportFormat("xlsdata"))
	testsupport.WriteFileAt(t, filepath.Join(env.workDir, "data.xls"), time.Now())

	out, _, err := runCLI(t, []string{"relocate", "--dry-run"}, env.configPath)
	if err != nil {
		t.Fatalf("relocate: %v", err)
	}
	requireContains(t, out, "data.xls")
}

func TestRelocateRequiresExtensionForPrint(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithExportFormat("print"))

	_, _, err := runCLI(t, []string{"relocate"}, env.configPath)
	if err == nil {
		t.Fatal("expected error without an extension")
	}
	if code := services.ExitCode(err); code != 2 {
		t.Fatalf("expected exit code 2, got %d (%v)", code, err)
	}
}

func TestRelocateScanFailurePrintsNoSummary(t *testing.T) {
	env := setupCLITestEnv(t)
	missing := filepath.Join(env.workDir, "missing")

	out, _, err := runCLI(t, []string{"relocate", "--ext", "pdf", "--dir", missing}, env.configPath)
	if !errors.Is(err, services.ErrIO) {
		t.Fatalf("expected ErrIO, got %v", err)
	}
	if strings.Contains(out, "No fresh") {
		t.Fatalf("unexpected summary on failure: %q", out)
	}
}

func TestRelocateNoWaitFailsWhileLocked(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteFileAt(t, filepath.Join(env.workDir, "weekly.csv"), time.Now())
	held, err := runlock.TryAcquire(env.cfg.LockPath())
	if err != nil {
		t.Fatalf("TryAcquire: %v", err)
	}
	defer held.Release()

	_, _, err = runCLI(t, []string{"relocate", "--ext", "csv", "--no-wait"}, env.configPath)
	if code := services.ExitCode(err); code != 3 {
		t.Fatalf("expected exit code 3, got %d (%v)", code, err)
	}
	if _, err := os.Stat(filepath.Join(env.workDir, "weekly.csv")); err != nil {
		t.Fatalf("file should stay while locked: %v", err)
	}
}
