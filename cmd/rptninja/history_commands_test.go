package main

import (
	"encoding/json"
	"testing"
	"time"

	"rptninja/internal/services"
	"rptninja/internal/testsupport"
)

func TestHistoryShowByPrefix(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"--json", "run", "jobs.rpt", "-o", "jobs.pdf"}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var run runJSON
	if err := json.Unmarshal([]byte(out), &run); err != nil {
		t.Fatalf("decode run: %v", err)
	}

	out, _, err = runCLI(t, []string{"history", "show", run.RunID[:8]}, env.configPath)
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	requireContains(t, out, run.RunID)
	requireContains(t, out, "Status:     succeeded")
	requireContains(t, out, "jobs.pdf")

	_, _, err = runCLI(t, []string{"history", "show", "does-not-exist"}, env.configPath)
	if code := services.ExitCode(err); code != 2 {
		t.Fatalf("expected exit code 2 for unknown run, got %d (%v)", code, err)
	}
}

func TestHistoryEmpty(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No runs recorded")
}

func TestHistoryPrune(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"run", "jobs.rpt"}, env.configPath); err != nil {
		t.Fatalf("run: %v", err)
	}

	out, _, err := runCLI(t, []string{"history", "prune"}, env.configPath)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	requireContains(t, out, "Removed 0 run(s) older than 90d")

	if _, _, err := runCLI(t, []string{"history", "prune", "--older-than", "bogus"}, env.configPath); services.ExitCode(err) != 2 {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestHistoryDisabled(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithHistoryDisabled())

	if _, _, err := runCLI(t, []string{"run", "jobs.rpt"}, env.configPath); err != nil {
		t.Fatalf("run without history: %v", err)
	}
	_, _, err := runCLI(t, []string{"history"}, env.configPath)
	if code := services.ExitCode(err); code != 2 {
		t.Fatalf("expected configuration error, got %d (%v)", code, err)
	}
}

func TestParseAge(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
		ok    bool
	}{
		{"30d", 30 * 24 * time.Hour, true},
		{"12h", 12 * time.Hour, true},
		{"90m", 90 * time.Minute, true},
		{"xd", 0, false},
		{"soon", 0, false},
	}
	for _, tc := range tests {
		got, err := parseAge(tc.input)
		if (err == nil) != tc.ok {
			t.Fatalf("parseAge(%q) error = %v, want ok=%v", tc.input, err, tc.ok)
		}
		if tc.ok && got != tc.want {
			t.Fatalf("parseAge(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}
