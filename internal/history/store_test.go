package history_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"rptninja/internal/history"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "state", "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenCreatesSchemaAndReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	ctx := context.Background()
	if _, err := store.BeginRun(ctx, history.Run{ID: "run-1", ReportFile: "jobs.rpt", WorkDir: "."}); err != nil {
		t.Fatalf("BeginRun failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := history.Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()
	run, err := reopened.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if run.ReportFile != "jobs.rpt" {
		t.Fatalf("unexpected report file %q", run.ReportFile)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := history.Open("  "); err == nil {
		t.Fatal("expected error for blank path")
	}
}

func TestRunLifecycle(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	started := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	run, err := store.BeginRun(ctx, history.Run{
		ID:         "3f0c7d2e-0000-4000-8000-000000000001",
		ReportFile: `C:\reports\open_jobs-by_dept.rpt`,
		Format:     "pdf",
		WorkDir:    "/srv/reports",
		StartedAt:  started,
	})
	if err != nil {
		t.Fatalf("BeginRun failed: %v", err)
	}
	if run.Status != history.StatusRunning {
		t.Fatalf("expected running status, got %q", run.Status)
	}
	if run.Title != "Open Jobs By Dept" {
		t.Fatalf("unexpected title %q", run.Title)
	}

	moves := []history.MovedFile{
		{Source: "/srv/reports/a.pdf", Destination: "/srv/reports/reports/a.pdf", ModTime: started.Add(time.Second)},
		{Source: "/srv/reports/b.pdf", Destination: "/srv/reports/reports/b.pdf", ModTime: started.Add(2 * time.Second)},
	}
	if err := store.RecordMoves(ctx, run.ID, moves); err != nil {
		t.Fatalf("RecordMoves failed: %v", err)
	}
	if err := store.FinishRun(ctx, run.ID, history.Outcome{
		Status:   history.StatusFailed,
		ExitCode: 4,
		Error:    "external tool error: login failed",
		Stdout:   "Processing...",
	}); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	got, err := store.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != history.StatusFailed || got.ExitCode != 4 {
		t.Fatalf("unexpected final state: %+v", got)
	}
	if got.Error != "external tool error: login failed" || got.Stdout != "Processing..." {
		t.Fatalf("unexpected outcome text: %+v", got)
	}
	if got.MovedCount != 2 {
		t.Fatalf("expected 2 moves counted, got %d", got.MovedCount)
	}
	if !got.StartedAt.Equal(started) {
		t.Fatalf("started_at = %v, want %v", got.StartedAt, started)
	}
	if got.FinishedAt.IsZero() {
		t.Fatal("expected finished_at to be set")
	}

	recorded, err := store.Moves(ctx, run.ID)
	if err != nil {
		t.Fatalf("Moves failed: %v", err)
	}
	type pair struct{ Source, Destination string }
	var gotPairs []pair
	for _, m := range recorded {
		if m.RunID != run.ID {
			t.Fatalf("move attributed to %q", m.RunID)
		}
		gotPairs = append(gotPairs, pair{m.Source, m.Destination})
	}
	want := []pair{
		{"/srv/reports/a.pdf", "/srv/reports/reports/a.pdf"},
		{"/srv/reports/b.pdf", "/srv/reports/reports/b.pdf"},
	}
	if diff := cmp.Diff(want, gotPairs); diff != "" {
		t.Fatalf("moves mismatch (-want +got):\n%s", diff)
	}
	if !recorded[0].ModTime.Equal(moves[0].ModTime) {
		t.Fatalf("mod time = %v, want %v", recorded[0].ModTime, moves[0].ModTime)
	}
}

func TestBeginRunValidates(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	if _, err := store.BeginRun(ctx, history.Run{ReportFile: "a.rpt"}); err == nil {
		t.Fatal("expected error without id")
	}
	if _, err := store.BeginRun(ctx, history.Run{ID: "x"}); err == nil {
		t.Fatal("expected error without report file")
	}
}

func TestFinishRunUnknownID(t *testing.T) {
	store := openStore(t)
	err := store.FinishRun(context.Background(), "missing", history.Outcome{Status: history.StatusSucceeded})
	if !errors.Is(err, history.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFinishRunRejectsRunningStatus(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	if _, err := store.BeginRun(ctx, history.Run{ID: "r", ReportFile: "a.rpt"}); err != nil {
		t.Fatalf("BeginRun failed: %v", err)
	}
	if err := store.FinishRun(ctx, "r", history.Outcome{Status: history.StatusRunning}); err == nil {
		t.Fatal("expected error for non-terminal status")
	}
}

func TestListNewestFirstWithLimit(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	for i, id := range []string{"first", "second", "third"} {
		if _, err := store.BeginRun(ctx, history.Run{
			ID:         id,
			ReportFile: id + ".rpt",
			StartedAt:  base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("BeginRun %s failed: %v", id, err)
		}
	}

	all, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	var ids []string
	for _, run := range all {
		ids = append(ids, run.ID)
	}
	if diff := cmp.Diff([]string{"third", "second", "first"}, ids); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}

	limited, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List limit failed: %v", err)
	}
	if len(limited) != 2 || limited[0].ID != "third" {
		t.Fatalf("unexpected limited list: %+v", limited)
	}
}

func TestGetByPrefix(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	for _, id := range []string{"abc123", "abd456"} {
		if _, err := store.BeginRun(ctx, history.Run{ID: id, ReportFile: "r.rpt"}); err != nil {
			t.Fatalf("BeginRun failed: %v", err)
		}
	}

	run, err := store.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("Get prefix failed: %v", err)
	}
	if run.ID != "abc123" {
		t.Fatalf("unexpected run %q", run.ID)
	}
	if _, err := store.Get(ctx, "ab"); err == nil {
		t.Fatal("expected ambiguous prefix error")
	}
	if _, err := store.Get(ctx, "zz"); !errors.Is(err, history.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.Get(ctx, "a_c"); !errors.Is(err, history.ErrNotFound) {
		t.Fatalf("expected wildcard to be escaped, got %v", err)
	}
}

func TestPruneRemovesOldFinishedRuns(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	cutoff := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	add := func(id string, started time.Time, finish bool) {
		t.Helper()
		if _, err := store.BeginRun(ctx, history.Run{ID: id, ReportFile: "r.rpt", StartedAt: started}); err != nil {
			t.Fatalf("BeginRun %s failed: %v", id, err)
		}
		if err := store.RecordMoves(ctx, id, []history.MovedFile{{Source: id + ".pdf", Destination: "reports/" + id + ".pdf", ModTime: started}}); err != nil {
			t.Fatalf("RecordMoves %s failed: %v", id, err)
		}
		if finish {
			if err := store.FinishRun(ctx, id, history.Outcome{Status: history.StatusSucceeded}); err != nil {
				t.Fatalf("FinishRun %s failed: %v", id, err)
			}
		}
	}
	add("old", cutoff.Add(-48*time.Hour), true)
	add("stuck", cutoff.Add(-48*time.Hour), false)
	add("recent", cutoff.Add(time.Hour), true)

	removed, err := store.Prune(ctx, cutoff)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 run pruned, got %d", removed)
	}
	if _, err := store.Get(ctx, "old"); !errors.Is(err, history.ErrNotFound) {
		t.Fatalf("expected old run gone, got %v", err)
	}
	moves, err := store.Moves(ctx, "old")
	if err != nil {
		t.Fatalf("Moves failed: %v", err)
	}
	if len(moves) != 0 {
		t.Fatalf("expected moves of pruned run removed, got %d", len(moves))
	}
	for _, id := range []string{"stuck", "recent"} {
		if _, err := store.Get(ctx, id); err != nil {
			t.Fatalf("expected %s to survive prune: %v", id, err)
		}
	}
}

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "Untitled Report"},
		{"open_jobs.rpt", "Open Jobs"},
		{`C:\JobBoss\Reports\wip-by.rpt`, "Wip By"},
		{"/srv/reports/MONTHLY sales.rpt", "Monthly Sales"},
		{"---.rpt", "Untitled Report"},
	}
	for _, tc := range tests {
		if got := history.DeriveTitle(tc.input); got != tc.want {
			t.Errorf("DeriveTitle(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
