package history

import (
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Status represents the lifecycle of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run is one recorded report execution.
type Run struct {
	ID         string
	ReportFile string
	Title      string
	Format     string
	WorkDir    string
	Status     Status
	ExitCode   int
	Error      string
	Stdout     string
	MovedCount int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration returns how long the run took, or zero while it is still running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Outcome is the final state recorded by FinishRun.
type Outcome struct {
	Status   Status
	ExitCode int
	Error    string
	Stdout   string
}

// MovedFile is a relocated output file attributed to a run.
type MovedFile struct {
	RunID       string
	Source      string
	Destination string
	ModTime     time.Time
	MovedAt     time.Time
}

// DeriveTitle turns a report file path into a display title, e.g.
// "C:\reports\open_jobs-by_dept.rpt" becomes "Open Jobs By Dept".
func DeriveTitle(reportFile string) string {
	if strings.TrimSpace(reportFile) == "" {
		return "Untitled Report"
	}
	// Report paths are frequently Windows paths; normalize before taking the base.
	base := filepath.Base(strings.ReplaceAll(reportFile, `\`, "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range base {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	title := strings.TrimSpace(cleaned.String())
	if title == "" {
		return "Untitled Report"
	}
	return cases.Title(language.Und).String(title)
}
