package preflight

import (
	"context"
	"path/filepath"

	"rptninja/internal/config"
	"rptninja/internal/deps"
	"rptninja/internal/report"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Summary collects the outcome of RunAll.
type Summary struct {
	Results      []Result
	// MissingTools lists required programs that could not be found.
	MissingTools []deps.Status
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) Summary {
	if cfg == nil {
		return Summary{}
	}

	var results []Result

	statuses := CheckSystemDeps(ctx, cfg)
	for _, status := range statuses {
		result := Result{Name: status.Name, Passed: status.Available, Detail: status.Detail}
		if status.Available {
			result.Detail = status.Path
		}
		results = append(results, result)
	}

	results = append(results, CheckDirectoryAccess("Working directory", cfg.Ninja.WorkingDir))

	if cfg.Relocate.Enabled {
		dest := filepath.Join(cfg.Ninja.WorkingDir, cfg.Relocate.Destination)
		results = append(results, CheckCreatableDirectory("Relocation destination", dest))
	}

	results = append(results, CheckCreatableDirectory("State directory", cfg.Paths.StateDir))

	return Summary{Results: results, MissingTools: deps.Missing(statuses)}
}

// CheckSystemDeps evaluates the external programs the configured run needs.
func CheckSystemDeps(_ context.Context, cfg *config.Config) []deps.Status {
	binary := cfg.Ninja.Binary
	// Resolve the same way the report client does.
	if client, err := report.New(cfg.Ninja.Binary, cfg.Ninja.WorkingDir); err == nil {
		binary = client.Binary()
	}
	requirements := []deps.Requirement{
		{
			Name:        "Crystal Reports Ninja",
			Command:     binary,
			Description: "Required to run and export reports",
		},
	}
	return deps.CheckBinaries(requirements)
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return true
		}
	}
	return false
}
