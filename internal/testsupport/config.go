package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"rptninja/internal/config"
)

// NinjaExportScript imitates a successful export: it writes the file named by
// -O and prints a line to stdout.
const NinjaExportScript = `#!/bin/sh
out=""
while [ $# -gt 0 ]; do
  case "$1" in
    -O) out="$2"; shift ;;
  esac
  shift
done
if [ -n "$out" ]; then
  printf 'report' > "$out"
fi
echo "Exporting report"
exit 0
`

// NinjaFailScript exits with status 3 after writing a login failure to stderr.
const NinjaFailScript = `#!/bin/sh
echo "Logon failed." >&2
exit 3
`

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The working directory exists; the state directory is left for the code under
// test to create.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Ninja.WorkingDir = filepath.Join(base, "work")
	cfgVal.Ninja.Binary = filepath.Join(base, "bin", "CrystalReportsNinja")
	cfgVal.Ninja.LockRetryMillis = 10
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	if err := os.MkdirAll(cfgVal.Ninja.WorkingDir, 0o755); err != nil {
		t.Fatalf("mkdir work dir: %v", err)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithExportFormat overrides the default export format.
func WithExportFormat(format string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Export.Format = format
	}
}

// WithHistoryDisabled turns off run history.
func WithHistoryDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = false
	}
}

// WithStubbedNinja writes script as the report tool and points
// ninja.binary at it.
func WithStubbedNinja(script string) ConfigOption {
	return func(b *configBuilder) {
		target := b.cfg.Ninja.Binary
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
			b.t.Fatalf("write stub ninja: %v", err)
		}
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "path-bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
