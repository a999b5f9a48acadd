package config

import "time"

const (
	defaultNinjaBinary          = `.\CrystalReportsNinja\bin\CrystalReportsNinja.exe`
	defaultWorkingDir           = "."
	defaultStateDir             = "~/.local/share/rptninja"
	defaultExportFormat         = "pdf"
	defaultRelocateDestination  = "reports"
	defaultRelocateTolerance    = 5
	defaultHistoryRetentionDays = 90
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLockRetryMillis      = 500
)

// Environment variables consulted when the config file leaves database
// credentials empty. Earlier entries win.
var (
	usernameEnvVars = []string{"RPTNINJA_DB_USER", "JOBBOSS_UID"}
	passwordEnvVars = []string{"RPTNINJA_DB_PASSWORD", "JOBBOSS_PWD"}
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Ninja: Ninja{
			Binary:          defaultNinjaBinary,
			WorkingDir:      defaultWorkingDir,
			LockRetryMillis: defaultLockRetryMillis,
		},
		Export: Export{
			Format: defaultExportFormat,
		},
		Relocate: Relocate{
			Enabled:          true,
			Destination:      defaultRelocateDestination,
			ToleranceMinutes: defaultRelocateTolerance,
		},
		Paths: Paths{
			StateDir: defaultStateDir,
		},
		History: History{
			Enabled:       true,
			RetentionDays: defaultHistoryRetentionDays,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

// Tolerance returns the relocation window as a duration.
func (r Relocate) Tolerance() time.Duration {
	return time.Duration(r.ToleranceMinutes) * time.Minute
}

// LockRetry returns how long the runner waits between run lock attempts.
func (n Ninja) LockRetry() time.Duration {
	if n.LockRetryMillis <= 0 {
		return defaultLockRetryMillis * time.Millisecond
	}
	return time.Duration(n.LockRetryMillis) * time.Millisecond
}
