package report

import (
	"fmt"
	"strings"

	"rptninja/internal/services"
)

// ExternalProcessError reports a report tool run that exited non-zero or could
// not be started. Stderr holds the tool's captured diagnostic output.
type ExternalProcessError struct {
	Binary   string
	ExitCode int
	Stderr   string
	// Err is set when the process failed to start or was interrupted.
	Err error
}

func (e *ExternalProcessError) Error() string {
	var b strings.Builder
	if e.Err != nil && e.ExitCode < 0 {
		fmt.Fprintf(&b, "%s: run report tool %s: %v", services.ErrExternalTool, e.Binary, e.Err)
	} else {
		fmt.Fprintf(&b, "%s: report tool %s exited with status %d", services.ErrExternalTool, e.Binary, e.ExitCode)
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		b.WriteString(": ")
		b.WriteString(stderr)
	}
	return b.String()
}

// Unwrap exposes the services.ErrExternalTool marker and any underlying error.
func (e *ExternalProcessError) Unwrap() []error {
	if e.Err != nil {
		return []error{services.ErrExternalTool, e.Err}
	}
	return []error{services.ErrExternalTool}
}
