// Package report mediates access to the Crystal Reports Ninja CLI.
//
// It turns an Invocation into the tool's argument list in a fixed, testable
// order, runs the tool synchronously with stdout and stderr captured, and
// reports non-zero exits as *ExternalProcessError values carrying the tool's
// diagnostic output. Field contents are passed through untouched: the report
// tool is the only place that validates report paths and parameter syntax.
//
// Prefer this package over ad-hoc exec.Command usage so logging (with the
// database password redacted) and error classification stay consistent.
package report
