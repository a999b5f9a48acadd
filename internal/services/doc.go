// Package services defines shared utilities consumed by the report runner,
// the output relocator, and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs and stage names for logging.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures (external tool vs filesystem vs configuration) with errors.Is.
//
// Use these helpers when wiring new logic so error handling and observability
// stay uniform across packages.
package services
