// Package workflow runs one report end to end.
//
// A Runner serializes runs through the run lock, executes Crystal Reports
// Ninja via the report client, relocates the fresh output files into the
// destination folder, and records the outcome in run history. Relocation
// happens even when the tool exits with an error so partial output is still
// collected; both failures are returned together.
//
// The Runner owns no state between calls beyond its collaborators, so the CLI
// constructs one per invocation.
package workflow
