// Package main hosts the rptninja CLI entrypoint and command graph.
//
// The Cobra command tree wraps Crystal Reports Ninja: "run" exports a report
// and relocates its output, "relocate" collects fresh output on its own, and
// "history", "config", and "doctor" cover inspection and setup. Configuration
// is resolved once per invocation and shared through commandContext.
package main
