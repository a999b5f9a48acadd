// Package history persists a record of report runs in SQLite.
//
// Each run stores the report file, export format, working directory, outcome,
// and the output files the relocator moved. The CLI reads it back for the
// history commands; the workflow runner writes it. Passwords are never stored.
package history
