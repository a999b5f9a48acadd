// Package logging builds the slog loggers rptninja writes to stderr and to the
// log file in the state directory.
//
// Two handlers are available: a single-line console format that promotes the
// component attribute to a prefix, and JSON with ts/level/msg keys. Both mask
// values logged under credential keys. WithContext stamps run ids and stage
// names carried on a context.
package logging
