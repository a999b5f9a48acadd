// Package preflight provides readiness checks for the report tool and the
// directories rptninja reads and writes.
//
// The doctor command runs RunAll and prints each Result. A missing required
// tool is also listed in Summary.MissingTools. Directories that rptninja
// creates on demand (state dir, relocation destination) pass while missing as
// long as nothing else occupies the path.
package preflight
