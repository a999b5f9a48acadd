// Package relocate moves freshly exported report files out of the report
// tool's working directory.
//
// A file qualifies when its name ends with the requested extension and its
// modification time falls strictly inside a tolerance window around the moment
// the scan starts. Matches are moved into a destination folder beneath the
// scanned directory, which is created on first use. Filesystem failures abort
// the pass and surface as *IOError values.
package relocate
