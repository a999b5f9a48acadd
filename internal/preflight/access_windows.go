//go:build windows

package preflight

import "os"

// checkAccess probes writability by creating and removing a temp file; the
// Windows ACL model has no access(2) equivalent.
func checkAccess(path string) error {
	if _, err := os.ReadDir(path); err != nil {
		return err
	}
	f, err := os.CreateTemp(path, ".rptninja-probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
