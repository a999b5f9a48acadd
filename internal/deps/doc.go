// Package deps checks that external programs are installed and executable.
package deps
