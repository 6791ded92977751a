//go:build linux

package platform

import (
	"os"

	"golang.org/x/sys/unix"
)

// preallocate reserves space for a destination binary so large merged
// images are laid out contiguously. Errors are ignored: not every
// filesystem implements fallocate.
//
//nolint:gosec // G115: fd values are small non-negative integers
func preallocate(f *os.File, size int64) {
	if size <= 0 {
		return
	}
	//nolint:errcheck // advisory
	unix.Fallocate(int(f.Fd()), 0, 0, size)
}
