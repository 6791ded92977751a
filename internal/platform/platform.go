// Package platform copies byte ranges between open files using the
// fastest mechanism the host kernel offers.
package platform

import "os"

// CopyMethod identifies which syscall/strategy was used for a copy.
type CopyMethod int

const (
	ReadWrite     CopyMethod = iota
	CopyFileRange            // Linux copy_file_range(2)
)

func (m CopyMethod) String() string {
	switch m {
	case ReadWrite:
		return "read_write"
	case CopyFileRange:
		return "copy_file_range"
	default:
		return "unknown"
	}
}

// CopyResult reports the outcome of a copy operation.
type CopyResult struct {
	BytesWritten int64
	Method       CopyMethod
}

// CopyRangeParams describes one range copy. Neither file's seek offset is
// used or changed.
type CopyRangeParams struct {
	Src       *os.File
	Dst       *os.File
	SrcOffset int64
	DstOffset int64
	Length    int64
}

// Preallocate reserves size bytes for f where the filesystem supports it.
func Preallocate(f *os.File, size int64) {
	preallocate(f, size)
}
