//go:build !linux

package platform

// CopyRange uses pread/pwrite on platforms without copy_file_range.
func CopyRange(params CopyRangeParams) (CopyResult, error) {
	return copyReadWrite(params)
}
