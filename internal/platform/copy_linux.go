//go:build linux

package platform

import (
	"errors"

	"golang.org/x/sys/unix"
)

// CopyRange tries copy_file_range first, falling through to pread/pwrite
// on unsupported or cross-device errors.
func CopyRange(params CopyRangeParams) (CopyResult, error) {
	result, err := copyFileRange(params)
	if err == nil {
		return result, nil
	}
	if !isFallbackErr(err) || result.BytesWritten > 0 {
		return result, err
	}
	return copyReadWrite(params)
}

//nolint:gosec // G115: fd values are small non-negative integers
func copyFileRange(params CopyRangeParams) (CopyResult, error) {
	remaining := params.Length
	roff := params.SrcOffset
	woff := params.DstOffset

	var totalWritten int64
	for remaining > 0 {
		n, err := unix.CopyFileRange(int(params.Src.Fd()), &roff, int(params.Dst.Fd()), &woff, int(remaining), 0)
		if err != nil {
			return CopyResult{BytesWritten: totalWritten, Method: CopyFileRange}, err
		}
		if n == 0 {
			return CopyResult{BytesWritten: totalWritten, Method: CopyFileRange}, errShortSource
		}
		remaining -= int64(n)
		totalWritten += int64(n)
	}

	return CopyResult{BytesWritten: totalWritten, Method: CopyFileRange}, nil
}

// isFallbackErr returns true if err should trigger a fallback to read/write.
func isFallbackErr(err error) bool {
	for _, e := range []error{unix.ENOSYS, unix.EXDEV, unix.EINVAL, unix.ENOTSUP, unix.EOPNOTSUPP} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
