package platform

import (
	"errors"
	"io"
	"sync"
)

const bufferSize = 1 << 20 // 1 MiB

var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, bufferSize)
		return &b
	},
}

// errShortSource reports a source that ended before Length bytes were copied.
var errShortSource = errors.New("source ended before the requested range")

// copyReadWrite copies data using pread/pwrite with a pooled buffer.
func copyReadWrite(params CopyRangeParams) (CopyResult, error) {
	bufp := bufPool.Get().(*[]byte)
	defer bufPool.Put(bufp)
	buf := *bufp

	roff := params.SrcOffset
	woff := params.DstOffset
	remaining := params.Length

	var totalWritten int64
	for remaining > 0 {
		toRead := int(min(remaining, bufferSize))

		n, err := params.Src.ReadAt(buf[:toRead], roff)
		if n == 0 && err != nil {
			return CopyResult{BytesWritten: totalWritten, Method: ReadWrite}, errShortSourceOr(err)
		}

		if _, werr := params.Dst.WriteAt(buf[:n], woff); werr != nil {
			return CopyResult{BytesWritten: totalWritten, Method: ReadWrite}, werr
		}

		roff += int64(n)
		woff += int64(n)
		remaining -= int64(n)
		totalWritten += int64(n)
	}

	return CopyResult{BytesWritten: totalWritten, Method: ReadWrite}, nil
}

// CopyReadWrite is the exported version for use by other packages during testing.
func CopyReadWrite(params CopyRangeParams) (CopyResult, error) {
	return copyReadWrite(params)
}

func errShortSourceOr(err error) error {
	if errors.Is(err, io.EOF) {
		return errShortSource
	}
	return err
}

// ErrShortSource reports whether err means the source was shorter than the range.
func ErrShortSource(err error) bool {
	return errors.Is(err, errShortSource)
}
