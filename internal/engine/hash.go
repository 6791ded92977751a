package engine

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// HashFile computes the BLAKE3 hash of the file at path, returning the hex-encoded digest.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	digest, err := HashRange(f, 0, info.Size())
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return digest, nil
}

// HashRange returns the hex BLAKE3 digest of n bytes of r starting at off.
// A range extending past the end of r is an error.
func HashRange(r io.ReaderAt, off, n int64) (string, error) {
	h := blake3.New()
	buf := make([]byte, 32*1024)
	copied, err := io.CopyBuffer(h, io.NewSectionReader(r, off, n), buf)
	if err != nil {
		return "", err
	}
	if copied != n {
		return "", fmt.Errorf("short read at offset %d: got %d of %d bytes: %w", off, copied, n, io.ErrUnexpectedEOF)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
