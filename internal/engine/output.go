package engine

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/bamsammich/cuemerge/internal/platform"
)

// SourceFile is an open source binary.
type SourceFile interface {
	io.ReaderAt
	io.Closer
}

// Source opens source binaries by path.
type Source interface {
	Open(path string) (SourceFile, error)
}

// Output is a destination being written. Nothing is visible at Path until
// Commit succeeds; Abort discards everything written so far.
type Output interface {
	io.WriterAt
	Path() string
	Commit() error
	Abort() error
}

// Sink creates outputs and removes committed ones during rollback.
type Sink interface {
	Create(path string, size int64) (Output, error)
	Remove(path string) error
}

// fileBacked is implemented by outputs that can take part in kernel
// range copies.
type fileBacked interface {
	File() *os.File
}

// LocalSource reads source binaries from the local filesystem.
type LocalSource struct{}

func (LocalSource) Open(path string) (SourceFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Kind: ReadFailure, Path: path, Err: err}
	}
	return f, nil
}

// LocalSink writes each output to a hidden temp file in the destination
// directory and renames it into place on Commit.
type LocalSink struct {
	Overwrite bool
}

// TmpName returns the temporary name used while writing path.
func TmpName(path string) string {
	return filepath.Join(filepath.Dir(path),
		fmt.Sprintf(".%s.%s.cuemerge-tmp", filepath.Base(path), uuid.New().String()[:8]))
}

func (s LocalSink) Create(path string, size int64) (Output, error) {
	if !s.Overwrite {
		if _, err := os.Lstat(path); err == nil {
			return nil, &IOError{Kind: DestinationExists, Path: path}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, &IOError{Kind: WriteFailure, Path: path, Err: err}
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &IOError{Kind: WriteFailure, Path: dir, Err: err}
	}

	tmpPath := TmpName(path)
	RegisterTmp(tmpPath)
	f, err := os.OpenFile(tmpPath, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		DeregisterTmp(tmpPath)
		return nil, &IOError{Kind: WriteFailure, Path: tmpPath, Err: err}
	}
	platform.Preallocate(f, size)

	return &localOutput{f: f, tmpPath: tmpPath, path: path}, nil
}

func (LocalSink) Remove(path string) error {
	return os.Remove(path)
}

type localOutput struct {
	f       *os.File
	tmpPath string
	path    string
	mu      sync.Mutex
	done    bool
}

func (o *localOutput) WriteAt(p []byte, off int64) (int, error) { return o.f.WriteAt(p, off) }
func (o *localOutput) File() *os.File                            { return o.f }
func (o *localOutput) Path() string                              { return o.path }

func (o *localOutput) Commit() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.done {
		return nil
	}
	o.done = true
	defer DeregisterTmp(o.tmpPath)

	if err := o.f.Close(); err != nil {
		_ = os.Remove(o.tmpPath)
		return &IOError{Kind: WriteFailure, Path: o.tmpPath, Err: err}
	}
	if err := os.Rename(o.tmpPath, o.path); err != nil {
		_ = os.Remove(o.tmpPath)
		return &IOError{Kind: RenameFailure, Path: o.path, Err: err}
	}
	return nil
}

func (o *localOutput) Abort() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.done {
		return nil
	}
	o.done = true
	defer DeregisterTmp(o.tmpPath)

	_ = o.f.Close()
	if err := os.Remove(o.tmpPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
