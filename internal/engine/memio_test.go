package engine

import (
	"bytes"
	"sync"
)

// memSource serves source binaries from memory. onRead, when set, is
// called before every read.
type memSource struct {
	files  map[string][]byte
	onRead func(path string, off int64)
}

func (s *memSource) Open(path string) (SourceFile, error) {
	data, ok := s.files[path]
	if !ok {
		return nil, &IOError{Kind: ReadFailure, Path: path, Err: errNotFound}
	}
	return &memFile{Reader: bytes.NewReader(data), path: path, src: s}, nil
}

type memFile struct {
	*bytes.Reader
	src  *memSource
	path string
}

func (f *memFile) ReadAt(p []byte, off int64) (int, error) {
	if f.src.onRead != nil {
		f.src.onRead(f.path, off)
	}
	return f.Reader.ReadAt(p, off)
}

func (*memFile) Close() error { return nil }

// memSink keeps committed outputs in memory. Committing failCommit fails
// with a RenameFailure.
type memSink struct {
	files      map[string][]byte
	failCommit string
	aborted    []string
	mu         sync.Mutex
}

func newMemSink() *memSink {
	return &memSink{files: make(map[string][]byte)}
}

func (s *memSink) Create(path string, size int64) (Output, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[path]; ok {
		return nil, &IOError{Kind: DestinationExists, Path: path}
	}
	return &memOutput{sink: s, path: path, buf: make([]byte, size)}, nil
}

func (s *memSink) Remove(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, path)
	return nil
}

func (s *memSink) get(path string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.files[path]
	return b, ok
}

type memOutput struct {
	sink *memSink
	path string
	buf  []byte
	mu   sync.Mutex
}

func (o *memOutput) WriteAt(p []byte, off int64) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if end := off + int64(len(p)); end > int64(len(o.buf)) {
		o.buf = append(o.buf, make([]byte, end-int64(len(o.buf)))...)
	}
	copy(o.buf[off:], p)
	return len(p), nil
}

func (o *memOutput) Path() string { return o.path }

func (o *memOutput) Commit() error {
	o.sink.mu.Lock()
	defer o.sink.mu.Unlock()
	if o.path == o.sink.failCommit {
		return &IOError{Kind: RenameFailure, Path: o.path, Err: errNotFound}
	}
	o.sink.files[o.path] = o.buf
	return nil
}

func (o *memOutput) Abort() error {
	o.sink.mu.Lock()
	defer o.sink.mu.Unlock()
	o.sink.aborted = append(o.sink.aborted, o.path)
	return nil
}
