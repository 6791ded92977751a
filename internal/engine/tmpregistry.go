package engine

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"sync"
)

// tmpFiles holds every temp output not yet committed or aborted, so an
// interrupted run can remove them before the process exits.
var tmpFiles tmpSet

type tmpSet struct {
	mu    sync.Mutex
	paths map[string]struct{}
}

func (s *tmpSet) add(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paths == nil {
		s.paths = make(map[string]struct{})
	}
	s.paths[path] = struct{}{}
}

func (s *tmpSet) remove(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.paths, path)
}

func (s *tmpSet) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.paths)
}

// drain empties the set and returns what it held.
func (s *tmpSet) drain() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.paths))
	for p := range s.paths {
		out = append(out, p)
	}
	s.paths = nil
	return out
}

// RegisterTmp records a temp output path.
func RegisterTmp(path string) { tmpFiles.add(path) }

// DeregisterTmp forgets a temp output that was renamed or removed.
func DeregisterTmp(path string) { tmpFiles.remove(path) }

// PendingTmp returns the number of temp outputs still on disk.
func PendingTmp() int { return tmpFiles.len() }

// CleanupTmpFiles removes every registered temp output.
func CleanupTmpFiles() {
	for _, p := range tmpFiles.drain() {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("remove temp output", "path", p, "error", err)
			continue
		}
		slog.Debug("removed temp output", "path", p)
	}
}
