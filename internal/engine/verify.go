package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/bamsammich/cuemerge/internal/event"
	"github.com/bamsammich/cuemerge/internal/layout"
	"github.com/bamsammich/cuemerge/internal/stats"
)

// VerifyConfig controls the post-copy verification pass.
type VerifyConfig struct {
	Plan      *layout.Plan
	Source    Source   // source binaries
	Dest      Source   // committed destinations, read back
	Events    chan<- event.Event
	Stats     stats.Writer
	DestPaths []string // parallel to Plan.Destinations
	Workers   int
}

// VerifyResult holds the outcome of a verification pass.
type VerifyResult struct {
	Errors   []VerifyError
	Verified int64
	Failed   int64
	Skipped  int64 // extents never checked because the context ended
}

// Err summarizes the failures, or returns nil when every extent was
// checked and matched. A pass cut short by cancellation matches
// ErrCancelled.
func (r VerifyResult) Err() error {
	var failed, skipped error
	if len(r.Errors) > 0 {
		failed = fmt.Errorf("%d of %d tracks failed verification: %w",
			r.Failed, r.Failed+r.Verified, &r.Errors[0])
	}
	if r.Skipped > 0 {
		skipped = fmt.Errorf("verification incomplete, %d of %d tracks not checked: %w",
			r.Skipped, r.Skipped+r.Failed+r.Verified, ErrCancelled)
	}
	switch {
	case failed != nil && skipped != nil:
		return errors.Join(failed, skipped)
	case failed != nil:
		return failed
	default:
		return skipped
	}
}

// VerifyExtents re-reads every extent of the plan from its source and its
// destination and compares BLAKE3 digests.
func VerifyExtents(ctx context.Context, cfg VerifyConfig) VerifyResult {
	emitEvent(cfg.Events, event.Event{Type: event.VerifyStarted})

	if cfg.Source == nil {
		cfg.Source = LocalSource{}
	}
	if cfg.Dest == nil {
		cfg.Dest = LocalSource{}
	}
	if cfg.Stats == nil {
		cfg.Stats = stats.NewCollector()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers()
	}

	var (
		mu     sync.Mutex
		result VerifyResult
	)
	record := func(e layout.Extent, path string, verr *VerifyError) {
		mu.Lock()
		defer mu.Unlock()
		if verr == nil {
			result.Verified++
			cfg.Stats.AddTracksVerified(1)
			emitEvent(cfg.Events, event.Event{Type: event.VerifyOK, Track: e.Track, Path: path})
			return
		}
		result.Failed++
		result.Errors = append(result.Errors, *verr)
		cfg.Stats.AddTracksVerifyFailed(1)
		emitEvent(cfg.Events, event.Event{Type: event.VerifyFailed, Track: e.Track, Path: path, Error: verr})
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i, e := range cfg.Plan.Extents {
		if ctx.Err() != nil {
			result.Skipped = int64(len(cfg.Plan.Extents) - i)
			slog.Debug("verification stopped", "skipped", result.Skipped, "error", context.Cause(ctx))
			break
		}
		path := cfg.DestPaths[e.Dest]
		g.Go(func() error {
			record(e, path, verifyExtent(cfg, e, path))
			return nil
		})
	}
	_ = g.Wait()

	return result
}

func verifyExtent(cfg VerifyConfig, e layout.Extent, dstPath string) *VerifyError {
	srcHash, err := hashExtent(cfg.Source, e.Source, e.SourceOffset, e.Length)
	if err != nil {
		return &VerifyError{Track: e.Track, Path: dstPath, SrcHash: "error", DstHash: "n/a", Err: err}
	}
	dstHash, err := hashExtent(cfg.Dest, dstPath, e.DestOffset, e.Length)
	if err != nil {
		return &VerifyError{Track: e.Track, Path: dstPath, SrcHash: srcHash, DstHash: "error", Err: err}
	}
	if srcHash != dstHash {
		return &VerifyError{Track: e.Track, Path: dstPath, SrcHash: srcHash, DstHash: dstHash}
	}
	return nil
}

func hashExtent(s Source, path string, off, n int64) (string, error) {
	f, err := s.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return HashRange(f, off, n)
}
