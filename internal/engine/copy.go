package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/bamsammich/cuemerge/internal/event"
	"github.com/bamsammich/cuemerge/internal/layout"
	"github.com/bamsammich/cuemerge/internal/platform"
	"github.com/bamsammich/cuemerge/internal/stats"
)

const bufferSize = 1 << 20 // 1 MiB

var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, bufferSize)
		return &b
	},
}

// DefaultWorkers is the number of concurrent extent copies used when none
// is configured.
func DefaultWorkers() int {
	return min(runtime.NumCPU()*2, 8)
}

// CopyOptions controls how extents are copied. Zero values select the
// local filesystem, DefaultWorkers and no rate limit.
type CopyOptions struct {
	Source  Source
	Sink    Sink
	Limiter *rate.Limiter
	Events  chan<- event.Event
	Stats   stats.Writer
	Workers int
}

func (o CopyOptions) withDefaults() CopyOptions {
	if o.Source == nil {
		o.Source = LocalSource{}
	}
	if o.Sink == nil {
		o.Sink = LocalSink{}
	}
	if o.Stats == nil {
		o.Stats = stats.NewCollector()
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers()
	}
	return o
}

func announcePlan(opts CopyOptions, p *layout.Plan, tracks int) {
	opts.Stats.SetTotals(int64(tracks), p.TotalBytes())
	emitEvent(opts.Events, event.Event{
		Type:      event.PlanReady,
		Total:     int64(tracks),
		TotalSize: p.TotalBytes(),
	})
}

// copyExtents copies every extent into outputs[e.Dest]. Each destination
// range has exactly one writer. If ctx ends, ErrCancelled is returned even
// when every copy already finished.
func copyExtents(ctx context.Context, opts CopyOptions, extents []layout.Extent, outputs []Output) error {
	srcs := make(map[string]SourceFile)
	defer func() {
		for _, f := range srcs {
			_ = f.Close()
		}
	}()
	for _, e := range extents {
		if _, ok := srcs[e.Source]; ok {
			continue
		}
		f, err := opts.Source.Open(e.Source)
		if err != nil {
			return err
		}
		srcs[e.Source] = f
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, e := range extents {
		if gctx.Err() != nil {
			break
		}
		worker := i % opts.Workers
		g.Go(func() error {
			return copyExtent(gctx, opts, e, srcs[e.Source], outputs[e.Dest], worker)
		})
	}
	err := g.Wait()

	if ctx.Err() != nil {
		return fmt.Errorf("%w: %w", ErrCancelled, context.Cause(ctx))
	}
	return err
}

func copyExtent(ctx context.Context, opts CopyOptions, e layout.Extent, src SourceFile, out Output, worker int) error {
	emitEvent(opts.Events, event.Event{
		Type:     event.TrackStarted,
		Track:    e.Track,
		Path:     out.Path(),
		Size:     e.Length,
		WorkerID: worker,
	})

	chunk := chunkSize(opts.Limiter)
	var done int64
	for done < e.Length {
		if err := ctx.Err(); err != nil {
			return err
		}

		n := min(chunk, e.Length-done)
		if opts.Limiter != nil {
			if err := opts.Limiter.WaitN(ctx, int(n)); err != nil {
				return err
			}
		}

		if err := copyChunk(src, out, e.Source, e.SourceOffset+done, e.DestOffset+done, n); err != nil {
			opts.Stats.AddTracksFailed(1)
			emitEvent(opts.Events, event.Event{
				Type:     event.TrackFailed,
				Track:    e.Track,
				Path:     out.Path(),
				Error:    err,
				WorkerID: worker,
			})
			return err
		}

		done += n
		opts.Stats.AddBytesCopied(n)
		emitEvent(opts.Events, event.Event{
			Type:     event.TrackProgress,
			Track:    e.Track,
			Path:     out.Path(),
			Size:     done,
			WorkerID: worker,
		})
	}

	opts.Stats.AddTracksCopied(1)
	emitEvent(opts.Events, event.Event{
		Type:     event.TrackCompleted,
		Track:    e.Track,
		Path:     out.Path(),
		Size:     e.Length,
		WorkerID: worker,
	})
	return nil
}

// copyChunk copies n bytes, using a kernel range copy when both ends are
// local files.
func copyChunk(src SourceFile, out Output, srcPath string, srcOff, dstOff, n int64) error {
	if sf, ok := src.(*os.File); ok {
		if fb, ok := out.(fileBacked); ok {
			_, err := platform.CopyRange(platform.CopyRangeParams{
				Src:       sf,
				Dst:       fb.File(),
				SrcOffset: srcOff,
				DstOffset: dstOff,
				Length:    n,
			})
			switch {
			case err == nil:
				return nil
			case platform.ErrShortSource(err):
				return &IOError{Kind: ReadFailure, Path: srcPath, Err: err}
			default:
				return &IOError{Kind: WriteFailure, Path: out.Path(), Err: err}
			}
		}
	}
	return copyBuffered(src, out, srcPath, srcOff, dstOff, n)
}

func copyBuffered(src io.ReaderAt, out Output, srcPath string, srcOff, dstOff, n int64) error {
	bufp := bufPool.Get().(*[]byte)
	defer bufPool.Put(bufp)

	for n > 0 {
		buf := (*bufp)[:min(n, bufferSize)]

		r, err := src.ReadAt(buf, srcOff)
		if r < len(buf) {
			if err == nil || errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return &IOError{Kind: ReadFailure, Path: srcPath, Err: err}
		}
		if _, err := out.WriteAt(buf, dstOff); err != nil {
			return &IOError{Kind: WriteFailure, Path: out.Path(), Err: err}
		}

		srcOff += int64(len(buf))
		dstOff += int64(len(buf))
		n -= int64(len(buf))
	}
	return nil
}

func emitEvent(ch chan<- event.Event, e event.Event) {
	if ch == nil {
		return
	}
	e.Timestamp = time.Now()
	select {
	case ch <- e:
	default:
	}
}
