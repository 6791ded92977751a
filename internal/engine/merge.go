package engine

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/bamsammich/cuemerge/internal/cue"
	"github.com/bamsammich/cuemerge/internal/layout"
)

// MergeOptions configures Merge.
type MergeOptions struct {
	CopyOptions
	BinPath string // destination binary
}

// Merge concatenates every source binary of r into opts.BinPath following
// the plan, and returns the rewritten single-FILE sheet. The binary only
// appears at BinPath once every extent has been copied.
func Merge(ctx context.Context, r *layout.Resolved, p *layout.Plan, opts MergeOptions) (*cue.Sheet, error) {
	if p.Mode != layout.Merge {
		return nil, fmt.Errorf("merge: plan is for %s", p.Mode)
	}
	opts.CopyOptions = opts.CopyOptions.withDefaults()

	out, err := opts.Sink.Create(opts.BinPath, p.Destinations[0].Size)
	if err != nil {
		return nil, err
	}
	announcePlan(opts.CopyOptions, p, r.Sheet.TrackCount())

	if err := copyExtents(ctx, opts.CopyOptions, p.Extents, []Output{out}); err != nil {
		_ = out.Abort()
		return nil, err
	}

	sheet, err := mergedSheet(r.Sheet, p, filepath.Base(opts.BinPath))
	if err != nil {
		_ = out.Abort()
		return nil, err
	}
	if err := out.Commit(); err != nil {
		return nil, err
	}
	return sheet, nil
}
