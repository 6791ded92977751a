package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bamsammich/cuemerge/internal/cue"
	"github.com/bamsammich/cuemerge/internal/layout"
)

// Naming selects how split track files are numbered.
type Naming int

const (
	// NamingRedump writes "Track 1" for discs with at most nine tracks and
	// "Track 01" otherwise.
	NamingRedump Naming = iota
	// NamingPadded always writes two digits.
	NamingPadded
)

func (n Naming) String() string {
	switch n {
	case NamingRedump:
		return "redump"
	case NamingPadded:
		return "padded"
	default:
		return "unknown"
	}
}

// ParseNaming parses a naming style name.
func ParseNaming(s string) (Naming, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "redump":
		return NamingRedump, nil
	case "padded":
		return NamingPadded, nil
	default:
		return 0, fmt.Errorf("unknown naming style %q (want redump or padded)", s)
	}
}

// FileName returns the file name of track n of count.
func (n Naming) FileName(stem string, track, count int, ext string) string {
	if n == NamingPadded || count > 9 {
		return fmt.Sprintf("%s (Track %02d)%s", stem, track, ext)
	}
	return fmt.Sprintf("%s (Track %d)%s", stem, track, ext)
}

// TrackFileName names a split track file the redump way.
func TrackFileName(stem string, track, count int, ext string) string {
	return NamingRedump.FileName(stem, track, count, ext)
}

// SplitOptions configures Split.
type SplitOptions struct {
	CopyOptions
	Dir    string // destination directory
	Stem   string
	Naming Naming
}

// Split writes one binary per track into opts.Dir and returns the
// multi-FILE sheet describing them. Track files are renamed into place
// only after every copy succeeded; if a rename fails, files already
// renamed are removed again.
func Split(ctx context.Context, r *layout.Resolved, p *layout.Plan, opts SplitOptions) (*cue.Sheet, error) {
	if p.Mode != layout.Split {
		return nil, fmt.Errorf("split: plan is for %s", p.Mode)
	}
	opts.CopyOptions = opts.CopyOptions.withDefaults()

	count := len(p.Destinations)
	names := make([]string, count)
	for i, d := range p.Destinations {
		names[i] = opts.Naming.FileName(opts.Stem, d.Track, count, d.Type.Extension())
	}

	outputs := make([]Output, 0, count)
	abortAll := func() {
		for _, o := range outputs {
			_ = o.Abort()
		}
	}
	for i, d := range p.Destinations {
		o, err := opts.Sink.Create(filepath.Join(opts.Dir, names[i]), d.Size)
		if err != nil {
			abortAll()
			return nil, err
		}
		outputs = append(outputs, o)
	}
	announcePlan(opts.CopyOptions, p, count)

	if err := copyExtents(ctx, opts.CopyOptions, p.Extents, outputs); err != nil {
		abortAll()
		return nil, err
	}

	sheet, err := splitSheet(r.Sheet, p, names)
	if err != nil {
		abortAll()
		return nil, err
	}

	for i, o := range outputs {
		if err := o.Commit(); err != nil {
			for _, done := range outputs[:i] {
				_ = opts.Sink.Remove(done.Path())
			}
			for _, rest := range outputs[i+1:] {
				_ = rest.Abort()
			}
			return nil, err
		}
	}
	return sheet, nil
}
