package layout

import (
	"fmt"

	"github.com/bamsammich/cuemerge/internal/cue"
)

// Mode selects what a Plan lays out.
type Mode int

const (
	Merge Mode = iota + 1
	Split
)

func (m Mode) String() string {
	switch m {
	case Merge:
		return "merge"
	case Split:
		return "split"
	default:
		return "unknown"
	}
}

// Destination is one output binary.
type Destination struct {
	Track      int // owning track in split mode, 0 for the merged file
	Size       int64
	SectorSize int
	Type       cue.FileType
}

// Extent is a contiguous byte range copied from one source file into one
// destination. Extents never overlap in the destination.
type Extent struct {
	Source       string // absolute path of the source binary
	SourceFile   int    // index into Resolved.Files
	SourceOffset int64
	Length       int64
	Dest         int // index into Plan.Destinations
	DestOffset   int64
	Track        int
}

// Placement locates one INDEX in both the source and the destination.
type Placement struct {
	Track        int
	Index        int
	SourceFile   int
	SourceOffset int64
	Dest         int
	DestOffset   int64
	SectorSize   int
}

// Plan is the immutable byte layout of a merge or split run.
type Plan struct {
	Destinations []Destination
	Extents      []Extent
	Placements   []Placement
	Mode         Mode
}

// span is the byte range a track occupies inside its source file.
type span struct {
	track      *cue.Track
	start, end int64
}

// NewPlan computes the layout of r for the given mode.
func NewPlan(r *Resolved, mode Mode) (*Plan, error) {
	switch mode {
	case Merge:
		return planMerge(r)
	case Split:
		return planSplit(r)
	default:
		return nil, fmt.Errorf("layout: unknown mode %d", mode)
	}
}

func planMerge(r *Resolved) (*Plan, error) {
	p := &Plan{Mode: Merge}

	allWave := true
	var fileStart int64
	for fi, f := range r.Sheet.Files {
		info := r.Files[fi]
		if info.Type != cue.FileWave {
			allWave = false
		}
		spans, err := trackSpans(f, info)
		if err != nil {
			return nil, err
		}
		if fileStart%int64(info.SectorSize) != 0 {
			return nil, &LayoutError{
				Kind:  MisalignedOffset,
				Track: f.Tracks[0].Number,
				Detail: fmt.Sprintf("%s would start at byte %d, not a multiple of its sector size %d",
					f.Path, fileStart, info.SectorSize),
			}
		}

		for _, sp := range spans {
			p.Extents = append(p.Extents, Extent{
				Source:       info.AbsPath,
				SourceFile:   fi,
				SourceOffset: sp.start,
				Length:       sp.end - sp.start,
				Dest:         0,
				DestOffset:   fileStart + sp.start,
				Track:        sp.track.Number,
			})
			for _, idx := range sp.track.Indices {
				off := idx.Position.Bytes(info.SectorSize)
				p.Placements = append(p.Placements, Placement{
					Track:        sp.track.Number,
					Index:        idx.Number,
					SourceFile:   fi,
					SourceOffset: off,
					Dest:         0,
					DestOffset:   fileStart + off,
					SectorSize:   info.SectorSize,
				})
			}
		}
		fileStart += info.Size
	}

	typ := cue.FileBinary
	if allWave {
		typ = cue.FileWave
	}
	p.Destinations = []Destination{{
		Size:       fileStart,
		SectorSize: r.Files[0].SectorSize,
		Type:       typ,
	}}

	if err := p.checkAlignment(); err != nil {
		return nil, err
	}
	return p, nil
}

func planSplit(r *Resolved) (*Plan, error) {
	if n := len(r.Sheet.Files); n != 1 {
		return nil, &LayoutError{
			Kind:   AmbiguousSplitSource,
			Detail: fmt.Sprintf("split needs exactly one FILE, sheet has %d", n),
		}
	}

	f := r.Sheet.Files[0]
	info := r.Files[0]
	spans, err := trackSpans(f, info)
	if err != nil {
		return nil, err
	}

	p := &Plan{Mode: Split}
	for di, sp := range spans {
		p.Destinations = append(p.Destinations, Destination{
			Track:      sp.track.Number,
			Size:       sp.end - sp.start,
			SectorSize: info.SectorSize,
			Type:       info.Type,
		})
		p.Extents = append(p.Extents, Extent{
			Source:       info.AbsPath,
			SourceFile:   0,
			SourceOffset: sp.start,
			Length:       sp.end - sp.start,
			Dest:         di,
			DestOffset:   0,
			Track:        sp.track.Number,
		})
		for _, idx := range sp.track.Indices {
			off := idx.Position.Bytes(info.SectorSize)
			p.Placements = append(p.Placements, Placement{
				Track:        sp.track.Number,
				Index:        idx.Number,
				SourceFile:   0,
				SourceOffset: off,
				Dest:         di,
				DestOffset:   off - sp.start,
				SectorSize:   info.SectorSize,
			})
		}
	}

	if err := p.checkAlignment(); err != nil {
		return nil, err
	}
	return p, nil
}

// trackSpans divides a source file among its tracks. A track runs from its
// first index (INDEX 00 when it has a pregap) to the first index of the
// next track; the first track also owns any lead-in before its first index
// and the last track runs to the end of the file.
func trackSpans(f *cue.File, info FileInfo) ([]span, error) {
	spans := make([]span, len(f.Tracks))
	for i, t := range f.Tracks {
		if err := checkIndexOrder(t); err != nil {
			return nil, err
		}

		start := t.First().Position.Bytes(info.SectorSize)
		if i == 0 {
			start = 0
		}
		end := info.Size
		if i+1 < len(f.Tracks) {
			end = f.Tracks[i+1].First().Position.Bytes(info.SectorSize)
		}

		switch {
		case end < start:
			return nil, &LayoutError{
				Kind:   IndexOutOfOrder,
				Track:  t.Number,
				Detail: fmt.Sprintf("next track starts before this one in %s", f.Path),
			}
		case end == start:
			return nil, &LayoutError{
				Kind:   EmptyTrack,
				Track:  t.Number,
				Detail: fmt.Sprintf("no data after index %02d in %s", t.First().Number, f.Path),
			}
		}
		spans[i] = span{track: t, start: start, end: end}
	}
	return spans, nil
}

func checkIndexOrder(t *cue.Track) error {
	for i := 1; i < len(t.Indices); i++ {
		if t.Indices[i].Position < t.Indices[i-1].Position {
			return &LayoutError{
				Kind:  IndexOutOfOrder,
				Track: t.Number,
				Detail: fmt.Sprintf("index %02d at %s precedes index %02d at %s",
					t.Indices[i].Number, t.Indices[i].Position,
					t.Indices[i-1].Number, t.Indices[i-1].Position),
			}
		}
	}
	return nil
}

func (p *Plan) checkAlignment() error {
	for _, pl := range p.Placements {
		if pl.DestOffset%int64(pl.SectorSize) != 0 {
			return &LayoutError{
				Kind:  MisalignedOffset,
				Track: pl.Track,
				Detail: fmt.Sprintf("index %02d lands at byte %d, not a multiple of %d",
					pl.Index, pl.DestOffset, pl.SectorSize),
			}
		}
	}
	return nil
}

// Lookup returns the placement of the given track and index.
func (p *Plan) Lookup(track, index int) (Placement, bool) {
	for _, pl := range p.Placements {
		if pl.Track == track && pl.Index == index {
			return pl, true
		}
	}
	return Placement{}, false
}

// TotalBytes returns the number of bytes the plan writes.
func (p *Plan) TotalBytes() int64 {
	var n int64
	for _, e := range p.Extents {
		n += e.Length
	}
	return n
}

// TrackLength returns the number of bytes assigned to a track.
func (p *Plan) TrackLength(track int) int64 {
	var n int64
	for _, e := range p.Extents {
		if e.Track == track {
			n += e.Length
		}
	}
	return n
}

// ExtentsFor returns the extents written into destination d.
func (p *Plan) ExtentsFor(d int) []Extent {
	var out []Extent
	for _, e := range p.Extents {
		if e.Dest == d {
			out = append(out, e)
		}
	}
	return out
}
