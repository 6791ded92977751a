package engine

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/bamsammich/cuemerge/internal/cue"
	"github.com/bamsammich/cuemerge/internal/event"
	"github.com/bamsammich/cuemerge/internal/layout"
)

// mergedSheet builds the single-FILE sheet for a merge. The source sheet
// is not modified.
func mergedSheet(src *cue.Sheet, p *layout.Plan, binName string) (*cue.Sheet, error) {
	f := &cue.File{Path: binName, Type: p.Destinations[0].Type}
	for _, sf := range src.Files {
		f.Meta = append(f.Meta, sf.Meta...)
	}
	for _, t := range src.Tracks() {
		nt, err := placeTrack(t, p)
		if err != nil {
			return nil, err
		}
		f.Tracks = append(f.Tracks, nt)
	}
	return &cue.Sheet{Meta: slices.Clone(src.Meta), Files: []*cue.File{f}}, nil
}

// splitSheet builds one FILE per track; names is parallel to
// p.Destinations.
func splitSheet(src *cue.Sheet, p *layout.Plan, names []string) (*cue.Sheet, error) {
	sf := src.Files[0]
	out := &cue.Sheet{Meta: slices.Clone(src.Meta)}
	for i, t := range sf.Tracks {
		nt, err := placeTrack(t, p)
		if err != nil {
			return nil, err
		}
		f := &cue.File{
			Path:    names[i],
			Type:    p.Destinations[i].Type,
			RawType: sf.RawType,
			Tracks:  []*cue.Track{nt},
		}
		if i == 0 {
			f.Meta = slices.Clone(sf.Meta)
		}
		out.Files = append(out.Files, f)
	}
	return out, nil
}

// placeTrack copies t with every index moved to its planned destination
// offset.
func placeTrack(t *cue.Track, p *layout.Plan) (*cue.Track, error) {
	nt := t.Clone()
	for i, idx := range nt.Indices {
		pl, ok := p.Lookup(t.Number, idx.Number)
		if !ok {
			return nil, fmt.Errorf("track %02d index %02d: not in plan", t.Number, idx.Number)
		}
		pos, err := cue.MSFFromBytes(pl.DestOffset, pl.SectorSize)
		if err != nil {
			return nil, fmt.Errorf("track %02d index %02d: %w", t.Number, idx.Number, err)
		}
		nt.Indices[i].Position = pos
	}
	return nt, nil
}

// writeSheet formats s and commits it to path through sink.
func writeSheet(sink Sink, path string, s *cue.Sheet, lineEnding string, events chan<- event.Event) error {
	var buf bytes.Buffer
	if err := cue.Format(&buf, s, cue.FormatOptions{LineEnding: lineEnding}); err != nil {
		return fmt.Errorf("format cue sheet: %w", err)
	}

	out, err := sink.Create(path, int64(buf.Len()))
	if err != nil {
		return err
	}
	if _, err := out.WriteAt(buf.Bytes(), 0); err != nil {
		_ = out.Abort()
		return &IOError{Kind: WriteFailure, Path: path, Err: err}
	}
	if err := out.Commit(); err != nil {
		return err
	}

	emitEvent(events, event.Event{Type: event.CueWritten, Path: path, Size: int64(buf.Len())})
	return nil
}
