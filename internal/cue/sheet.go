// Package cue models CUE sheets: the text metadata that describes the
// track and index layout of a CUE/BIN disc image.
package cue

// Sheet is a parsed cue sheet. Files are kept in declaration order, which
// is also the physical concatenation order of the image.
type Sheet struct {
	Meta  []string // verbatim statements before the first FILE
	Files []*File
}

// File is one FILE statement and the tracks declared under it.
type File struct {
	Path    string
	RawType string
	Meta    []string // verbatim statements between FILE and the first TRACK
	Tracks  []*Track
	Type    FileType
}

// Track is one TRACK block.
type Track struct {
	Type    string
	Meta    []string // statements before the first INDEX (TITLE, FLAGS, ISRC, ...)
	Post    []string // statements after an INDEX (POSTGAP, REM, ...)
	Indices []Index
	Number  int
}

// Index is one INDEX statement. Position is relative to the start of the
// track's file.
type Index struct {
	Number   int
	Position MSF
}

// First returns the first declared index of the track (INDEX 00 when the
// track has a pregap, INDEX 01 otherwise).
func (t *Track) First() Index {
	return t.Indices[0]
}

// Index returns the index with the given number.
func (t *Track) Index(n int) (Index, bool) {
	for _, idx := range t.Indices {
		if idx.Number == n {
			return idx, true
		}
	}
	return Index{}, false
}

// Tracks returns all tracks of the sheet in declaration order.
func (s *Sheet) Tracks() []*Track {
	var out []*Track
	for _, f := range s.Files {
		out = append(out, f.Tracks...)
	}
	return out
}

// TrackCount returns the number of tracks across all files.
func (s *Sheet) TrackCount() int {
	n := 0
	for _, f := range s.Files {
		n += len(f.Tracks)
	}
	return n
}

// Clone returns a deep copy of the sheet.
func (s *Sheet) Clone() *Sheet {
	out := &Sheet{Meta: cloneLines(s.Meta)}
	for _, f := range s.Files {
		nf := &File{
			Path:    f.Path,
			RawType: f.RawType,
			Type:    f.Type,
			Meta:    cloneLines(f.Meta),
		}
		for _, t := range f.Tracks {
			nf.Tracks = append(nf.Tracks, t.Clone())
		}
		out.Files = append(out.Files, nf)
	}
	return out
}

// Clone returns a deep copy of the track.
func (t *Track) Clone() *Track {
	return &Track{
		Number:  t.Number,
		Type:    t.Type,
		Meta:    cloneLines(t.Meta),
		Post:    cloneLines(t.Post),
		Indices: append([]Index(nil), t.Indices...),
	}
}

func cloneLines(lines []string) []string {
	if lines == nil {
		return nil
	}
	return append([]string(nil), lines...)
}
