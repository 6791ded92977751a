package layout

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/cuemerge/internal/cue"
)

const sector = 2352

func writeSectors(t *testing.T, dir, name string, sectors int) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), make([]byte, sectors*sector), 0o644))
}

func mustParse(t *testing.T, text string) *cue.Sheet {
	t.Helper()
	s, err := cue.Parse(text)
	require.NoError(t, err)
	return s
}

const twoTrackSheet = `FILE "t1.bin" BINARY
  TRACK 01 MODE1/2352
    INDEX 01 00:00:00
FILE "t2.bin" BINARY
  TRACK 02 AUDIO
    INDEX 00 00:00:00
    INDEX 01 00:02:00
`

func twoTrackDisc(t *testing.T) *Resolved {
	t.Helper()
	dir := t.TempDir()
	writeSectors(t, dir, "t1.bin", 10)
	writeSectors(t, dir, "t2.bin", 20)

	r, err := Resolve(mustParse(t, twoTrackSheet), dir, nil)
	require.NoError(t, err)
	return r
}

func TestResolve(t *testing.T) {
	r := twoTrackDisc(t)

	require.Len(t, r.Files, 2)
	assert.Equal(t, int64(10*sector), r.Files[0].Size)
	assert.Equal(t, int64(20), r.Files[1].Sectors())
	assert.Equal(t, sector, r.Files[1].SectorSize)
	assert.Equal(t, filepath.Join(r.BaseDir, "t2.bin"), r.Files[1].AbsPath)
}

func TestResolve_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		sheet string
		files map[string]int64
		kind  ValidationKind
	}{
		{
			name:  "missing file",
			sheet: "FILE \"gone.bin\" BINARY\n TRACK 01 AUDIO\n INDEX 01 00:00:00\n",
			kind:  MissingFile,
		},
		{
			name:  "size not a multiple of the sector size",
			sheet: "FILE \"a.bin\" BINARY\n TRACK 01 AUDIO\n INDEX 01 00:00:00\n",
			files: map[string]int64{"a.bin": 2353},
			kind:  MisalignedSize,
		},
		{
			name: "mixed sector sizes in one file",
			sheet: "FILE \"a.bin\" BINARY\n TRACK 01 MODE1/2048\n INDEX 01 00:00:00\n" +
				" TRACK 02 AUDIO\n INDEX 01 00:01:00\n",
			files: map[string]int64{"a.bin": 2048 * 2352},
			kind:  MixedSectorSizes,
		},
		{
			name:  "unsupported file type",
			sheet: "FILE \"a.mp3\" MP3\n TRACK 01 AUDIO\n INDEX 01 00:00:00\n",
			files: map[string]int64{"a.mp3": sector},
			kind:  UnsupportedFileType,
		},
		{
			name:  "unsupported track type",
			sheet: "FILE \"a.bin\" BINARY\n TRACK 01 MODE9/1234\n INDEX 01 00:00:00\n",
			files: map[string]int64{"a.bin": sector},
			kind:  UnsupportedTrackType,
		},
		{
			name:  "track starts beyond end of file",
			sheet: "FILE \"a.bin\" BINARY\n TRACK 01 AUDIO\n INDEX 01 00:01:00\n",
			files: map[string]int64{"a.bin": 10 * sector},
			kind:  IndexOutOfRange,
		},
		{
			name: "later track starts beyond end of file",
			sheet: "FILE \"a.bin\" BINARY\n TRACK 01 AUDIO\n INDEX 01 00:00:00\n" +
				" TRACK 02 AUDIO\n INDEX 00 00:00:11\n INDEX 01 00:00:12\n",
			files: map[string]int64{"a.bin": 10 * sector},
			kind:  IndexOutOfRange,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, size := range tt.files {
				require.NoError(t, os.WriteFile(filepath.Join(dir, name), make([]byte, size), 0o644))
			}

			_, err := Resolve(mustParse(t, tt.sheet), dir, nil)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.kind, verr.Kind)
		})
	}
}

func TestResolve_CustomTable(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.bin"), make([]byte, 4*100), 0o644))

	table := cue.SectorTable{"AUDIO": 100}
	r, err := Resolve(mustParse(t, "FILE \"a.bin\" BINARY\n TRACK 01 AUDIO\n INDEX 01 00:00:00\n"), dir, table)
	require.NoError(t, err)
	assert.Equal(t, 100, r.Files[0].SectorSize)
	assert.Equal(t, int64(4), r.Files[0].Sectors())
}

func TestNewPlan_Merge(t *testing.T) {
	p, err := NewPlan(twoTrackDisc(t), Merge)
	require.NoError(t, err)

	require.Len(t, p.Destinations, 1)
	assert.Equal(t, int64(30*sector), p.Destinations[0].Size)
	assert.Equal(t, cue.FileBinary, p.Destinations[0].Type)
	assert.Equal(t, int64(30*sector), p.TotalBytes())

	pl, ok := p.Lookup(2, 1)
	require.True(t, ok)
	assert.Equal(t, int64(10*sector+2*75*sector), pl.DestOffset)
	assert.Equal(t, int64(2*75*sector), pl.SourceOffset)

	pl, ok = p.Lookup(2, 0)
	require.True(t, ok)
	assert.Equal(t, int64(10*sector), pl.DestOffset)

	_, ok = p.Lookup(3, 1)
	assert.False(t, ok)

	require.Len(t, p.Extents, 2)
	assert.Equal(t, int64(0), p.Extents[0].DestOffset)
	assert.Equal(t, int64(10*sector), p.Extents[1].DestOffset)
	assert.Equal(t, int64(20*sector), p.TrackLength(2))
}

func TestNewPlan_IndexPastTrackEnd(t *testing.T) {
	dir := t.TempDir()
	writeSectors(t, dir, "disc.bin", 30)
	s := mustParse(t, `FILE "disc.bin" BINARY
  TRACK 01 MODE1/2352
    INDEX 01 00:00:00
  TRACK 02 AUDIO
    INDEX 00 00:00:10
    INDEX 01 00:02:10
`)
	r, err := Resolve(s, dir, nil)
	require.NoError(t, err)

	p, err := NewPlan(r, Split)
	require.NoError(t, err)
	require.Len(t, p.Destinations, 2)
	assert.Equal(t, int64(10*sector), p.Destinations[0].Size)
	assert.Equal(t, int64(20*sector), p.Destinations[1].Size)

	pl, ok := p.Lookup(2, 1)
	require.True(t, ok)
	assert.Equal(t, int64(150*sector), pl.DestOffset)
	assert.Greater(t, pl.DestOffset, p.Destinations[1].Size)

	p, err = NewPlan(r, Merge)
	require.NoError(t, err)
	assert.Equal(t, int64(30*sector), p.TotalBytes())
	pl, _ = p.Lookup(2, 1)
	assert.Equal(t, int64(160*sector), pl.DestOffset)
}

func TestNewPlan_MergeAllWave(t *testing.T) {
	dir := t.TempDir()
	writeSectors(t, dir, "a.wav", 2)
	writeSectors(t, dir, "b.wav", 3)
	s := mustParse(t, "FILE \"a.wav\" WAVE\n TRACK 01 AUDIO\n INDEX 01 00:00:00\n"+
		"FILE \"b.wav\" WAVE\n TRACK 02 AUDIO\n INDEX 01 00:00:00\n")
	r, err := Resolve(s, dir, nil)
	require.NoError(t, err)

	p, err := NewPlan(r, Merge)
	require.NoError(t, err)
	assert.Equal(t, cue.FileWave, p.Destinations[0].Type)
}

func TestNewPlan_Split(t *testing.T) {
	dir := t.TempDir()
	writeSectors(t, dir, "disc.bin", 200)
	s := mustParse(t, `FILE "disc.bin" BINARY
  TRACK 01 MODE1/2352
    INDEX 01 00:00:00
  TRACK 02 AUDIO
    INDEX 00 00:00:10
    INDEX 01 00:02:10
`)
	r, err := Resolve(s, dir, nil)
	require.NoError(t, err)

	p, err := NewPlan(r, Split)
	require.NoError(t, err)

	require.Len(t, p.Destinations, 2)
	assert.Equal(t, int64(10*sector), p.Destinations[0].Size)
	assert.Equal(t, int64(190*sector), p.Destinations[1].Size)
	assert.Equal(t, 2, p.Destinations[1].Track)

	// Pregap stays with its own track.
	pl, ok := p.Lookup(2, 0)
	require.True(t, ok)
	assert.Equal(t, 1, pl.Dest)
	assert.Equal(t, int64(0), pl.DestOffset)

	pl, ok = p.Lookup(2, 1)
	require.True(t, ok)
	assert.Equal(t, int64(150*sector), pl.DestOffset)

	var total int64
	for _, d := range p.Destinations {
		total += d.Size
	}
	assert.Equal(t, r.Files[0].Size, total)
	assert.Len(t, p.ExtentsFor(1), 1)
}

func TestNewPlan_SplitKeepsLeadIn(t *testing.T) {
	dir := t.TempDir()
	writeSectors(t, dir, "disc.bin", 200)
	s := mustParse(t, "FILE \"disc.bin\" BINARY\n TRACK 01 AUDIO\n INDEX 01 00:02:00\n")
	r, err := Resolve(s, dir, nil)
	require.NoError(t, err)

	p, err := NewPlan(r, Split)
	require.NoError(t, err)
	assert.Equal(t, int64(200*sector), p.Destinations[0].Size)

	pl, _ := p.Lookup(1, 1)
	assert.Equal(t, int64(150*sector), pl.DestOffset)
}

func TestNewPlan_SplitAmbiguousSource(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"a.bin", "b.bin", "c.bin"} {
		writeSectors(t, dir, n, 5)
	}
	s := mustParse(t, "FILE \"a.bin\" BINARY\n TRACK 01 AUDIO\n INDEX 01 00:00:00\n"+
		"FILE \"b.bin\" BINARY\n TRACK 02 AUDIO\n INDEX 01 00:00:00\n"+
		"FILE \"c.bin\" BINARY\n TRACK 03 AUDIO\n INDEX 01 00:00:00\n")
	r, err := Resolve(s, dir, nil)
	require.NoError(t, err)

	_, err = NewPlan(r, Split)
	var lerr *LayoutError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, AmbiguousSplitSource, lerr.Kind)

	_, err = NewPlan(r, Merge)
	assert.NoError(t, err)
}

func TestNewPlan_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		sheet   string
		sectors int
		kind    LayoutKind
		track   int
	}{
		{
			name: "two tracks at the same position",
			sheet: "FILE \"a.bin\" BINARY\n TRACK 01 AUDIO\n INDEX 01 00:00:00\n" +
				" TRACK 02 AUDIO\n INDEX 01 00:00:05\n TRACK 03 AUDIO\n INDEX 01 00:00:05\n",
			sectors: 10,
			kind:    EmptyTrack,
			track:   2,
		},
		{
			name:    "last track starts at end of file",
			sheet:   "FILE \"a.bin\" BINARY\n TRACK 01 AUDIO\n INDEX 01 00:00:00\n TRACK 02 AUDIO\n INDEX 01 00:00:10\n",
			sectors: 10,
			kind:    EmptyTrack,
			track:   2,
		},
		{
			name: "next track starts before this one",
			sheet: "FILE \"a.bin\" BINARY\n TRACK 01 AUDIO\n INDEX 01 00:00:00\n" +
				" TRACK 02 AUDIO\n INDEX 01 00:00:08\n TRACK 03 AUDIO\n INDEX 01 00:00:04\n",
			sectors: 10,
			kind:    IndexOutOfOrder,
			track:   2,
		},
		{
			name:    "index positions decrease",
			sheet:   "FILE \"a.bin\" BINARY\n TRACK 01 AUDIO\n INDEX 00 00:00:05\n INDEX 01 00:00:02\n",
			sectors: 10,
			kind:    IndexOutOfOrder,
			track:   1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeSectors(t, dir, "a.bin", tt.sectors)
			r, err := Resolve(mustParse(t, tt.sheet), dir, nil)
			require.NoError(t, err)

			_, err = NewPlan(r, Split)
			var lerr *LayoutError
			require.ErrorAs(t, err, &lerr)
			assert.Equal(t, tt.kind, lerr.Kind)
			assert.Equal(t, tt.track, lerr.Track)
		})
	}
}

func TestNewPlan_MisalignedMergeOffset(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.bin"), make([]byte, 3*2048), 0o644))
	writeSectors(t, dir, "b.bin", 2)
	s := mustParse(t, "FILE \"a.bin\" BINARY\n TRACK 01 MODE1/2048\n INDEX 01 00:00:00\n"+
		"FILE \"b.bin\" BINARY\n TRACK 02 AUDIO\n INDEX 01 00:00:00\n")
	r, err := Resolve(s, dir, nil)
	require.NoError(t, err)

	_, err = NewPlan(r, Merge)
	var lerr *LayoutError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, MisalignedOffset, lerr.Kind)
	assert.Equal(t, 2, lerr.Track)
}

func TestPlan_Monotonic(t *testing.T) {
	p, err := NewPlan(twoTrackDisc(t), Merge)
	require.NoError(t, err)

	for i := 1; i < len(p.Placements); i++ {
		prev, cur := p.Placements[i-1], p.Placements[i]
		if prev.Dest == cur.Dest {
			assert.LessOrEqual(t, prev.DestOffset, cur.DestOffset)
		}
	}
	for _, pl := range p.Placements {
		assert.Zero(t, pl.DestOffset%int64(pl.SectorSize))
	}
}

func TestKindStrings(t *testing.T) {
	assert.Equal(t, "MissingFile", MissingFile.String())
	assert.Equal(t, "Unknown", ValidationKind(0).String())
	assert.Equal(t, "EmptyTrack", EmptyTrack.String())
	assert.Equal(t, "merge", Merge.String())
	assert.Equal(t, "split", Split.String())
}
