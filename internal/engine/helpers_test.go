package engine

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bamsammich/cuemerge/internal/cue"
	"github.com/bamsammich/cuemerge/internal/layout"
)

const sector = 2352

var errNotFound = errors.New("not found")

// pattern returns n bytes that differ between seeds and positions.
func pattern(n int, seed byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i*7) ^ seed
	}
	return b
}

const twoTrackCue = `REM GENRE Platformer
TITLE "Test Disc"
FILE "t1.bin" BINARY
  TRACK 01 MODE1/2352
    INDEX 01 00:00:00
FILE "t2.bin" BINARY
  TRACK 02 AUDIO
    FLAGS DCP
    INDEX 00 00:00:00
    INDEX 01 00:02:00
`

// writeTwoTrackDisc lays out a redump-style two-file image in dir and
// returns the cue path and the contents of both binaries.
func writeTwoTrackDisc(t *testing.T, dir string) (string, []byte, []byte) {
	t.Helper()
	t1 := pattern(10*sector, 0x11)
	t2 := pattern(20*sector, 0x5a)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "t1.bin"), t1, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "t2.bin"), t2, 0o644))

	cuePath := filepath.Join(dir, "game.cue")
	require.NoError(t, os.WriteFile(cuePath, []byte(twoTrackCue), 0o644))
	return cuePath, t1, t2
}

// fiveTrackCue describes one 20-sector binary holding five 4-sector tracks.
const fiveTrackCue = `FILE "disc.bin" BINARY
  TRACK 01 AUDIO
    INDEX 01 00:00:00
  TRACK 02 AUDIO
    INDEX 01 00:00:04
  TRACK 03 AUDIO
    INDEX 01 00:00:08
  TRACK 04 AUDIO
    INDEX 01 00:00:12
  TRACK 05 AUDIO
    INDEX 01 00:00:16
`

func writeFiveTrackDisc(t *testing.T, dir string) (string, []byte) {
	t.Helper()
	data := pattern(20*sector, 0x33)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "disc.bin"), data, 0o644))
	cuePath := filepath.Join(dir, "disc.cue")
	require.NoError(t, os.WriteFile(cuePath, []byte(fiveTrackCue), 0o644))
	return cuePath, data
}

// memResolved builds a Resolved for in-memory binaries without touching
// the filesystem.
func memResolved(t *testing.T, text string, sizes map[string]int64) *layout.Resolved {
	t.Helper()
	s, err := cue.Parse(text)
	require.NoError(t, err)

	table := cue.DefaultSectorTable()
	r := &layout.Resolved{Sheet: s, BaseDir: "mem"}
	for _, f := range s.Files {
		ss, ok := table.SectorSize(f.Tracks[0].Type)
		require.True(t, ok)
		r.Files = append(r.Files, layout.FileInfo{
			Path:       f.Path,
			AbsPath:    "mem/" + f.Path,
			Size:       sizes[f.Path],
			SectorSize: ss,
			Type:       f.Type,
		})
	}
	return r
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
