package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/cuemerge/internal/event"
	"github.com/bamsammich/cuemerge/internal/layout"
	"github.com/bamsammich/cuemerge/internal/stats"
)

func TestVerifyExtents_DetectsCorruption(t *testing.T) {
	src := t.TempDir()
	cuePath, _, _ := writeTwoTrackDisc(t, src)

	res := RunMerge(context.Background(), MergeConfig{CuePath: cuePath, Dst: filepath.Join(t.TempDir(), "m.cue")})
	require.NoError(t, res.Err)

	// Flip one byte inside track 2.
	f, err := os.OpenFile(res.Outputs[0], os.O_RDWR, 0)
	require.NoError(t, err)
	_, err = f.WriteAt([]byte{0xff ^ pattern(1, 0x5a)[0]}, 10*sector)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	events := make(chan event.Event, 16)
	collector := stats.NewCollector()
	vr := VerifyExtents(context.Background(), VerifyConfig{
		Plan:      res.Plan,
		DestPaths: res.Outputs,
		Events:    events,
		Stats:     collector,
	})
	close(events)

	assert.Equal(t, int64(1), vr.Verified)
	assert.Equal(t, int64(1), vr.Failed)
	require.Len(t, vr.Errors, 1)
	assert.Equal(t, 2, vr.Errors[0].Track)
	assert.NotEqual(t, vr.Errors[0].SrcHash, vr.Errors[0].DstHash)

	var verr *VerifyError
	require.ErrorAs(t, vr.Err(), &verr)
	assert.Equal(t, 2, verr.Track)
	assert.Contains(t, vr.Err().Error(), "1 of 2 tracks failed verification")

	assert.Equal(t, int64(1), collector.Snapshot().TracksVerifyFailed)

	var failed int
	for e := range events {
		if e.Type == event.VerifyFailed {
			failed++
			assert.Equal(t, 2, e.Track)
		}
	}
	assert.Equal(t, 1, failed)
}

func TestVerifyExtents_MissingDestination(t *testing.T) {
	data := pattern(20*sector, 9)
	r := memResolved(t, fiveTrackCue, map[string]int64{"disc.bin": int64(len(data))})
	p, err := layout.NewPlan(r, layout.Split)
	require.NoError(t, err)

	paths := make([]string, 5)
	for i := range paths {
		paths[i] = filepath.Join("nowhere", TrackFileName("Disc", i+1, 5, ".bin"))
	}

	vr := VerifyExtents(context.Background(), VerifyConfig{
		Plan:      p,
		Source:    &memSource{files: map[string][]byte{"mem/disc.bin": data}},
		DestPaths: paths,
	})
	assert.Equal(t, int64(5), vr.Failed)
	for _, e := range vr.Errors {
		assert.Equal(t, "error", e.DstHash)
		assert.Error(t, e.Err)
	}
}

func TestVerifyExtents_CancelledMidway(t *testing.T) {
	data := pattern(20*sector, 4)
	r := memResolved(t, fiveTrackCue, map[string]int64{"disc.bin": int64(len(data))})
	p, err := layout.NewPlan(r, layout.Split)
	require.NoError(t, err)

	files := map[string][]byte{"mem/disc.bin": data}
	paths := make([]string, 5)
	for i := range paths {
		paths[i] = filepath.Join("out", TrackFileName("Disc", i+1, 5, ".bin"))
		files[paths[i]] = data[i*4*sector : (i+1)*4*sector]
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// The first read ends the run; with one worker at most two extents
	// are underway by the time the loop notices.
	src := &memSource{files: files, onRead: func(string, int64) { cancel() }}

	vr := VerifyExtents(ctx, VerifyConfig{
		Plan:      p,
		Source:    src,
		Dest:      src,
		DestPaths: paths,
		Workers:   1,
	})
	assert.Empty(t, vr.Errors)
	assert.Positive(t, vr.Skipped)
	assert.Equal(t, int64(5), vr.Verified+vr.Skipped)

	err = vr.Err()
	require.ErrorIs(t, err, ErrCancelled)
	assert.Contains(t, err.Error(), "verification incomplete")
}

func TestVerifyResult_Err(t *testing.T) {
	assert.NoError(t, VerifyResult{Verified: 3}.Err())

	err := VerifyResult{Verified: 1, Skipped: 2}.Err()
	require.ErrorIs(t, err, ErrCancelled)
	assert.Contains(t, err.Error(), "2 of 3 tracks not checked")

	err = VerifyResult{
		Errors:  []VerifyError{{Track: 4, SrcHash: "a", DstHash: "b"}},
		Failed:  1,
		Skipped: 1,
	}.Err()
	require.ErrorIs(t, err, ErrCancelled)
	var verr *VerifyError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 4, verr.Track)
}
