package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/cuemerge/internal/layout"
)

func TestNewBWLimiter(t *testing.T) {
	t.Parallel()

	t.Run("burst capped to rate when rate < 1MB", func(t *testing.T) {
		t.Parallel()
		lim := NewBWLimiter(1024)
		assert.Equal(t, 1024, lim.Burst())
	})

	t.Run("burst is 1MB when rate >= 1MB", func(t *testing.T) {
		t.Parallel()
		lim := NewBWLimiter(10 * 1024 * 1024)
		assert.Equal(t, 1<<20, lim.Burst())
	})
}

func TestChunkSize(t *testing.T) {
	assert.Equal(t, int64(maxChunk), chunkSize(nil))
	assert.Equal(t, int64(1<<20), chunkSize(NewBWLimiter(100<<20)))
	assert.Equal(t, int64(4096), chunkSize(NewBWLimiter(4096)))
	assert.Nil(t, limiterFor(0))
	assert.NotNil(t, limiterFor(1))
}

func TestMerge_RateLimited(t *testing.T) {
	const cueText = "FILE \"a.bin\" BINARY\n TRACK 01 AUDIO\n INDEX 01 00:00:00\n"
	data := pattern(12*sector, 3)
	r := memResolved(t, cueText, map[string]int64{"a.bin": int64(len(data))})
	p, err := layout.NewPlan(r, layout.Merge)
	require.NoError(t, err)

	// Three 4-sector chunks at 4 sectors/s: the first rides the burst, the
	// other two wait a second each.
	lim := NewBWLimiter(4 * sector)
	sink := newMemSink()

	start := time.Now()
	_, err = Merge(context.Background(), r, p, MergeOptions{
		CopyOptions: CopyOptions{
			Source:  &memSource{files: map[string][]byte{"mem/a.bin": data}},
			Sink:    sink,
			Limiter: lim,
		},
		BinPath: "a-merged.bin",
	})
	require.NoError(t, err)
	assert.Greater(t, time.Since(start), time.Second)

	got, ok := sink.get("a-merged.bin")
	require.True(t, ok)
	assert.Equal(t, data, got)
}

func TestMerge_RateLimitedCancel(t *testing.T) {
	const cueText = "FILE \"a.bin\" BINARY\n TRACK 01 AUDIO\n INDEX 01 00:00:00\n"
	data := pattern(100*sector, 3)
	r := memResolved(t, cueText, map[string]int64{"a.bin": int64(len(data))})
	p, err := layout.NewPlan(r, layout.Merge)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(200*time.Millisecond, cancel)

	sink := newMemSink()
	_, err = Merge(ctx, r, p, MergeOptions{
		CopyOptions: CopyOptions{
			Source:  &memSource{files: map[string][]byte{"mem/a.bin": data}},
			Sink:    sink,
			Limiter: NewBWLimiter(sector),
		},
		BinPath: "a-merged.bin",
	})
	require.ErrorIs(t, err, ErrCancelled)
	assert.Empty(t, sink.files)
}
