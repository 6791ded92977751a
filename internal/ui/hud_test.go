package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/cuemerge/internal/stats"
)

func newTestHUD(out *bytes.Buffer, dstRoot string) *hudPresenter {
	collector := stats.NewCollector()
	collector.SetTotals(2, 30*2352)
	return &hudPresenter{
		w:       out,
		stats:   collector,
		workers: 4,
		dstRoot: dstRoot,
	}
}

func runHUD(t *testing.T, p *hudPresenter, evs ...Event) {
	t.Helper()
	events := make(chan Event, len(evs))
	for _, ev := range evs {
		events <- ev
	}
	close(events)
	require.NoError(t, p.Run(events))
}

func TestHudPresenterTrackCompleted(t *testing.T) {
	var out bytes.Buffer
	p := newTestHUD(&out, "")

	runHUD(t, p,
		Event{Type: PlanReady, Total: 2, TotalSize: 30 * 2352},
		Event{Type: TrackStarted, Track: 1, WorkerID: 0},
		Event{Type: TrackCompleted, Track: 1, Path: "disc.bin", Size: 10 * 2352, WorkerID: 0},
	)

	output := out.String()
	assert.Contains(t, output, "✓  01  disc.bin")
	assert.Contains(t, output, "2 tracks")
	assert.Empty(t, p.inFlight)
}

func TestHudPresenterStyledPath(t *testing.T) {
	var out bytes.Buffer
	p := newTestHUD(&out, "/home/user")

	runHUD(t, p,
		Event{Type: TrackCompleted, Track: 2, Path: "/home/user/games/disc (Track 2).bin", Size: 2352},
	)

	output := out.String()
	assert.Contains(t, output, ansiDim+"games/"+ansiReset+"disc (Track 2).bin")
	assert.NotContains(t, output, "/home/user")
}

func TestHudPresenterFailures(t *testing.T) {
	var out bytes.Buffer
	p := newTestHUD(&out, "")

	runHUD(t, p,
		Event{Type: TrackStarted, Track: 3, WorkerID: 2},
		Event{Type: TrackFailed, Track: 3, Path: "t3.bin", Error: assert.AnError, WorkerID: 2},
		Event{Type: VerifyStarted},
		Event{Type: VerifyFailed, Track: 1, Path: "t1.bin"},
	)

	output := out.String()
	assert.Contains(t, output, "✗  03  t3.bin  "+assert.AnError.Error())
	assert.Contains(t, output, "verifying checksums...")
	assert.Contains(t, output, "CHECKSUM MISMATCH")
	assert.Empty(t, p.inFlight)
}

func TestHudPresenterClearsOnClose(t *testing.T) {
	var out bytes.Buffer
	p := newTestHUD(&out, "")

	runHUD(t, p, Event{Type: CueWritten, Path: "disc.cue"})

	assert.False(t, p.hudDrawn)
	assert.True(t, strings.HasSuffix(out.String(), "\033[2A\033[J"))
}

func TestHudPresenterDrawHUD(t *testing.T) {
	var out bytes.Buffer
	p := newTestHUD(&out, "")
	p.inFlight = map[int]bool{0: true, 1: true}

	p.drawHUD()

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, hudLines)
	assert.Contains(t, lines[0], "(peak 0 B/s)")
	assert.Contains(t, lines[1], "0 / 2 tracks")
	assert.Contains(t, lines[1], "▪▪□□")
	assert.Contains(t, lines[1], "eta --")
}

func TestHudPresenterSummary(t *testing.T) {
	var out bytes.Buffer
	p := newTestHUD(&out, "")
	assert.Contains(t, p.Summary(), "tracks 0/2")
}
