package ui_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/cuemerge/internal/ui"
)

// jsonLines decodes one JSON object per line of buf.
func jsonLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec), line)
		out = append(out, rec)
	}
	return out
}

func TestMultiHandler_TerminalAndFile(t *testing.T) {
	t.Parallel()

	var term, file bytes.Buffer
	logger := slog.New(ui.NewMultiHandler(
		slog.NewTextHandler(&term, &slog.HandlerOptions{Level: slog.LevelWarn}),
		slog.NewJSONHandler(&file, &slog.HandlerOptions{Level: slog.LevelDebug}),
	))

	logger.Debug("planned", "tracks", 5)
	logger.Warn("rollback failed", "path", "disc (Track 2).bin")

	assert.NotContains(t, term.String(), "planned")
	assert.Contains(t, term.String(), `path="disc (Track 2).bin"`)

	recs := jsonLines(t, &file)
	require.Len(t, recs, 2)
	assert.Equal(t, "planned", recs[0]["msg"])
	assert.InDelta(t, 5, recs[0]["tracks"], 0)
	assert.Equal(t, "WARN", recs[1]["level"])
}

func TestMultiHandler_Enabled(t *testing.T) {
	t.Parallel()

	m := ui.NewMultiHandler(
		slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn}),
		slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	ctx := context.Background()
	assert.False(t, m.Enabled(ctx, slog.LevelInfo))
	assert.True(t, m.Enabled(ctx, slog.LevelWarn))
	assert.False(t, ui.NewMultiHandler().Enabled(ctx, slog.LevelError))
}

func TestMultiHandler_AttrsAndGroups(t *testing.T) {
	t.Parallel()

	var text, js bytes.Buffer
	m := ui.NewMultiHandler(
		slog.NewTextHandler(&text, nil),
		slog.NewJSONHandler(&js, nil),
	)
	logger := slog.New(m).With("mode", "split").WithGroup("cuemerge")
	logger.Info("track done", "track", 3)

	assert.Contains(t, text.String(), "mode=split")
	assert.Contains(t, text.String(), "cuemerge.track=3")

	recs := jsonLines(t, &js)
	require.Len(t, recs, 1)
	assert.Equal(t, "split", recs[0]["mode"])
	group, ok := recs[0]["cuemerge"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 3, group["track"], 0)
}

func TestTeeEvents(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	in := make(chan ui.Event, 4)
	in <- ui.Event{Type: ui.PlanReady, Total: 2, TotalSize: 4704}
	in <- ui.Event{Type: ui.TrackProgress, Track: 1, Size: 100}
	in <- ui.Event{Type: ui.TrackFailed, Track: 2, Path: "disc.bin", Error: assert.AnError}
	close(in)

	var got []ui.Event
	for ev := range ui.TeeEvents(logger, in) {
		got = append(got, ev)
	}
	require.Len(t, got, 3, "every event is forwarded")
	assert.Equal(t, ui.TrackFailed, got[2].Type)

	recs := jsonLines(t, &buf)
	require.Len(t, recs, 2, "progress is logged at debug")

	assert.Equal(t, "cuemerge.event", recs[0]["msg"])
	assert.Equal(t, "PlanReady", recs[0]["type"])
	assert.InDelta(t, 2, recs[0]["tracks"], 0)
	assert.InDelta(t, 4704, recs[0]["total_size"], 0)

	assert.Equal(t, "WARN", recs[1]["level"])
	assert.InDelta(t, 2, recs[1]["track"], 0)
	assert.Equal(t, assert.AnError.Error(), recs[1]["error"])
}
