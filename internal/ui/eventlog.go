package ui

import (
	"context"
	"log/slog"
)

// TeeEvents logs every event from in as a structured record and forwards it
// to the returned channel, which is closed once in is drained.
func TeeEvents(logger *slog.Logger, in <-chan Event) <-chan Event {
	out := make(chan Event, cap(in))
	go func() {
		defer close(out)
		for ev := range in {
			LogEvent(logger, ev)
			out <- ev
		}
	}()
	return out
}

// LogEvent writes one event as a "cuemerge.event" record. Progress events
// are logged at debug level, failures at warn.
func LogEvent(logger *slog.Logger, ev Event) {
	level := slog.LevelInfo
	switch ev.Type {
	case TrackProgress:
		level = slog.LevelDebug
	case TrackFailed, VerifyFailed:
		level = slog.LevelWarn
	}

	attrs := []slog.Attr{
		slog.String("type", ev.Type.String()),
		slog.String("path", ev.Path),
		slog.Int64("size", ev.Size),
	}
	if ev.Track > 0 {
		attrs = append(attrs, slog.Int("track", ev.Track))
	}
	if ev.Type == PlanReady {
		attrs = append(attrs, slog.Int64("tracks", ev.Total), slog.Int64("total_size", ev.TotalSize))
	}
	if ev.Error != nil {
		attrs = append(attrs, slog.String("error", ev.Error.Error()))
	}
	logger.LogAttrs(context.Background(), level, "cuemerge.event", attrs...)
}
