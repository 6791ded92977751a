package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/bamsammich/cuemerge/internal/stats"
)

// plainPresenter outputs one line per finished track to stdout,
// and periodic progress to stderr when not a TTY.
type plainPresenter struct {
	w       io.Writer
	errW    io.Writer
	stats   stats.ReadTicker
	dstRoot string
}

func (p *plainPresenter) Run(events <-chan Event) error {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			p.handleEvent(ev)
		case <-ticker.C:
			p.stats.Tick()
			p.printProgress()
		}
	}
}

func (p *plainPresenter) handleEvent(ev Event) {
	path := StripRoot(p.dstRoot, ev.Path)
	switch ev.Type {
	case PlanReady:
		fmt.Fprintf(p.w, "plan: %d tracks  %s\n", ev.Total, FormatBytes(ev.TotalSize))
	case TrackCompleted:
		fmt.Fprintf(p.w, "track %s  %s  %s\n", TrackLabel(ev.Track), path, FormatBytes(ev.Size))
	case TrackFailed:
		errMsg := "error"
		if ev.Error != nil {
			errMsg = ev.Error.Error()
		}
		fmt.Fprintf(p.w, "track %s  %s  %s\n", TrackLabel(ev.Track), path, errMsg)
	case CueWritten:
		fmt.Fprintf(p.w, "cue: %s\n", path)
	case VerifyStarted:
		fmt.Fprintln(p.w, "verifying...")
	case VerifyFailed:
		fmt.Fprintf(p.w, "MISMATCH: track %s  %s\n", TrackLabel(ev.Track), path)
	case TrackStarted, TrackProgress, VerifyOK:
		// silent in plain mode
	}
}

func (p *plainPresenter) printProgress() {
	snap := p.stats.Snapshot()
	if snap.BytesTotal > 0 {
		pct := float64(snap.BytesCopied) / float64(snap.BytesTotal) * 100
		fmt.Fprintf(p.errW, "progress: %.0f%% %s/%s %d/%d tracks %s eta %s\n",
			pct,
			FormatBytes(snap.BytesCopied), FormatBytes(snap.BytesTotal),
			snap.TracksCopied, snap.TracksTotal,
			FormatRate(p.stats.RollingSpeed(10)),
			FormatETA(p.stats.ETA()),
		)
		return
	}
	fmt.Fprintf(p.errW, "progress: %s copied %d tracks\n",
		FormatBytes(snap.BytesCopied), snap.TracksCopied)
}

func (p *plainPresenter) Summary() string {
	return CompletionSummary(p.stats.Snapshot())
}
