package ui

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/bamsammich/cuemerge/internal/stats"
)

// ANSI escape sequences.
const (
	ansiDim   = "\033[2m"
	ansiBold  = "\033[1m"
	ansiReset = "\033[0m"
)

// hudPresenter provides a rich TTY display with a scrolling feed of finished
// tracks and a 2-line HUD that redraws in place.
type hudPresenter struct {
	w       io.Writer
	stats   stats.ReadTicker
	workers int
	width   int
	dstRoot string // destination root, stripped from displayed paths

	hudDrawn    bool
	inFlight    map[int]bool // tracks being copied
	lastHUDDraw time.Time
}

const (
	sparklineWidth   = 20
	progressBarWidth = 20
	hudLines         = 2
	hudMinInterval   = 50 * time.Millisecond // don't redraw faster than this
)

func (p *hudPresenter) Run(events <-chan Event) error {
	if p.inFlight == nil {
		p.inFlight = make(map[int]bool)
	}

	// Fire first tick quickly to seed the ring buffer, then switch to 1s.
	secTicker := time.NewTicker(250 * time.Millisecond)
	defer secTicker.Stop()
	firstTickDone := false

	// Redraw while a single large extent is copying.
	redrawTicker := time.NewTicker(100 * time.Millisecond)
	defer redrawTicker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				p.clearHUD()
				return nil
			}
			p.handleEvent(ev)
			p.maybeDrawHUD()

		case <-redrawTicker.C:
			p.drawHUD()

		case <-secTicker.C:
			p.stats.Tick()
			if !firstTickDone {
				firstTickDone = true
				secTicker.Reset(1 * time.Second)
			}
		}
	}
}

func (p *hudPresenter) handleEvent(ev Event) {
	switch ev.Type {
	case PlanReady:
		p.feed("%s%d tracks  %s%s", ansiDim, ev.Total, FormatBytes(ev.TotalSize), ansiReset)

	case TrackStarted:
		p.inFlight[ev.Track] = true

	case TrackCompleted:
		delete(p.inFlight, ev.Track)
		p.feed("✓  %s  %s  %10s", TrackLabel(ev.Track), p.styledPath(ev.Path), FormatBytes(ev.Size))

	case TrackFailed:
		delete(p.inFlight, ev.Track)
		errMsg := "error"
		if ev.Error != nil {
			errMsg = ev.Error.Error()
		}
		p.feed("✗  %s  %s  %s", TrackLabel(ev.Track), p.styledPath(ev.Path), errMsg)

	case CueWritten:
		p.feed("%s≡  %s%s", ansiBold, p.styledPath(ev.Path), ansiReset)

	case VerifyStarted:
		p.feed("%sverifying checksums...%s", ansiDim, ansiReset)

	case VerifyFailed:
		p.feed("✗  %s  %s  CHECKSUM MISMATCH", TrackLabel(ev.Track), p.styledPath(ev.Path))

	case TrackProgress, VerifyOK:
	}
}

// feed prints one line above the HUD.
func (p *hudPresenter) feed(format string, args ...any) {
	p.clearHUD()
	fmt.Fprintf(p.w, format+"\n", args...)
	p.drawHUD()
}

// maybeDrawHUD redraws the HUD if enough time has passed since the last draw.
func (p *hudPresenter) maybeDrawHUD() {
	if time.Since(p.lastHUDDraw) < hudMinInterval {
		return
	}
	p.drawHUD()
}

func (p *hudPresenter) drawHUD() {
	snap := p.stats.Snapshot()
	p.clearHUD()

	var pct float64
	if snap.BytesTotal > 0 {
		pct = float64(snap.BytesCopied) / float64(snap.BytesTotal)
	}

	// Line 1: throughput sparkline + speed + byte totals.
	samples := p.stats.SparklineData(sparklineWidth)
	fmt.Fprintf(p.w, "       %s   %s %s(peak %s)%s   %s / %s\n",
		Sparkline(samples, sparklineWidth), FormatRate(p.stats.RollingSpeed(10)),
		ansiDim, FormatRate(Peak(samples)), ansiReset,
		FormatBytes(snap.BytesCopied), FormatBytes(snap.BytesTotal))

	// Line 2: progress bar + tracks + workers + eta.
	fmt.Fprintf(p.w, " %3.0f%%  %s   %d / %d tracks   %s   eta %s\n",
		pct*100, ProgressBar(pct, progressBarWidth),
		snap.TracksCopied, snap.TracksTotal,
		WorkerIndicator(len(p.inFlight), p.workers),
		FormatETA(p.stats.ETA()))

	p.hudDrawn = true
	p.lastHUDDraw = time.Now()
}

func (p *hudPresenter) clearHUD() {
	if !p.hudDrawn {
		return
	}
	// Move cursor up N lines and clear to end of screen.
	fmt.Fprintf(p.w, "\033[%dA\033[J", hudLines)
	p.hudDrawn = false
}

func (p *hudPresenter) Summary() string {
	return CompletionSummary(p.stats.Snapshot())
}

// styledPath returns the path relative to dstRoot with the directory
// portion dimmed.
func (p *hudPresenter) styledPath(path string) string {
	path = truncPath(StripRoot(p.dstRoot, path), pathBudget(p.width))
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	if dir == "." || dir == "" {
		return base
	}
	return fmt.Sprintf("%s%s/%s%s", ansiDim, dir, ansiReset, base)
}
