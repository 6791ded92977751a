package tui

import (
	"fmt"
	"strings"

	"github.com/bamsammich/cuemerge/internal/event"
	"github.com/bamsammich/cuemerge/internal/stats"
	"github.com/bamsammich/cuemerge/internal/ui"
)

type rateView struct {
	active map[int]bool // tracks being copied
}

func newRateView() rateView {
	return rateView{active: make(map[int]bool)}
}

func (r *rateView) handleEvent(ev event.Event) {
	switch ev.Type {
	case event.TrackStarted:
		r.active[ev.Track] = true
	case event.TrackCompleted, event.TrackFailed:
		delete(r.active, ev.Track)
	}
}

func (r *rateView) view(width int, snap stats.Snapshot, collector stats.ReadTicker, totalWorkers int) string {
	if width < 20 {
		width = 20
	}

	var b strings.Builder

	speed := collector.RollingSpeed(5)
	b.WriteString("  " + styleBigNumber.Render(ui.FormatRate(speed)))
	b.WriteString("\n\n")

	sparkWidth := max(width-4, 10)
	spark := ui.Sparkline(collector.SparklineData(sparkWidth), sparkWidth)
	b.WriteString("  " + styleSparkline.Render(spark))
	b.WriteString("\n\n")

	statLine := fmt.Sprintf("  %s   %s",
		styleFileSpeed.Render(fmt.Sprintf("%d / %d tracks", snap.TracksCopied, snap.TracksTotal)),
		styleFileSize.Render(fmt.Sprintf("%s / %s", ui.FormatBytes(snap.BytesCopied), ui.FormatBytes(snap.BytesTotal))),
	)
	b.WriteString(statLine)
	b.WriteString("\n\n")

	b.WriteString("  " + styleDivider.Render("workers") + "  ")
	b.WriteString(r.renderWorkerGrid(totalWorkers))
	b.WriteByte('\n')

	return b.String()
}

func (r *rateView) renderWorkerGrid(total int) string {
	busy := min(len(r.active), total)
	var b strings.Builder
	for i := range total {
		if i < busy {
			b.WriteString(styleWorkerBusy.Render("▪"))
		} else {
			b.WriteString(styleWorkerIdle.Render("□"))
		}
	}
	return b.String()
}
