package tui

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bamsammich/cuemerge/internal/event"
	"github.com/bamsammich/cuemerge/internal/ui"
)

type inFlightEntry struct {
	started  time.Time
	path     string
	track    int
	size     int64
	progress int64 // bytes copied so far
}

type completedEntry struct {
	path   string
	errMsg string
	track  int
	size   int64
	failed bool
}

type errorEntry struct {
	time  time.Time
	path  string
	err   string
	track int
}

type feedView struct {
	inFlight     map[int]*inFlightEntry // keyed by track
	completed    []completedEntry
	errors       []errorEntry // never evicted
	cueSheets    []string
	dstRoot      string
	scrollOffset int  // viewport offset into completed list
	autoScroll   bool // follow new entries
}

func newFeedView(dstRoot string) feedView {
	return feedView{
		inFlight:   make(map[int]*inFlightEntry),
		dstRoot:    dstRoot,
		autoScroll: true,
	}
}

func (f *feedView) handleEvent(ev event.Event) {
	switch ev.Type {
	case event.TrackStarted:
		f.inFlight[ev.Track] = &inFlightEntry{
			path:    ev.Path,
			track:   ev.Track,
			size:    ev.Size,
			started: ev.Timestamp,
		}

	case event.TrackProgress:
		if e, ok := f.inFlight[ev.Track]; ok {
			e.progress = ev.Size
		}

	case event.TrackCompleted:
		delete(f.inFlight, ev.Track)
		f.completed = append(f.completed, completedEntry{
			path:  ev.Path,
			track: ev.Track,
			size:  ev.Size,
		})

	case event.TrackFailed:
		delete(f.inFlight, ev.Track)
		errMsg := "error"
		if ev.Error != nil {
			errMsg = ev.Error.Error()
		}
		f.completed = append(f.completed, completedEntry{
			path:   ev.Path,
			track:  ev.Track,
			failed: true,
			errMsg: errMsg,
		})
		f.errors = append(f.errors, errorEntry{
			path:  ev.Path,
			track: ev.Track,
			err:   errMsg,
			time:  ev.Timestamp,
		})

	case event.CueWritten:
		f.cueSheets = append(f.cueSheets, ev.Path)

	case event.VerifyFailed:
		f.errors = append(f.errors, errorEntry{
			path:  ev.Path,
			track: ev.Track,
			err:   "CHECKSUM MISMATCH",
			time:  ev.Timestamp,
		})
	}
}

func (f *feedView) scrollDown() {
	f.autoScroll = false
	f.scrollOffset++
}

func (f *feedView) scrollUp() {
	f.autoScroll = false
	if f.scrollOffset > 0 {
		f.scrollOffset--
	}
}

func (f *feedView) scrollToTop() {
	f.autoScroll = false
	f.scrollOffset = 0
}

func (f *feedView) scrollToBottom() {
	f.autoScroll = true
}

func (f *feedView) view(width, height int, spin string) string {
	if width < 20 {
		width = 20
	}

	maxInFlight := max(height/3, 1)
	inFlightCount := min(len(f.inFlight), maxInFlight)
	errCount := min(len(f.errors), 5)

	dividers := 0
	if inFlightCount > 0 {
		dividers++
	}
	if errCount > 0 {
		dividers++
	}
	if len(f.completed) > 0 {
		dividers++
	}

	completedHeight := max(height-inFlightCount-errCount-dividers-len(f.cueSheets), 1)

	maxOffset := max(len(f.completed)-completedHeight, 0)
	if f.autoScroll {
		f.scrollOffset = maxOffset
	}
	f.scrollOffset = max(min(f.scrollOffset, maxOffset), 0)

	var b strings.Builder

	if lines := f.renderInFlight(width, maxInFlight, spin); lines != "" {
		b.WriteString(styleDivider.Render("─ in-flight"))
		b.WriteByte('\n')
		b.WriteString(lines)
	}

	if lines := f.renderCompletedViewport(width, completedHeight); lines != "" {
		b.WriteString(styleDivider.Render(fmt.Sprintf("─ tracks (%d)", len(f.completed))))
		b.WriteByte('\n')
		b.WriteString(lines)
	}

	for _, p := range f.cueSheets {
		fmt.Fprintf(&b, "  %s  %s\n", styleIconDone.Render("≡"), f.styledPath(p, width-8))
	}

	if lines := f.renderErrors(width, errCount); lines != "" {
		b.WriteString(styleDivider.Render(fmt.Sprintf("─ errors (%d)", len(f.errors))))
		b.WriteByte('\n')
		b.WriteString(lines)
	}

	return b.String()
}

func (f *feedView) renderInFlight(width, maxLines int, spin string) string {
	if len(f.inFlight) == 0 {
		return ""
	}

	tracks := make([]int, 0, len(f.inFlight))
	for t := range f.inFlight {
		tracks = append(tracks, t)
	}
	sort.Ints(tracks)

	var b strings.Builder
	for i, t := range tracks {
		if i >= maxLines {
			break
		}
		e := f.inFlight[t]
		var pct float64
		if e.size > 0 {
			pct = float64(e.progress) / float64(e.size)
		}
		fmt.Fprintf(&b, "  %s %s  %s  %s  %s\n",
			styleInFlight.Render(spin),
			styleTrack.Render(ui.TrackLabel(e.track)),
			f.styledPath(e.path, width-40),
			styleFileSize.Render(ui.FormatBytes(e.size)),
			renderMiniBar(pct),
		)
	}
	return b.String()
}

func (f *feedView) renderCompletedViewport(width, viewportHeight int) string {
	if len(f.completed) == 0 {
		return ""
	}

	start := max(f.scrollOffset, 0)
	end := min(start+viewportHeight, len(f.completed))

	var b strings.Builder
	for _, e := range f.completed[start:end] {
		icon := styleIconDone.Render("✓")
		extra := styleFileSize.Render(fmt.Sprintf("%10s", ui.FormatBytes(e.size)))
		if e.failed {
			icon = styleIconFailed.Render("✗")
			extra = styleError.Render(e.errMsg)
		}
		fmt.Fprintf(&b, "  %s  %s  %s  %s\n",
			icon, styleTrack.Render(ui.TrackLabel(e.track)), f.styledPath(e.path, width-30), extra)
	}
	return b.String()
}

func (f *feedView) renderErrors(width, maxLines int) string {
	if len(f.errors) == 0 {
		return ""
	}

	var b strings.Builder
	start := max(len(f.errors)-maxLines, 0)
	for _, e := range f.errors[start:] {
		fmt.Fprintf(&b, "  %s  %s  %s  %s\n",
			styleIconFailed.Render("✗"),
			styleTrack.Render(ui.TrackLabel(e.track)),
			styleErrorPath.Render(ui.StripRoot(f.dstRoot, e.path)),
			styleError.Render(e.err),
		)
	}
	return b.String()
}

func (f *feedView) styledPath(path string, maxLen int) string {
	path = ui.StripRoot(f.dstRoot, path)
	if maxLen > 10 && len(path) > maxLen {
		path = "..." + path[len(path)-maxLen+3:]
	}
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	if dir == "." || dir == "" {
		return styleFilePath.Render(base)
	}
	return styleFileDir.Render(dir+"/") + styleFilePath.Render(base)
}

// renderMiniBar renders a 2-rune progress indicator.
func renderMiniBar(pct float64) string {
	switch {
	case pct <= 0:
		return styleProgressEmpty.Render("□□")
	case pct < 0.5:
		return styleProgressFilled.Render("▪") + styleProgressEmpty.Render("□")
	default:
		return styleProgressFilled.Render("▪▪")
	}
}
