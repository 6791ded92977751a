package tui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bamsammich/cuemerge/internal/event"
	"github.com/bamsammich/cuemerge/internal/stats"
	"github.com/bamsammich/cuemerge/internal/ui"
)

type viewMode int

const (
	viewFeed viewMode = iota
	viewRate
)

// Bubble Tea messages.
type engineEventMsg event.Event
type channelDoneMsg struct{}
type tickMsg time.Time
type saveResultMsg struct {
	err  error
	path string
}

// readNextEvent returns a tea.Cmd that blocks on the event channel.
func readNextEvent(ch <-chan event.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return channelDoneMsg{}
		}
		return engineEventMsg(ev)
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Model is the root Bubble Tea model.
type Model struct {
	events  <-chan event.Event
	stats   stats.ReadTicker
	mode    string // "merge" or "split"
	cuePath string
	dstRoot string
	workers int

	view      viewMode
	feed      feedView
	rate      rateView
	bar       progress.Model
	spin      spinner.Model
	save      textinput.Model
	saving    bool
	width     int
	height    int
	statusMsg string // transient notification
	done      bool
	quitting  bool

	lastSnap stats.Snapshot
	lastETA  time.Duration
}

// NewModel creates a new TUI model.
func NewModel(events <-chan event.Event, collector stats.ReadTicker, cfg Config) Model {
	bar := progress.New(progress.WithSolidFill(string(ColorGreen)), progress.WithoutPercentage())
	bar.Width = 20

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = styleInFlight

	ti := textinput.New()
	ti.Prompt = "Save to: "
	ti.PromptStyle = styleSavePrompt
	ti.TextStyle = styleSaveInput
	ti.CharLimit = 256
	ti.Width = 60

	return Model{
		events:  events,
		stats:   collector,
		mode:    cfg.Mode,
		cuePath: cfg.CuePath,
		dstRoot: cfg.DstRoot,
		workers: cfg.Workers,
		feed:    newFeedView(cfg.DstRoot),
		rate:    newRateView(),
		bar:     bar,
		spin:    sp,
		save:    ti,
		width:   80,
		height:  24,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		readNextEvent(m.events),
		tickCmd(),
		m.spin.Tick,
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = min(max(msg.Width/4, 10), 40)
		return m, nil

	case engineEventMsg:
		ev := event.Event(msg)
		m.feed.handleEvent(ev)
		m.rate.handleEvent(ev)
		return m, readNextEvent(m.events)

	case channelDoneMsg:
		m.done = true
		m.lastSnap = m.stats.Snapshot()
		m.lastETA = 0
		return m, nil

	case tickMsg:
		if m.done {
			return m, nil
		}
		m.stats.Tick()
		m.lastSnap = m.stats.Snapshot()
		m.lastETA = m.stats.ETA()
		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case saveResultMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("save failed: %v", msg.err)
		} else {
			m.statusMsg = "saved to " + msg.path
		}
		m.saving = false
		m.save.Blur()
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.saving {
		return m.handleSaveKey(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "r":
		m.view = viewRate
		m.statusMsg = ""

	case "f":
		m.view = viewFeed
		m.statusMsg = ""

	case "j", "down":
		if m.view == viewFeed {
			m.feed.scrollDown()
		}

	case "k", "up":
		if m.view == viewFeed {
			m.feed.scrollUp()
		}

	case "G":
		if m.view == viewFeed {
			m.feed.scrollToBottom()
		}

	case "g":
		if m.view == viewFeed {
			m.feed.scrollToTop()
		}

	case "s":
		if m.done {
			m.saving = true
			m.save.SetValue(fmt.Sprintf("cuemerge-%s.log", time.Now().Format("2006-01-02-150405")))
			m.save.CursorEnd()
			m.statusMsg = ""
			return m, m.save.Focus()
		}
	}

	return m, nil
}

func (m Model) handleSaveKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEscape:
		m.saving = false
		m.save.Blur()
		m.statusMsg = ""
		return m, nil

	case tea.KeyEnter:
		return m, m.writeReport(m.save.Value())
	}

	var cmd tea.Cmd
	m.save, cmd = m.save.Update(msg)
	return m, cmd
}

func (m Model) writeReport(path string) tea.Cmd {
	snap := m.lastSnap
	mode := m.mode
	cuePath := m.cuePath
	dstRoot := m.dstRoot
	completed := make([]completedEntry, len(m.feed.completed))
	copy(completed, m.feed.completed)
	sheets := append([]string(nil), m.feed.cueSheets...)

	return func() tea.Msg {
		var b strings.Builder

		fmt.Fprintf(&b, "cuemerge %s report\n", mode)
		b.WriteString("=====================\n")
		fmt.Fprintf(&b, "source:      %s\n", cuePath)
		fmt.Fprintf(&b, "destination: %s\n", dstRoot)
		fmt.Fprintf(&b, "completed:   %s\n", time.Now().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(&b, "duration:    %s\n", ui.FormatDuration(snap.Elapsed))
		fmt.Fprintf(&b, "tracks:      %d / %d\n", snap.TracksCopied, snap.TracksTotal)
		fmt.Fprintf(&b, "size:        %s\n", ui.FormatBytes(snap.BytesCopied))
		if snap.TracksVerified > 0 || snap.TracksVerifyFailed > 0 {
			fmt.Fprintf(&b, "verified:    %d\n", snap.TracksVerified)
		}
		fmt.Fprintf(&b, "errors:      %d\n", snap.TracksFailed+snap.TracksVerifyFailed)
		b.WriteString("\n--- tracks ---\n")

		for _, e := range completed {
			rel := ui.StripRoot(dstRoot, e.path)
			if e.failed {
				fmt.Fprintf(&b, "x  %s  %-50s  %s\n", ui.TrackLabel(e.track), rel, e.errMsg)
				continue
			}
			fmt.Fprintf(&b, "v  %s  %-50s  %s\n", ui.TrackLabel(e.track), rel, ui.FormatBytes(e.size))
		}
		for _, s := range sheets {
			fmt.Fprintf(&b, "cue  %s\n", ui.StripRoot(dstRoot, s))
		}

		err := os.WriteFile(path, []byte(b.String()), 0o644) //nolint:gosec // user-chosen report path
		return saveResultMsg{err: err, path: path}
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteByte('\n')

	contentHeight := max(m.height-3, 3) // header, status, footer

	switch m.view {
	case viewFeed:
		b.WriteString(m.feed.view(m.width, contentHeight, m.spin.View()))
	case viewRate:
		b.WriteString(m.rate.view(m.width, m.lastSnap, m.stats, m.workers))
	}

	switch {
	case m.saving:
		b.WriteString("  " + m.save.View())
	case m.statusMsg != "":
		b.WriteString(styleStatus.Render("  " + m.statusMsg))
	}
	b.WriteByte('\n')

	b.WriteString(m.renderFooter())

	return b.String()
}

func (m Model) renderHeader() string {
	snap := m.lastSnap
	label := styleHeaderLabel.Render("cuemerge " + m.mode)

	if m.done {
		return styleHeader.Render(fmt.Sprintf("  %s  %s  %s  %d / %d tracks  %s",
			label,
			styleIconDone.Render("done"),
			ui.FormatBytes(snap.BytesCopied),
			snap.TracksCopied,
			snap.TracksTotal,
			ui.FormatDuration(snap.Elapsed),
		))
	}

	var pct float64
	if snap.BytesTotal > 0 {
		pct = float64(snap.BytesCopied) / float64(snap.BytesTotal)
	}

	return styleHeader.Render(fmt.Sprintf("  %s  %3.0f%%  %s  %s / %s  %d / %d tracks  eta %s  %dw",
		label,
		pct*100,
		m.bar.ViewAs(pct),
		ui.FormatBytes(snap.BytesCopied),
		ui.FormatBytes(snap.BytesTotal),
		snap.TracksCopied,
		snap.TracksTotal,
		ui.FormatETA(m.lastETA),
		m.workers,
	))
}

func (m Model) renderFooter() string {
	type keybind struct {
		key   string
		label string
	}

	binds := []keybind{
		{"q", "quit"},
		{"r", "rate"},
		{"f", "feed"},
		{"j/k", "scroll"},
	}
	if m.done {
		binds = append([]keybind{{"s", "save"}}, binds...)
	}

	parts := make([]string, 0, len(binds))
	for _, kb := range binds {
		parts = append(parts, styleKeybindKey.Render(kb.key)+" "+styleKeybindLabel.Render(kb.label))
	}
	return "  " + strings.Join(parts, "   ")
}
