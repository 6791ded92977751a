package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/bamsammich/cuemerge/internal/config"
)

// Catppuccin Mocha palette, overridable from the [theme] config section.
var (
	ColorGreen  = lipgloss.Color("#a6e3a1")
	ColorBlue   = lipgloss.Color("#89b4fa")
	ColorYellow = lipgloss.Color("#f9e2af")
	ColorRed    = lipgloss.Color("#f38ba8")
	ColorTeal   = lipgloss.Color("#94e2d5")
	ColorMauve  = lipgloss.Color("#cba6f7")
	ColorMuted  = lipgloss.Color("#5a6278")
	ColorDim    = lipgloss.Color("#3a4055")
	ColorBright = lipgloss.Color("#cdd6f4")
)

var (
	styleHeader         lipgloss.Style
	styleHeaderLabel    lipgloss.Style
	styleDivider        lipgloss.Style
	styleIconDone       lipgloss.Style
	styleIconFailed     lipgloss.Style
	styleTrack          lipgloss.Style
	styleFilePath       lipgloss.Style
	styleFileDir        lipgloss.Style
	styleFileSize       lipgloss.Style
	styleFileSpeed      lipgloss.Style
	styleInFlight       lipgloss.Style
	styleError          lipgloss.Style
	styleErrorPath      lipgloss.Style
	styleKeybindKey     lipgloss.Style
	styleKeybindLabel   lipgloss.Style
	styleBigNumber      lipgloss.Style
	styleSparkline      lipgloss.Style
	styleWorkerBusy     lipgloss.Style
	styleWorkerIdle     lipgloss.Style
	styleProgressFilled lipgloss.Style
	styleProgressEmpty  lipgloss.Style
	styleStatus         lipgloss.Style
	styleSavePrompt     lipgloss.Style
	styleSaveInput      lipgloss.Style
)

func init() {
	rebuildStyles()
}

func fg(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

// rebuildStyles derives every style from the current palette.
func rebuildStyles() {
	// Track state: done, failed, copying.
	styleIconDone = fg(ColorGreen)
	styleIconFailed = fg(ColorRed)
	styleInFlight = fg(ColorBlue)
	styleTrack = fg(ColorYellow)

	// Paths and sizes in the feed.
	styleFilePath = fg(ColorBright)
	styleFileDir = fg(ColorMuted)
	styleFileSize = styleFileDir
	styleFileSpeed = fg(ColorTeal)
	styleError = styleIconFailed
	styleErrorPath = styleIconFailed.Bold(true)

	// Chrome.
	styleHeader = fg(ColorBright).Bold(true)
	styleHeaderLabel = fg(ColorMauve).Bold(true)
	styleDivider = fg(ColorDim)
	styleKeybindKey = styleHeaderLabel
	styleKeybindLabel = fg(ColorMuted)
	styleStatus = fg(ColorYellow).Italic(true)
	styleSavePrompt = styleKeybindLabel
	styleSaveInput = styleFilePath

	// Rate view.
	styleBigNumber = fg(ColorGreen).Bold(true)
	styleSparkline = styleInFlight
	styleWorkerBusy = styleInFlight
	styleWorkerIdle = styleDivider
	styleProgressFilled = styleIconDone
	styleProgressEmpty = styleDivider
}

// ApplyTheme overrides palette entries set in tc and rebuilds the styles.
func ApplyTheme(tc config.ThemeConfig) {
	overrides := []struct {
		value *string
		color *lipgloss.Color
	}{
		{tc.Green, &ColorGreen},
		{tc.Blue, &ColorBlue},
		{tc.Yellow, &ColorYellow},
		{tc.Red, &ColorRed},
		{tc.Teal, &ColorTeal},
		{tc.Mauve, &ColorMauve},
		{tc.Muted, &ColorMuted},
		{tc.Dim, &ColorDim},
		{tc.Bright, &ColorBright},
	}
	for _, o := range overrides {
		if o.value != nil && *o.value != "" {
			*o.color = lipgloss.Color(*o.value)
		}
	}
	rebuildStyles()
}
