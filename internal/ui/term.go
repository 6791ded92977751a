package ui

import (
	"os"

	"golang.org/x/term"
)

const defaultTermWidth = 80

// IsTTY reports whether f is a terminal.
func IsTTY(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// TermWidth returns the column count of the terminal behind f, or 80 when
// f is not a terminal.
func TermWidth(f *os.File) int {
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return defaultTermWidth
	}
	return w
}

// pathBudget is how many columns a feed line may spend on a path: the
// width minus the status icon, track label and size column.
func pathBudget(width int) int {
	if width <= 0 {
		width = defaultTermWidth
	}
	return max(width-24, 20)
}
