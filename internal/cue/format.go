package cue

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Line endings accepted by FormatOptions.
const (
	CRLF = "\r\n"
	LF   = "\n"
)

// FormatOptions controls cue sheet output.
type FormatOptions struct {
	LineEnding string // CRLF when empty
}

// Format writes the sheet as cue text. Track and index numbers use two
// digits and file names are always quoted.
func Format(w io.Writer, s *Sheet, opts FormatOptions) error {
	eol := opts.LineEnding
	if eol == "" {
		eol = CRLF
	}

	bw := bufio.NewWriter(w)
	line := func(indent int, format string, args ...any) {
		bw.WriteString(strings.Repeat(" ", indent))
		fmt.Fprintf(bw, format, args...)
		bw.WriteString(eol)
	}

	for _, m := range s.Meta {
		line(0, "%s", m)
	}
	for _, f := range s.Files {
		typ := f.RawType
		if typ == "" {
			typ = f.Type.String()
		}
		line(0, "FILE \"%s\" %s", f.Path, typ)
		for _, m := range f.Meta {
			line(2, "%s", m)
		}
		for _, t := range f.Tracks {
			line(2, "TRACK %02d %s", t.Number, t.Type)
			for _, m := range t.Meta {
				line(4, "%s", m)
			}
			for _, idx := range t.Indices {
				line(4, "INDEX %02d %s", idx.Number, idx.Position)
			}
			for _, m := range t.Post {
				line(4, "%s", m)
			}
		}
	}
	return bw.Flush()
}

// String renders the sheet with CRLF line endings.
func (s *Sheet) String() string {
	var b strings.Builder
	_ = Format(&b, s, FormatOptions{}) //nolint:errcheck // strings.Builder never fails
	return b.String()
}
