package cue

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// ParseError reports malformed cue sheet syntax.
type ParseError struct {
	Reason string
	Line   int
}

func (e *ParseError) Error() string {
	if e.Line <= 0 {
		return "cue: " + e.Reason
	}
	return fmt.Sprintf("cue: line %d: %s", e.Line, e.Reason)
}

type parser struct {
	sheet     *Sheet
	file      *File
	track     *Track
	fileLine  int
	trackLine int
	lastTrack int
}

// Parse reads cue sheet text into a Sheet. Statements other than FILE,
// TRACK and INDEX are kept verbatim as metadata of the enclosing entity.
func Parse(text string) (*Sheet, error) {
	p := &parser{sheet: &Sheet{}}

	text = strings.TrimPrefix(text, "\ufeff")
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if err := p.statement(line, lineNo); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &ParseError{Line: lineNo, Reason: err.Error()}
	}

	if err := p.closeFile(); err != nil {
		return nil, err
	}
	if len(p.sheet.Files) == 0 {
		return nil, &ParseError{Reason: "no FILE statement"}
	}
	return p.sheet, nil
}

func (p *parser) statement(line string, lineNo int) error {
	keyword, rest := splitKeyword(line)
	switch strings.ToUpper(keyword) {
	case "FILE":
		return p.parseFile(rest, lineNo)
	case "TRACK":
		return p.parseTrack(rest, lineNo)
	case "INDEX":
		return p.parseIndex(rest, lineNo)
	default:
		p.addMeta(line)
		return nil
	}
}

func (p *parser) addMeta(line string) {
	switch {
	case p.track != nil && len(p.track.Indices) == 0:
		p.track.Meta = append(p.track.Meta, line)
	case p.track != nil:
		p.track.Post = append(p.track.Post, line)
	case p.file != nil:
		p.file.Meta = append(p.file.Meta, line)
	default:
		p.sheet.Meta = append(p.sheet.Meta, line)
	}
}

func (p *parser) parseFile(rest string, lineNo int) error {
	if err := p.closeFile(); err != nil {
		return err
	}

	name, typ, err := splitFileOperands(rest)
	if err != nil {
		return &ParseError{Line: lineNo, Reason: err.Error()}
	}

	p.file = &File{
		Path:    name,
		RawType: typ,
		Type:    ParseFileType(typ),
	}
	p.fileLine = lineNo
	p.sheet.Files = append(p.sheet.Files, p.file)
	return nil
}

func (p *parser) parseTrack(rest string, lineNo int) error {
	if p.file == nil {
		return &ParseError{Line: lineNo, Reason: "TRACK before any FILE"}
	}
	if err := p.closeTrack(); err != nil {
		return err
	}

	fields := strings.Fields(rest)
	if len(fields) < 2 {
		return &ParseError{Line: lineNo, Reason: "TRACK needs a number and a type"}
	}
	num, err := parseNumber(fields[0])
	if err != nil || num < 1 || num > 99 {
		return &ParseError{Line: lineNo, Reason: fmt.Sprintf("invalid track number %q", fields[0])}
	}
	if num <= p.lastTrack {
		return &ParseError{
			Line:   lineNo,
			Reason: fmt.Sprintf("track %02d does not follow track %02d", num, p.lastTrack),
		}
	}

	p.track = &Track{Number: num, Type: strings.ToUpper(fields[1])}
	p.trackLine = lineNo
	p.lastTrack = num
	p.file.Tracks = append(p.file.Tracks, p.track)
	return nil
}

func (p *parser) parseIndex(rest string, lineNo int) error {
	if p.file == nil {
		return &ParseError{Line: lineNo, Reason: "INDEX before any FILE"}
	}
	if p.track == nil {
		return &ParseError{Line: lineNo, Reason: "INDEX outside of a TRACK"}
	}

	fields := strings.Fields(rest)
	if len(fields) < 2 {
		return &ParseError{Line: lineNo, Reason: "INDEX needs a number and a time"}
	}
	num, err := parseNumber(fields[0])
	if err != nil || num < 0 || num > 99 {
		return &ParseError{Line: lineNo, Reason: fmt.Sprintf("invalid index number %q", fields[0])}
	}
	pos, err := ParseMSF(fields[1])
	if err != nil {
		return &ParseError{Line: lineNo, Reason: err.Error()}
	}

	if n := len(p.track.Indices); n == 0 {
		if num > 1 {
			return &ParseError{
				Line:   lineNo,
				Reason: fmt.Sprintf("track %02d starts at index %02d, want 00 or 01", p.track.Number, num),
			}
		}
	} else {
		last := p.track.Indices[n-1].Number
		if num == last {
			return &ParseError{
				Line:   lineNo,
				Reason: fmt.Sprintf("duplicate index %02d in track %02d", num, p.track.Number),
			}
		}
		if num < last {
			return &ParseError{
				Line:   lineNo,
				Reason: fmt.Sprintf("index %02d follows index %02d in track %02d", num, last, p.track.Number),
			}
		}
	}

	p.track.Indices = append(p.track.Indices, Index{Number: num, Position: pos})
	return nil
}

func (p *parser) closeTrack() error {
	if p.track != nil && len(p.track.Indices) == 0 {
		return &ParseError{
			Line:   p.trackLine,
			Reason: fmt.Sprintf("track %02d has no INDEX", p.track.Number),
		}
	}
	p.track = nil
	return nil
}

func (p *parser) closeFile() error {
	if err := p.closeTrack(); err != nil {
		return err
	}
	if p.file != nil && len(p.file.Tracks) == 0 {
		return &ParseError{
			Line:   p.fileLine,
			Reason: fmt.Sprintf("FILE %q has no TRACK", p.file.Path),
		}
	}
	p.file = nil
	return nil
}

func splitKeyword(line string) (string, string) {
	i := strings.IndexAny(line, " \t")
	if i < 0 {
		return line, ""
	}
	return line[:i], strings.TrimSpace(line[i+1:])
}

// splitFileOperands extracts the filename and type from the operands of a
// FILE statement. Quoted names may contain spaces; bare names may too when
// the type keyword can be identified.
func splitFileOperands(rest string) (string, string, error) {
	if strings.HasPrefix(rest, "\"") {
		end := strings.IndexByte(rest[1:], '"')
		if end < 0 {
			return "", "", fmt.Errorf("unterminated quote in FILE name")
		}
		name := rest[1 : end+1]
		if name == "" {
			return "", "", fmt.Errorf("empty FILE name")
		}
		fields := strings.Fields(rest[end+2:])
		if len(fields) == 0 {
			return "", "", fmt.Errorf("FILE %q has no type", name)
		}
		return name, strings.ToUpper(fields[0]), nil
	}

	fields := strings.Fields(rest)
	if len(fields) < 2 {
		return "", "", fmt.Errorf("FILE needs a name and a type")
	}
	for j := len(fields) - 1; j >= 1; j-- {
		if ParseFileType(fields[j]) != FileUnknown {
			return strings.Join(fields[:j], " "), strings.ToUpper(fields[j]), nil
		}
	}
	last := len(fields) - 1
	return strings.Join(fields[:last], " "), strings.ToUpper(fields[last]), nil
}

func parseNumber(s string) (int, error) {
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%q is not a number", s)
		}
	}
	return strconv.Atoi(s)
}
