package cue

import (
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Load reads and parses the cue sheet at path. Sheets that are not valid
// UTF-8 are decoded as Windows-1252, which is what most legacy rippers
// wrote.
func Load(path string) (*Sheet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cue %s: %w", path, err)
	}
	text, err := decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decode cue %s: %w", path, err)
	}
	return Parse(text)
}

func decode(raw []byte) (string, error) {
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
