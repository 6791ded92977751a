package cue

import "strings"

// FileType is the payload type declared by a FILE statement.
type FileType int

const (
	FileUnknown FileType = iota
	FileBinary
	FileWave
	FileMotorola
	FileAIFF
	FileMP3
)

var fileTypeNames = [...]string{
	FileUnknown:  "UNKNOWN",
	FileBinary:   "BINARY",
	FileWave:     "WAVE",
	FileMotorola: "MOTOROLA",
	FileAIFF:     "AIFF",
	FileMP3:      "MP3",
}

func (t FileType) String() string {
	if int(t) < len(fileTypeNames) {
		return fileTypeNames[t]
	}
	return "UNKNOWN"
}

// ParseFileType maps a FILE type keyword to a FileType. Unrecognised
// keywords yield FileUnknown.
func ParseFileType(s string) FileType {
	switch strings.ToUpper(s) {
	case "BINARY":
		return FileBinary
	case "WAVE":
		return FileWave
	case "MOTOROLA":
		return FileMotorola
	case "AIFF":
		return FileAIFF
	case "MP3":
		return FileMP3
	default:
		return FileUnknown
	}
}

// Supported reports whether the engine can copy the payload as raw
// sectors. Only BINARY and WAVE are.
func (t FileType) Supported() bool {
	switch t {
	case FileBinary, FileWave:
		return true
	case FileUnknown, FileMotorola, FileAIFF, FileMP3:
		return false
	default:
		return false
	}
}

// Extension returns the conventional file extension for the type.
func (t FileType) Extension() string {
	if t == FileWave {
		return ".wav"
	}
	return ".bin"
}

// SectorTable maps a track type (AUDIO, MODE1/2352, ...) to its sector
// size in bytes.
type SectorTable map[string]int

// DefaultSectorTable returns the sector sizes of all track types defined
// by the CUE format.
func DefaultSectorTable() SectorTable {
	return SectorTable{
		"AUDIO":      2352,
		"CDG":        2448,
		"MODE1/2048": 2048,
		"MODE1/2352": 2352,
		"MODE2/2336": 2336,
		"MODE2/2352": 2352,
		"CDI/2336":   2336,
		"CDI/2352":   2352,
	}
}

// SectorSize looks up the sector size for a track type. Unknown types are
// reported as such rather than defaulted.
func (t SectorTable) SectorSize(trackType string) (int, bool) {
	n, ok := t[strings.ToUpper(trackType)]
	return n, ok
}
