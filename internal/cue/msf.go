package cue

import (
	"fmt"
	"strconv"
	"strings"
)

// FramesPerSecond is the number of CD frames (sectors) per second of
// MM:SS:FF time.
const FramesPerSecond = 75

const framesPerMinute = 60 * FramesPerSecond

// MSF is a position expressed as a count of frames. It is written in cue
// sheets as MM:SS:FF.
type MSF int64

// ParseMSF parses an MM:SS:FF timestamp. Seconds must be in [0,59] and
// frames in [0,74]; minutes may use more than two digits.
func ParseMSF(s string) (MSF, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("time %q is not MM:SS:FF", s)
	}
	mm, err := parseField(parts[0], 2, 3)
	if err != nil {
		return 0, fmt.Errorf("time %q: minutes: %w", s, err)
	}
	ss, err := parseField(parts[1], 2, 2)
	if err != nil {
		return 0, fmt.Errorf("time %q: seconds: %w", s, err)
	}
	ff, err := parseField(parts[2], 2, 2)
	if err != nil {
		return 0, fmt.Errorf("time %q: frames: %w", s, err)
	}
	if ss > 59 {
		return 0, fmt.Errorf("time %q: seconds %d out of range [0,59]", s, ss)
	}
	if ff >= FramesPerSecond {
		return 0, fmt.Errorf("time %q: frames %d out of range [0,74]", s, ff)
	}
	return MSF(mm*framesPerMinute + ss*FramesPerSecond + ff), nil
}

func parseField(s string, minDigits, maxDigits int) (int64, error) {
	if len(s) < minDigits || len(s) > maxDigits {
		return 0, fmt.Errorf("%q must have %d-%d digits", s, minDigits, maxDigits)
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%q is not a number", s)
		}
	}
	return strconv.ParseInt(s, 10, 64)
}

// Frames returns the position as a frame count.
func (m MSF) Frames() int64 { return int64(m) }

// Bytes converts the position to a byte offset for the given sector size.
func (m MSF) Bytes(sectorSize int) int64 {
	return int64(m) * int64(sectorSize)
}

// String formats the position as MM:SS:FF.
func (m MSF) String() string {
	f := int64(m)
	return fmt.Sprintf("%02d:%02d:%02d",
		f/framesPerMinute,
		(f%framesPerMinute)/FramesPerSecond,
		f%FramesPerSecond,
	)
}

// MSFFromBytes converts a byte offset back to a position. The offset must
// be an exact multiple of sectorSize.
func MSFFromBytes(offset int64, sectorSize int) (MSF, error) {
	if sectorSize <= 0 {
		return 0, fmt.Errorf("invalid sector size %d", sectorSize)
	}
	if offset < 0 {
		return 0, fmt.Errorf("negative offset %d", offset)
	}
	if offset%int64(sectorSize) != 0 {
		return 0, fmt.Errorf("offset %d is not a multiple of sector size %d", offset, sectorSize)
	}
	return MSF(offset / int64(sectorSize)), nil
}
