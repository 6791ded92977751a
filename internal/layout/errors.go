package layout

import "fmt"

// ValidationKind classifies a ValidationError.
type ValidationKind int

const (
	MissingFile ValidationKind = iota + 1
	MisalignedSize
	MixedSectorSizes
	UnsupportedFileType
	UnsupportedTrackType
	IndexOutOfRange
)

var validationKindNames = [...]string{
	MissingFile:          "MissingFile",
	MisalignedSize:       "MisalignedSize",
	MixedSectorSizes:     "MixedSectorSizes",
	UnsupportedFileType:  "UnsupportedFileType",
	UnsupportedTrackType: "UnsupportedTrackType",
	IndexOutOfRange:      "IndexOutOfRange",
}

func (k ValidationKind) String() string {
	if int(k) < len(validationKindNames) && validationKindNames[k] != "" {
		return validationKindNames[k]
	}
	return "Unknown"
}

// ValidationError reports a cue sheet that does not match the binaries it
// references.
type ValidationError struct {
	Err        error
	Path       string
	Detail     string
	Size       int64
	SectorSize int
	Kind       ValidationKind
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case MissingFile:
		if e.Err != nil {
			return fmt.Sprintf("missing file %s: %v", e.Path, e.Err)
		}
		return "missing file " + e.Path
	case MisalignedSize:
		return fmt.Sprintf("%s: size %d is not a multiple of sector size %d", e.Path, e.Size, e.SectorSize)
	default:
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Kind, e.Detail)
	}
}

func (e *ValidationError) Unwrap() error { return e.Err }

// LayoutKind classifies a LayoutError.
type LayoutKind int

const (
	AmbiguousSplitSource LayoutKind = iota + 1
	EmptyTrack
	IndexOutOfOrder
	MisalignedOffset
)

var layoutKindNames = [...]string{
	AmbiguousSplitSource: "AmbiguousSplitSource",
	EmptyTrack:           "EmptyTrack",
	IndexOutOfOrder:      "IndexOutOfOrder",
	MisalignedOffset:     "MisalignedOffset",
}

func (k LayoutKind) String() string {
	if int(k) < len(layoutKindNames) && layoutKindNames[k] != "" {
		return layoutKindNames[k]
	}
	return "Unknown"
}

// LayoutError reports a sheet whose byte layout cannot be planned.
type LayoutError struct {
	Detail string
	Kind   LayoutKind
	Track  int
}

func (e *LayoutError) Error() string {
	if e.Track > 0 {
		return fmt.Sprintf("layout: track %02d: %s: %s", e.Track, e.Kind, e.Detail)
	}
	return fmt.Sprintf("layout: %s: %s", e.Kind, e.Detail)
}
