package engine

import (
	"errors"
	"fmt"
)

// ErrCancelled is returned when the caller's context ends a run. Every
// temporary artifact has been removed by the time it is returned.
var ErrCancelled = errors.New("cancelled")

// IOErrorKind classifies an IOError.
type IOErrorKind int

const (
	ReadFailure IOErrorKind = iota + 1
	WriteFailure
	RenameFailure
	DestinationExists
)

var ioErrorKindNames = [...]string{
	ReadFailure:       "ReadFailure",
	WriteFailure:      "WriteFailure",
	RenameFailure:     "RenameFailure",
	DestinationExists: "DestinationExists",
}

func (k IOErrorKind) String() string {
	if int(k) < len(ioErrorKindNames) && ioErrorKindNames[k] != "" {
		return ioErrorKindNames[k]
	}
	return "Unknown"
}

// IOError reports a filesystem failure while producing outputs.
type IOError struct {
	Err  error
	Path string
	Kind IOErrorKind
}

func (e *IOError) Error() string {
	switch e.Kind {
	case ReadFailure:
		return fmt.Sprintf("read %s: %v", e.Path, e.Err)
	case WriteFailure:
		return fmt.Sprintf("write %s: %v", e.Path, e.Err)
	case RenameFailure:
		return fmt.Sprintf("rename into %s: %v", e.Path, e.Err)
	case DestinationExists:
		return fmt.Sprintf("%s already exists (use --force to overwrite)", e.Path)
	default:
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
}

func (e *IOError) Unwrap() error { return e.Err }

// VerifyError records a single extent whose destination bytes do not hash
// to the same digest as its source bytes.
type VerifyError struct {
	Err     error
	Path    string
	SrcHash string
	DstHash string
	Track   int
}

func (e *VerifyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("verify track %02d (%s): %v", e.Track, e.Path, e.Err)
	}
	return fmt.Sprintf("verify track %02d (%s): checksum mismatch: source %s, destination %s",
		e.Track, e.Path, short(e.SrcHash), short(e.DstHash))
}

func (e *VerifyError) Unwrap() error { return e.Err }

func short(hash string) string {
	if len(hash) > 16 {
		return hash[:16]
	}
	return hash
}
