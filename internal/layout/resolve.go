// Package layout validates a parsed cue sheet against its binaries and
// computes the byte layout used by the merge and split engines.
package layout

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bamsammich/cuemerge/internal/cue"
)

// FileInfo is the on-disk view of one FILE entry.
type FileInfo struct {
	Path       string // as written in the sheet
	AbsPath    string
	Size       int64
	SectorSize int
	Type       cue.FileType
}

// Sectors returns the file length in sectors.
func (f FileInfo) Sectors() int64 {
	return f.Size / int64(f.SectorSize)
}

// Resolved is a sheet whose binaries have been located and sized. Files
// is parallel to Sheet.Files.
type Resolved struct {
	Sheet   *cue.Sheet
	BaseDir string
	Files   []FileInfo
}

// Resolve stats every binary referenced by s, relative to baseDir, and
// checks it against the sector size implied by its tracks. The sheet is
// not modified.
func Resolve(s *cue.Sheet, baseDir string, table cue.SectorTable) (*Resolved, error) {
	if table == nil {
		table = cue.DefaultSectorTable()
	}
	r := &Resolved{Sheet: s, BaseDir: baseDir}

	for _, f := range s.Files {
		info, err := resolveFile(f, baseDir, table)
		if err != nil {
			return nil, err
		}
		r.Files = append(r.Files, info)
	}
	return r, nil
}

func resolveFile(f *cue.File, baseDir string, table cue.SectorTable) (FileInfo, error) {
	if !f.Type.Supported() {
		return FileInfo{}, &ValidationError{
			Kind:   UnsupportedFileType,
			Path:   f.Path,
			Detail: fmt.Sprintf("file type %q is not a raw sector payload", f.RawType),
		}
	}

	sectorSize, err := fileSectorSize(f, table)
	if err != nil {
		return FileInfo{}, err
	}

	abs := f.Path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(baseDir, filepath.FromSlash(f.Path))
	}
	st, err := os.Stat(abs)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			err = fmt.Errorf("stat: %w", err)
		}
		return FileInfo{}, &ValidationError{Kind: MissingFile, Path: f.Path, Err: err}
	}
	if !st.Mode().IsRegular() {
		return FileInfo{}, &ValidationError{
			Kind: MissingFile,
			Path: f.Path,
			Err:  fmt.Errorf("%s is not a regular file", abs),
		}
	}

	size := st.Size()
	if size%int64(sectorSize) != 0 {
		return FileInfo{}, &ValidationError{
			Kind:       MisalignedSize,
			Path:       f.Path,
			Size:       size,
			SectorSize: sectorSize,
		}
	}

	// Only a track's first index bounds its span; later indices may point
	// past the end of the data the file carries.
	for _, t := range f.Tracks {
		first := t.First()
		if off := first.Position.Bytes(sectorSize); off > size {
			return FileInfo{}, &ValidationError{
				Kind:       IndexOutOfRange,
				Path:       f.Path,
				Size:       size,
				SectorSize: sectorSize,
				Detail: fmt.Sprintf("track %02d starts at %s, beyond the end of the file (%d sectors)",
					t.Number, first.Position, size/int64(sectorSize)),
			}
		}
	}

	return FileInfo{
		Path:       f.Path,
		AbsPath:    abs,
		Size:       size,
		SectorSize: sectorSize,
		Type:       f.Type,
	}, nil
}

// fileSectorSize returns the sector size shared by every track of f.
func fileSectorSize(f *cue.File, table cue.SectorTable) (int, error) {
	size := 0
	first := ""
	for _, t := range f.Tracks {
		n, ok := table.SectorSize(t.Type)
		if !ok {
			return 0, &ValidationError{
				Kind:   UnsupportedTrackType,
				Path:   f.Path,
				Detail: fmt.Sprintf("track %02d has unsupported type %s", t.Number, t.Type),
			}
		}
		if size == 0 {
			size, first = n, t.Type
			continue
		}
		if n != size {
			return 0, &ValidationError{
				Kind: MixedSectorSizes,
				Path: f.Path,
				Detail: fmt.Sprintf("track %02d (%s, %d bytes) differs from %s (%d bytes)",
					t.Number, t.Type, n, first, size),
			}
		}
	}
	return size, nil
}
