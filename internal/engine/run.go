package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bamsammich/cuemerge/internal/cue"
	"github.com/bamsammich/cuemerge/internal/event"
	"github.com/bamsammich/cuemerge/internal/layout"
	"github.com/bamsammich/cuemerge/internal/stats"
)

// MergeConfig describes a merge run.
type MergeConfig struct {
	SectorTable cue.SectorTable
	Events      chan<- event.Event
	Stats       *stats.Collector
	CuePath     string
	Dst         string // destination cue path, stem, or existing directory
	BaseDir     string // defaults to the directory of CuePath
	LineEnding  string
	BWLimit     int64
	Workers     int
	Verify      bool
	Overwrite   bool
}

// SplitConfig describes a split run.
type SplitConfig struct {
	SectorTable cue.SectorTable
	Events      chan<- event.Event
	Stats       *stats.Collector
	CuePath     string
	DstDir      string
	Name        string // output stem, defaults to the source cue stem
	BaseDir     string
	LineEnding  string
	BWLimit     int64
	Workers     int
	Naming      Naming
	Verify      bool
	Overwrite   bool
}

// Result is the outcome of a run.
type Result struct {
	Err     error
	Sheet   *cue.Sheet
	Plan    *layout.Plan
	CuePath string
	Outputs []string // binaries, in destination order
	Stats   stats.Snapshot
}

// Prepare loads, resolves and plans the sheet at cuePath.
func Prepare(cuePath, baseDir string, table cue.SectorTable, mode layout.Mode) (*layout.Resolved, *layout.Plan, error) {
	s, err := cue.Load(cuePath)
	if err != nil {
		return nil, nil, err
	}
	return PrepareSheet(s, cuePath, baseDir, table, mode)
}

// PrepareSheet resolves and plans an already parsed sheet. cuePath locates
// the binaries when baseDir is empty.
func PrepareSheet(s *cue.Sheet, cuePath, baseDir string, table cue.SectorTable, mode layout.Mode) (*layout.Resolved, *layout.Plan, error) {
	if baseDir == "" {
		baseDir = filepath.Dir(cuePath)
	}
	r, err := layout.Resolve(s, baseDir, table)
	if err != nil {
		return nil, nil, err
	}
	p, err := layout.NewPlan(r, mode)
	if err != nil {
		return nil, nil, err
	}
	slog.Debug("planned", "mode", mode, "cue", cuePath, "files", len(r.Files),
		"tracks", s.TrackCount(), "bytes", p.TotalBytes())
	return r, p, nil
}

// RunMerge executes a merge, blocking until complete.
func RunMerge(ctx context.Context, cfg MergeConfig) Result {
	collector := cfg.Stats
	if collector == nil {
		collector = stats.NewCollector()
	}
	fail := func(err error) Result {
		return Result{Err: err, Stats: collector.Snapshot()}
	}

	r, p, err := Prepare(cfg.CuePath, cfg.BaseDir, cfg.SectorTable, layout.Merge)
	if err != nil {
		return fail(err)
	}

	cuePath, binPath := mergeTargets(cfg.Dst, cfg.CuePath, p.Destinations[0].Type)
	if err := checkFree(cuePath, cfg.Overwrite); err != nil {
		return fail(err)
	}

	sink := LocalSink{Overwrite: cfg.Overwrite}
	opts := CopyOptions{
		Source:  LocalSource{},
		Sink:    sink,
		Limiter: limiterFor(cfg.BWLimit),
		Events:  cfg.Events,
		Stats:   collector,
		Workers: cfg.Workers,
	}
	sheet, err := Merge(ctx, r, p, MergeOptions{CopyOptions: opts, BinPath: binPath})
	if err != nil {
		return fail(err)
	}

	outputs := []string{binPath}
	if err := writeSheet(sink, cuePath, sheet, cfg.LineEnding, cfg.Events); err != nil {
		removeAll(sink, outputs)
		return fail(err)
	}

	res := Result{Sheet: sheet, Plan: p, CuePath: cuePath, Outputs: outputs}
	if cfg.Verify {
		res.Err = verify(ctx, p, outputs, opts).Err()
	}
	res.Stats = collector.Snapshot()
	return res
}

// RunSplit executes a split, blocking until complete.
func RunSplit(ctx context.Context, cfg SplitConfig) Result {
	collector := cfg.Stats
	if collector == nil {
		collector = stats.NewCollector()
	}
	fail := func(err error) Result {
		return Result{Err: err, Stats: collector.Snapshot()}
	}

	r, p, err := Prepare(cfg.CuePath, cfg.BaseDir, cfg.SectorTable, layout.Split)
	if err != nil {
		return fail(err)
	}

	stem := cfg.Name
	if stem == "" {
		stem = cueStem(cfg.CuePath)
	}
	cuePath := filepath.Join(cfg.DstDir, stem+".cue")
	if err := checkFree(cuePath, cfg.Overwrite); err != nil {
		return fail(err)
	}

	sink := LocalSink{Overwrite: cfg.Overwrite}
	opts := CopyOptions{
		Source:  LocalSource{},
		Sink:    sink,
		Limiter: limiterFor(cfg.BWLimit),
		Events:  cfg.Events,
		Stats:   collector,
		Workers: cfg.Workers,
	}
	sheet, err := Split(ctx, r, p, SplitOptions{
		CopyOptions: opts,
		Dir:         cfg.DstDir,
		Stem:        stem,
		Naming:      cfg.Naming,
	})
	if err != nil {
		return fail(err)
	}

	outputs := make([]string, len(sheet.Files))
	for i, f := range sheet.Files {
		outputs[i] = filepath.Join(cfg.DstDir, f.Path)
	}
	if err := writeSheet(sink, cuePath, sheet, cfg.LineEnding, cfg.Events); err != nil {
		removeAll(sink, outputs)
		return fail(err)
	}

	res := Result{Sheet: sheet, Plan: p, CuePath: cuePath, Outputs: outputs}
	if cfg.Verify {
		res.Err = verify(ctx, p, outputs, opts).Err()
	}
	res.Stats = collector.Snapshot()
	return res
}

func verify(ctx context.Context, p *layout.Plan, outputs []string, opts CopyOptions) VerifyResult {
	return VerifyExtents(ctx, VerifyConfig{
		Plan:      p,
		Source:    opts.Source,
		Dest:      LocalSource{},
		DestPaths: outputs,
		Workers:   opts.Workers,
		Events:    opts.Events,
		Stats:     opts.Stats,
	})
}

// mergeTargets derives the cue and binary paths of a merge. dst may name
// the cue file, a stem, or an existing directory to write into.
func mergeTargets(dst, srcCue string, typ cue.FileType) (string, string) {
	var stem string
	switch {
	case isDir(dst):
		stem = filepath.Join(dst, cueStem(srcCue))
	case strings.EqualFold(filepath.Ext(dst), ".cue"):
		stem = strings.TrimSuffix(dst, filepath.Ext(dst))
	default:
		stem = dst
	}
	return stem + ".cue", stem + typ.Extension()
}

func cueStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func checkFree(path string, overwrite bool) error {
	if overwrite {
		return nil
	}
	_, err := os.Lstat(path)
	switch {
	case err == nil:
		return &IOError{Kind: DestinationExists, Path: path}
	case errors.Is(err, fs.ErrNotExist):
		return nil
	default:
		return &IOError{Kind: WriteFailure, Path: path, Err: fmt.Errorf("stat: %w", err)}
	}
}

func removeAll(sink Sink, paths []string) {
	for _, p := range paths {
		if err := sink.Remove(p); err != nil {
			slog.Warn("rollback failed", "path", p, "error", err)
		}
	}
}
